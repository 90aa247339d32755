// Package activity holds the presence snapshot that application code mutates
// and the sync engine reads, and its conversion to the wire payload.
package activity
