// Package engine implements the presence sync engine.
//
// The engine keeps the external presence in step with a locally mutated
// activity.Snapshot. The host drives it through two entry points:
//
// Startup (exactly once):
//  1. Stamp the elapsed-time start marker if show_time is on
//  2. Register one callback per event.Event that pushes onto the snapshot's queue
//  3. Start the presence client (non-blocking)
//
// Tick (every scheduling cycle):
//  1. Compare the snapshot version with the last observed version
//  2. Unchanged: return immediately (the common case)
//  3. Changed: convert with activity.ToWire and submit once
//
// Startup and Tick are never called concurrently; Run serializes them. The
// presence client calls back on its own goroutines and only touches the
// event queue, which carries its own lock.
//
// ERROR HANDLING:
//
// A failed submission is logged and the tick returns. Nothing is retried:
// the observed version advances whether or not the submission succeeded, so
// an unchanged snapshot is not resubmitted until the next mutation.
package engine
