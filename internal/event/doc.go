// Package event defines the notifications emitted by the presence client and
// the buffers that hold them until a reader drains them.
//
// Queue is the plain ordered buffer. SharedQueue wraps it with a mutex behind
// a shared handle: the presence client pushes from its own goroutines while
// application code drains it with Respond (oldest first), RespondLatest
// (newest first), RespondSpecific (first match) or Clear.
//
// An empty queue is not an error. Every Respond variant reports absence with
// its boolean result.
package event
