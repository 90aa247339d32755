package event

import "sync"

// SharedQueue is a handle to a mutex-guarded Queue.
//
// Copies of a SharedQueue (including those returned by Clone) refer to the
// same underlying queue. Every method holds the lock for exactly one queue
// operation, so producers on the presence client's goroutines and readers on
// any other goroutine never observe a partial mutation.
//
// The zero value is not usable; create handles with NewSharedQueue.
type SharedQueue struct {
	s *sharedQueue
}

type sharedQueue struct {
	mu sync.Mutex
	q  *Queue
}

// NewSharedQueue creates a handle to a fresh, empty queue.
func NewSharedQueue() SharedQueue {
	return SharedQueue{s: &sharedQueue{q: NewQueue()}}
}

// Clone returns another handle to the same queue.
func (h SharedQueue) Clone() SharedQueue {
	return h
}

// Same reports whether both handles refer to the same queue.
func (h SharedQueue) Same(other SharedQueue) bool {
	return h.s == other.s
}

// Push appends an event to the tail.
// Thread-safe: may be called from any goroutine.
func (h SharedQueue) Push(e Event) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.q.Push(e)
}

// Respond removes and returns the oldest event.
func (h SharedQueue) Respond() (Event, bool) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.q.Respond()
}

// RespondLatest removes and returns the newest event.
func (h SharedQueue) RespondLatest() (Event, bool) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.q.RespondLatest()
}

// RespondSpecific removes the first occurrence of e.
func (h SharedQueue) RespondSpecific(e Event) bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.q.RespondSpecific(e)
}

// Clear discards every queued event.
func (h SharedQueue) Clear() {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.q.Clear()
}

// Len returns the number of queued events.
func (h SharedQueue) Len() int {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.q.Len()
}

// Events returns a copy of the queued events, oldest first.
func (h SharedQueue) Events() []Event {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.q.Events()
}
