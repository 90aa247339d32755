package event

// Queue is an ordered buffer of events.
//
// Insertion order is preserved and duplicates are allowed. Queue is NOT
// safe for concurrent use; share it through SharedQueue.
type Queue struct {
	events []Event
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		events: make([]Event, 0, 8), // notifications between ticks are few
	}
}

// Push appends an event to the tail.
func (q *Queue) Push(e Event) {
	q.events = append(q.events, e)
}

// Respond removes and returns the oldest event.
// Returns (0, false) if the queue is empty.
func (q *Queue) Respond() (Event, bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	e := q.events[0]
	if len(q.events) == 1 {
		// Reuse the backing array once drained
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// RespondLatest removes and returns the most recently pushed event.
// Older entries are left in place.
func (q *Queue) RespondLatest() (Event, bool) {
	n := len(q.events)
	if n == 0 {
		return 0, false
	}
	e := q.events[n-1]
	q.events = q.events[:n-1]
	return e, true
}

// RespondSpecific removes the first occurrence of e, scanning from the head.
// The relative order of the remaining events is unchanged.
func (q *Queue) RespondSpecific(e Event) bool {
	for i, queued := range q.events {
		if queued == e {
			q.events = append(q.events[:i], q.events[i+1:]...)
			return true
		}
	}
	return false
}

// Clear discards every queued event.
func (q *Queue) Clear() {
	q.events = q.events[:0]
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Events returns a copy of the queued events, oldest first.
func (q *Queue) Events() []Event {
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}
