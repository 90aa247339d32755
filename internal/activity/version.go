package activity

import "sync/atomic"

// Version is a monotonic mutation counter.
//
// Every mutation of a Snapshot takes the next value, so a reader that
// remembers the last value it observed can tell whether anything changed
// without taking the snapshot lock.
//
// Thread-safety: Version is safe for concurrent use (atomic operations).
type Version struct {
	seq atomic.Uint64
}

// Next increments the counter and returns the new value.
// Calls are linearizable - each call returns a unique, increasing value.
func (v *Version) Next() uint64 {
	return v.seq.Add(1)
}

// Current returns the counter without incrementing.
func (v *Version) Current() uint64 {
	return v.seq.Load()
}
