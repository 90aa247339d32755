package activity

import (
	"sync"

	"github.com/roach88/presence/internal/event"
	"github.com/roach88/presence/internal/rpc"
)

// Presence is what should be displayed. Every field is optional: nil hides
// the attribute, it does not clear it to an empty string.
type Presence struct {
	// State is the user's current party status.
	State *string
	// Details is what the user is currently doing.
	Details *string
	// Instance marks an instanced context, like a match.
	Instance *bool
	// Timestamps drive the elapsed/remaining timer.
	Timestamps *rpc.Timestamps
	// Assets are the images and hover texts.
	Assets *rpc.Assets
	// Party is the group the user is in.
	Party *rpc.Party
	// Secrets allow others to join or spectate.
	Secrets *rpc.Secrets
	// Buttons are clickable links. The client rejects more than rpc.MaxButtons.
	Buttons []rpc.Button
}

// Snapshot is the long-lived, mutable presence plus the queue of events
// reported for it.
//
// Callers on any goroutine mutate it through Update or Set; each mutation
// bumps the version, which the sync engine compares between ticks. A
// mutation that leaves the fields unchanged still bumps the version, so the
// engine may resubmit an identical presence but never misses a change.
type Snapshot struct {
	mu       sync.Mutex // protects presence and orders version bumps with it
	presence Presence
	version  Version
	events   event.SharedQueue
}

// NewSnapshot creates an empty snapshot with a fresh event queue.
func NewSnapshot() *Snapshot {
	return &Snapshot{events: event.NewSharedQueue()}
}

// Update applies fn to the presence and bumps the version.
// fn runs under the snapshot lock and must not call back into s.
func (s *Snapshot) Update(fn func(p *Presence)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.presence)
	s.version.Next()
}

// Set replaces the whole presence.
func (s *Snapshot) Set(p Presence) {
	p = p.Clone()
	s.Update(func(cur *Presence) { *cur = p })
}

// Read returns a deep copy of the presence and the version it belongs to.
func (s *Snapshot) Read() (Presence, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Clone(), s.version.Current()
}

// Version returns the current mutation count without locking.
func (s *Snapshot) Version() uint64 {
	return s.version.Current()
}

// Events returns a handle to the snapshot's event queue.
func (s *Snapshot) Events() event.SharedQueue {
	return s.events
}

// Clone returns a deep copy of p.
func (p Presence) Clone() Presence {
	out := Presence{
		State:    cloneString(p.State),
		Details:  cloneString(p.Details),
		Instance: cloneBool(p.Instance),
	}
	if p.Timestamps != nil {
		out.Timestamps = &rpc.Timestamps{
			Start: cloneUint64(p.Timestamps.Start),
			End:   cloneUint64(p.Timestamps.End),
		}
	}
	if p.Assets != nil {
		assets := *p.Assets
		out.Assets = &assets
	}
	if p.Party != nil {
		party := rpc.Party{ID: p.Party.ID}
		if p.Party.Size != nil {
			size := *p.Party.Size
			party.Size = &size
		}
		out.Party = &party
	}
	if p.Secrets != nil {
		secrets := *p.Secrets
		out.Secrets = &secrets
	}
	if p.Buttons != nil {
		out.Buttons = make([]rpc.Button, len(p.Buttons))
		copy(out.Buttons, p.Buttons)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneUint64(u *uint64) *uint64 {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
