package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/roach88/presence/internal/event"
	"github.com/roach88/presence/internal/rpc"
)

// FakeClient is an in-memory presence client.
//
// It records every call and lets tests script submission failures and fire
// events as the external process would. Implements engine.PresenceClient.
//
// Thread-safety: all methods are safe for concurrent use. Handlers are
// invoked outside the internal lock.
type FakeClient struct {
	mu          sync.Mutex
	handlers    map[event.Event][]rpc.Handler
	starts      int
	submissions []rpc.Activity
	failNext    []error
	failAlways  error
}

// NewFakeClient creates a client that accepts every submission.
func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[event.Event][]rpc.Handler)}
}

// OnEvent records the handler.
func (f *FakeClient) OnEvent(ev event.Event, h rpc.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[ev] = append(f.handlers[ev], h)
}

// Start counts the call and returns immediately.
func (f *FakeClient) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

// SetActivity records a, then returns the next scripted error, if any.
func (f *FakeClient) SetActivity(ctx context.Context, a rpc.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, a)
	if len(f.failNext) > 0 {
		err := f.failNext[0]
		f.failNext = f.failNext[1:]
		return err
	}
	return f.failAlways
}

// FailNext makes the next len(errs) submissions return errs in order.
// A nil entry lets that submission succeed.
func (f *FakeClient) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = append(f.failNext, errs...)
}

// FailAlways makes every unscripted submission return err. Pass nil to
// restore success.
func (f *FakeClient) FailAlways(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAlways = err
}

// Emit invokes the handlers registered for ev, as the external process would.
func (f *FakeClient) Emit(ev event.Event, data json.RawMessage) {
	f.mu.Lock()
	handlers := append([]rpc.Handler(nil), f.handlers[ev]...)
	f.mu.Unlock()

	for _, h := range handlers {
		h(ev, data)
	}
}

// Submissions returns a copy of every submitted activity, oldest first.
func (f *FakeClient) Submissions() []rpc.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rpc.Activity, len(f.submissions))
	copy(out, f.submissions)
	return out
}

// SubmitCount returns how many times SetActivity was called.
func (f *FakeClient) SubmitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

// StartCount returns how many times Start was called.
func (f *FakeClient) StartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// HandlerCount returns how many handlers are registered for ev.
func (f *FakeClient) HandlerCount(ev event.Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[ev])
}
