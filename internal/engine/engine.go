package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/presence/internal/activity"
	"github.com/roach88/presence/internal/event"
	"github.com/roach88/presence/internal/rpc"
	"github.com/roach88/presence/internal/store"
)

// PresenceClient is the connection to the external presence process.
// Implemented by rpc.Client.
type PresenceClient interface {
	// OnEvent registers a callback invoked, on an unspecified goroutine,
	// whenever the external process reports ev.
	OnEvent(ev event.Event, h rpc.Handler)
	// Start begins the connection lifecycle without blocking.
	Start(ctx context.Context)
	// SetActivity submits the presence.
	SetActivity(ctx context.Context, a rpc.Activity) error
}

// Journal records submission attempts. Implemented by store.Store.
type Journal interface {
	WriteSubmission(ctx context.Context, sub store.Submission) error
}

// TickResult reports what a tick did.
type TickResult int

const (
	// TickSkipped means the snapshot had not changed.
	TickSkipped TickResult = iota
	// TickSubmitted means the presence was accepted.
	TickSubmitted
	// TickFailed means the submission failed and was logged.
	TickFailed
)

func (r TickResult) String() string {
	switch r {
	case TickSkipped:
		return "skipped"
	case TickSubmitted:
		return "submitted"
	case TickFailed:
		return "failed"
	default:
		return fmt.Sprintf("tick_result(%d)", int(r))
	}
}

// Engine synchronizes an activity.Snapshot with the presence client.
//
// Thread-safety model:
//   - Startup, Tick, Run: must be called from one goroutine, never concurrently
//   - LastError: same goroutine as Tick
//   - The snapshot may be mutated from any goroutine at any time
//
// INVARIANTS:
//   - observedVersion only grows
//   - A version is submitted at most once, whatever the outcome
type Engine struct {
	client   PresenceClient
	snapshot *activity.Snapshot
	clock    Clock
	logger   *slog.Logger
	journal  Journal
	showTime bool

	started         bool
	observed        bool   // false until the first tick reads the snapshot
	observedVersion uint64 // snapshot version read by the last non-skipped tick
	lastErr         *SyncError
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithShowTime controls the elapsed-time stamp at startup. Default: true.
func WithShowTime(show bool) EngineOption {
	return func(e *Engine) {
		e.showTime = show
	}
}

// WithClock replaces the wall clock used for the elapsed-time stamp.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the diagnostic sink. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithJournal records every submission attempt.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// New creates an Engine that pushes snapshot to client.
func New(client PresenceClient, snapshot *activity.Snapshot, opts ...EngineOption) *Engine {
	e := &Engine{
		client:   client,
		snapshot: snapshot,
		clock:    SystemClock{},
		logger:   slog.Default(),
		showTime: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Startup stamps the start time, wires every event into the snapshot's
// queue and starts the presence client. Only the first call has an effect.
func (e *Engine) Startup(ctx context.Context) {
	if e.started {
		e.logger.Warn("engine startup called twice, ignoring")
		return
	}
	e.started = true

	if e.showTime {
		e.stampStart()
	}

	queue := e.snapshot.Events()
	for _, ev := range event.All() {
		e.client.OnEvent(ev, func(_ event.Event, _ json.RawMessage) {
			queue.Push(ev)
			e.logger.Debug("event queued", "event", ev)
		})
	}
	e.logger.Debug("event callbacks registered", "count", len(event.All()))

	e.client.Start(ctx)
	e.logger.Debug("presence client started")
}

func (e *Engine) stampStart() {
	now := e.clock.Now().Unix()
	if now < 0 {
		e.logger.Error("wall clock is before the unix epoch, not stamping start time", "now", now)
		return
	}
	start := uint64(now)
	e.snapshot.Update(func(p *activity.Presence) {
		p.Timestamps = &rpc.Timestamps{Start: &start}
	})
}

// Tick submits the snapshot if it changed since the last tick.
//
// An unchanged snapshot costs one atomic load. A failed submission is
// logged, recorded as LastError and not retried; the next mutation triggers
// the next attempt.
func (e *Engine) Tick(ctx context.Context) TickResult {
	if e.observed && e.snapshot.Version() == e.observedVersion {
		return TickSkipped
	}

	presence, version := e.snapshot.Read()
	e.observed = true
	e.observedVersion = version

	submitErr := e.client.SetActivity(ctx, activity.ToWire(presence))
	e.record(ctx, version, submitErr)

	if submitErr != nil {
		e.lastErr = NewSubmitError(version, submitErr)
		e.logger.Error("failed to set presence",
			"version", version,
			"error", submitErr,
			"not_connected", rpc.IsNotConnected(submitErr),
		)
		return TickFailed
	}

	e.lastErr = nil
	e.logger.Debug("presence submitted", "version", version)
	return TickSubmitted
}

// record journals a submission attempt. Journal failures are logged only.
func (e *Engine) record(ctx context.Context, version uint64, submitErr error) {
	if e.journal == nil {
		return
	}
	sub := store.Submission{
		Version:     version,
		OK:          submitErr == nil,
		SubmittedAt: e.clock.Now(),
	}
	if submitErr != nil {
		sub.Error = submitErr.Error()
	}
	if err := e.journal.WriteSubmission(ctx, sub); err != nil {
		e.logger.Warn("journal write failed", "error", NewJournalError(version, err))
	}
}

// LastError returns the failure of the most recent non-skipped tick, or nil
// if it succeeded.
func (e *Engine) LastError() error {
	if e.lastErr == nil {
		return nil
	}
	return e.lastErr
}

// Run is the host scheduler: Startup unless the host already called it, an
// immediate Tick, then one Tick per interval until ctx is done. Returns
// ctx.Err().
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}

	e.logger.Info("engine starting", "interval", interval, "show_time", e.showTime)
	if !e.started {
		e.Startup(ctx)
	}
	e.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}
