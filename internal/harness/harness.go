package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/presence/internal/activity"
	"github.com/roach88/presence/internal/config"
	"github.com/roach88/presence/internal/engine"
	"github.com/roach88/presence/internal/event"
	"github.com/roach88/presence/internal/rpc"
	"github.com/roach88/presence/internal/testutil"
)

// ScenarioStart is the frozen wall-clock time of every scenario.
var ScenarioStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness executes the steps of one scenario.
type Harness struct {
	client   *testutil.FakeClient
	snapshot *activity.Snapshot
	engine   *engine.Engine
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine, snapshot and fake client.
//
// Execution flow:
// 1. Start the engine (stamps ScenarioStart unless show_time is false)
// 2. Execute steps in order, checking tick expectations
// 3. Evaluate assertions against the trace
func Run(scenario *Scenario) (*Result, error) {
	showTime := true
	if scenario.ShowTime != nil {
		showTime = *scenario.ShowTime
	}

	client := testutil.NewFakeClient()
	snapshot := activity.NewSnapshot()
	eng := engine.New(client, snapshot,
		engine.WithClock(testutil.NewManualClock(ScenarioStart)),
		engine.WithShowTime(showTime),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	h := &Harness{
		client:   client,
		snapshot: snapshot,
		engine:   eng,
	}

	ctx := context.Background()
	eng.Startup(ctx)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	result.Pending = snapshot.Events().Len()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Action {
	case StepSet:
		cfg := config.Config{Activity: step.Activity}
		cfg.ApplyTo(h.snapshot)

	case StepTick:
		h.tick(ctx, index, step, result)

	case StepFail:
		err := rpc.ErrNotConnected
		if step.Error != ErrorNotConnected {
			err = errors.New(step.Error)
		}
		h.client.FailNext(err)

	case StepEmit:
		ev, err := event.Parse(step.Event)
		if err != nil {
			return err
		}
		h.client.Emit(ev, nil)
		result.add(TraceEvent{Type: EntryEvent, Event: ev.String()})

	case StepConsume:
		queue := h.snapshot.Events()
		for {
			ev, ok := queue.Respond()
			if !ok {
				break
			}
			result.add(TraceEvent{Type: EntryConsume, Event: ev.String()})
		}

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func (h *Harness) tick(ctx context.Context, index int, step Step, result *Result) {
	submitted := h.client.SubmitCount()
	r := h.engine.Tick(ctx)

	entry := TraceEvent{
		Type:    EntryTick,
		Result:  r.String(),
		Version: h.snapshot.Version(),
	}
	if h.client.SubmitCount() > submitted {
		subs := h.client.Submissions()
		last := subs[len(subs)-1]
		entry.Activity = &last
	}
	if r == engine.TickFailed {
		entry.Error = h.engine.LastError().Error()
	}
	result.add(entry)

	if step.Expect != "" && step.Expect != r.String() {
		result.AddError(fmt.Sprintf("steps[%d]: expected tick %s, got %s", index, step.Expect, r))
	}
}
