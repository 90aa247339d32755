package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presence/internal/rpc"
)

func sampleResult() *Result {
	r := NewResult()
	r.add(TraceEvent{Type: EntryEvent, Event: "ready"})
	r.add(TraceEvent{Type: EntryTick, Result: "submitted", Version: 1, Activity: &rpc.Activity{State: rpc.String("Idle")}})
	r.add(TraceEvent{Type: EntryTick, Result: "skipped", Version: 1})
	r.add(TraceEvent{Type: EntryConsume, Event: "ready"})
	r.add(TraceEvent{Type: EntryTick, Result: "failed", Version: 2, Activity: &rpc.Activity{Details: rpc.String("Busy")}, Error: "boom"})
	r.Pending = 2
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertSubmissionCount, Count: 2},
		{Type: AssertTickResults, Results: []string{"submitted", "skipped", "failed"}},
		{Type: AssertLastSubmission, Details: "Busy"},
		{Type: AssertConsumedEvents, Events: []string{"ready"}},
		{Type: AssertPendingEvents, Count: 2},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "submission count",
			assertion: Assertion{Type: AssertSubmissionCount, Count: 3},
			want:      "Actual: 2 submission(s)",
		},
		{
			name:      "tick results",
			assertion: Assertion{Type: AssertTickResults, Results: []string{"submitted"}},
			want:      "Actual: [submitted skipped failed]",
		},
		{
			name:      "last submission",
			assertion: Assertion{Type: AssertLastSubmission, State: "Idle"},
			want:      `Actual: state "" details "Busy"`,
		},
		{
			name:      "consumed events",
			assertion: Assertion{Type: AssertConsumedEvents, Events: []string{"ready", "error"}},
			want:      "Actual: [ready]",
		},
		{
			name:      "pending events",
			assertion: Assertion{Type: AssertPendingEvents, Count: 0},
			want:      "Actual: 2 pending event(s)",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "bogus"},
			want:      `unknown assertion type "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertLastSubmission_NoSubmission(t *testing.T) {
	r := NewResult()
	r.add(TraceEvent{Type: EntryTick, Result: "skipped"})

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertLastSubmission, State: "Idle"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no submission")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertPendingEvents,
		Expected: "0 pending event(s)",
		Actual:   "2 pending event(s)",
		Trace:    sampleResult().Trace,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: pending_events")
	assert.Contains(t, msg, "[1] event ready")
	assert.Contains(t, msg, "[2] tick submitted (version 1)")
	assert.Contains(t, msg, "[4] consume ready")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("broken")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"broken"}, r.Errors)
}
