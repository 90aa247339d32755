package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presence/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestRun_StampsStartTime(t *testing.T) {
	scenario := &Scenario{
		Name:        "start_time",
		Description: "startup stamps the frozen clock",
		Steps:       []Step{{Action: StepTick, Expect: "submitted"}},
		Assertions:  []Assertion{{Type: AssertSubmissionCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	act := result.Trace[0].Activity
	require.NotNil(t, act)
	require.NotNil(t, act.Timestamps)
	assert.Equal(t, uint64(ScenarioStart.Unix()), *act.Timestamps.Start)
	assert.Equal(t, uint64(1), result.Trace[0].Version)
}

func TestRun_ShowTimeDisabled(t *testing.T) {
	scenario := &Scenario{
		ShowTime:   boolPtr(false),
		Steps:      []Step{{Action: StepTick}},
		Assertions: []Assertion{{Type: AssertSubmissionCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 1)
	assert.Nil(t, result.Trace[0].Activity.Timestamps)
}

func TestRun_TickExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Steps: []Step{
			{Action: StepTick},
			{Action: StepTick, Expect: "submitted"},
		},
		Assertions: []Assertion{{Type: AssertSubmissionCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1]: expected tick submitted, got skipped")
}

func TestRun_FailWithMessage(t *testing.T) {
	scenario := &Scenario{
		ShowTime: boolPtr(false),
		Steps: []Step{
			{Action: StepFail, Error: "pipe closed"},
			{Action: StepTick, Expect: "failed"},
		},
		Assertions: []Assertion{{Type: AssertTickResults, Results: []string{"failed"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "SUBMIT_FAILED: version 0: pipe closed", result.Trace[0].Error)
}

func TestRun_SetKeepsStartTimestamp(t *testing.T) {
	scenario := &Scenario{
		Steps: []Step{
			{Action: StepSet, Activity: &config.ActivityConfig{State: "Playing", Details: "Level 3"}},
			{Action: StepTick},
			{Action: StepSet},
			{Action: StepTick},
		},
		Assertions: []Assertion{{Type: AssertSubmissionCount, Count: 2}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	first := result.Trace[0].Activity
	require.NotNil(t, first.State)
	assert.Equal(t, "Playing", *first.State)
	require.NotNil(t, first.Timestamps)

	cleared := result.Trace[1].Activity
	assert.Nil(t, cleared.State)
	assert.Nil(t, cleared.Details)
	require.NotNil(t, cleared.Timestamps)
	assert.Equal(t, uint64(ScenarioStart.Unix()), *cleared.Timestamps.Start)
}

func TestRun_UnknownActionFails(t *testing.T) {
	_, err := Run(&Scenario{Steps: []Step{{Action: "explode"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestRun_EmitUnknownEventFails(t *testing.T) {
	_, err := Run(&Scenario{Steps: []Step{{Action: StepEmit, Event: "nope"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
}
