package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/presence/internal/config"
	"github.com/roach88/presence/internal/engine"
	"github.com/roach88/presence/internal/event"
)

// Scenario is a scripted run of the sync engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ShowTime controls the start timestamp stamped at startup. Default: true.
	ShowTime *bool `yaml:"show_time,omitempty"`

	// Steps run in order after engine startup.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted action. Which fields apply depends on Action.
type Step struct {
	// Action is one of the Step* constants.
	Action string `yaml:"action"`

	// Activity is the presence installed by "set". Nil clears it.
	Activity *config.ActivityConfig `yaml:"activity,omitempty"`

	// Event is the event name reported by "emit".
	Event string `yaml:"event,omitempty"`

	// Error is the failure of the next submission, for "fail".
	// ErrorNotConnected maps to rpc.ErrNotConnected.
	Error string `yaml:"error,omitempty"`

	// Expect is the tick result required by "tick", if set.
	Expect string `yaml:"expect,omitempty"`
}

// Step actions.
const (
	StepSet     = "set"
	StepTick    = "tick"
	StepFail    = "fail"
	StepEmit    = "emit"
	StepConsume = "consume"
)

// ErrorNotConnected scripts the client's not-connected error.
const ErrorNotConnected = "not_connected"

// Assertion validates the result of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "submission_count": exactly Count ticks reached the client
	// - "tick_results": the tick results equal Results, in order
	// - "last_submission": the last submitted activity has State and Details
	// - "consumed_events": the consumed events equal Events, in order
	// - "pending_events": exactly Count events remain queued
	Type string `yaml:"type"`

	// Count is used by submission_count and pending_events.
	Count int `yaml:"count,omitempty"`

	// Results is used by tick_results.
	Results []string `yaml:"results,omitempty"`

	// State and Details are used by last_submission. Empty means unset.
	State   string `yaml:"state,omitempty"`
	Details string `yaml:"details,omitempty"`

	// Events is used by consumed_events.
	Events []string `yaml:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertSubmissionCount = "submission_count"
	AssertTickResults     = "tick_results"
	AssertLastSubmission  = "last_submission"
	AssertConsumedEvents  = "consumed_events"
	AssertPendingEvents   = "pending_events"
)

var tickResults = []string{
	engine.TickSkipped.String(),
	engine.TickSubmitted.String(),
	engine.TickFailed.String(),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Action {
	case StepSet, StepConsume:
	case StepTick:
		if step.Expect != "" && !slices.Contains(tickResults, step.Expect) {
			return fmt.Errorf("steps[%d]: unknown tick result %q", index, step.Expect)
		}
	case StepFail:
		if step.Error == "" {
			return fmt.Errorf("steps[%d]: error is required for fail", index)
		}
	case StepEmit:
		if _, err := event.Parse(step.Event); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertSubmissionCount, AssertPendingEvents:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertTickResults:
		for _, r := range a.Results {
			if !slices.Contains(tickResults, r) {
				return fmt.Errorf("assertions[%d]: unknown tick result %q", index, r)
			}
		}
	case AssertLastSubmission:
		if a.State == "" && a.Details == "" {
			return fmt.Errorf("assertions[%d]: state or details is required for last_submission", index)
		}
	case AssertConsumedEvents:
		for _, name := range a.Events {
			if _, err := event.Parse(name); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
