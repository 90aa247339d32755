package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		switch event.Type {
		case EntryTick:
			fmt.Fprintf(&buf, "  [%d] tick %s (version %d)\n", event.Seq, event.Result, event.Version)
		default:
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Type, event.Event)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertSubmissionCount:
		return assertSubmissionCount(result, a)
	case AssertTickResults:
		return assertTickResults(result, a)
	case AssertLastSubmission:
		return assertLastSubmission(result, a)
	case AssertConsumedEvents:
		return assertConsumedEvents(result, a)
	case AssertPendingEvents:
		return assertPendingEvents(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertSubmissionCount counts ticks that reached the client, failed or not.
func assertSubmissionCount(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.entries(EntryTick) {
		if e.Activity != nil {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSubmissionCount,
		Expected: fmt.Sprintf("%d submission(s)", a.Count),
		Actual:   fmt.Sprintf("%d submission(s)", n),
		Trace:    result.Trace,
	}
}

func assertTickResults(result *Result, a Assertion) error {
	var got []string
	for _, e := range result.entries(EntryTick) {
		got = append(got, e.Result)
	}
	if slices.Equal(got, a.Results) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTickResults,
		Expected: fmt.Sprintf("%v", a.Results),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertLastSubmission(result *Result, a Assertion) error {
	ticks := result.entries(EntryTick)
	for i := len(ticks) - 1; i >= 0; i-- {
		act := ticks[i].Activity
		if act == nil {
			continue
		}
		state, details := deref(act.State), deref(act.Details)
		if (a.State == "" || a.State == state) && (a.Details == "" || a.Details == details) {
			return nil
		}
		return &AssertionError{
			Type:     AssertLastSubmission,
			Expected: fmt.Sprintf("state %q details %q", a.State, a.Details),
			Actual:   fmt.Sprintf("state %q details %q", state, details),
			Trace:    result.Trace,
		}
	}
	return &AssertionError{
		Type:     AssertLastSubmission,
		Expected: fmt.Sprintf("state %q details %q", a.State, a.Details),
		Actual:   "no submission",
		Trace:    result.Trace,
	}
}

func assertConsumedEvents(result *Result, a Assertion) error {
	var got []string
	for _, e := range result.entries(EntryConsume) {
		got = append(got, e.Event)
	}
	if slices.Equal(got, a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertConsumedEvents,
		Expected: fmt.Sprintf("%v", a.Events),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertPendingEvents(result *Result, a Assertion) error {
	if result.Pending == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPendingEvents,
		Expected: fmt.Sprintf("%d pending event(s)", a.Count),
		Actual:   fmt.Sprintf("%d pending event(s)", result.Pending),
		Trace:    result.Trace,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
