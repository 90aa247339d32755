package harness

import "github.com/roach88/presence/internal/rpc"

// Trace entry types.
const (
	EntryTick    = "tick"
	EntryEvent   = "event"
	EntryConsume = "consume"
)

// TraceEvent is one observable step of a scenario.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "tick", "event" or "consume"

	// Tick entries.
	Result   string        `json:"result,omitempty"`
	Version  uint64        `json:"version,omitempty"`
	Activity *rpc.Activity `json:"activity,omitempty"` // nil for skipped ticks
	Error    string        `json:"error,omitempty"`

	// Event and consume entries.
	Event string `json:"event,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every tick expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists ticks and events in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Pending is the event queue length after the last step.
	Pending int `json:"pending"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// add appends e to the trace with the next sequence number.
func (r *Result) add(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}

// entries returns the trace entries of type typ, in order.
func (r *Result) entries(typ string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
