package event

import "fmt"

// Event identifies a kind of asynchronous notification emitted by the
// presence client. The set is closed: every variant is listed in All.
type Event int

const (
	// Ready fires once the external process accepted the handshake.
	Ready Event = iota + 1
	// Error fires when the external process reports an error.
	Error
	// ActivityJoin fires when another user joins through the join secret.
	ActivityJoin
	// ActivitySpectate fires when another user spectates through the spectate secret.
	ActivitySpectate
	// ActivityJoinRequest fires when another user asks to join.
	ActivityJoinRequest
	// Connected fires when the IPC connection is established.
	Connected
	// Disconnected fires when the IPC connection is lost.
	Disconnected
)

var names = map[Event]string{
	Ready:               "ready",
	Error:               "error",
	ActivityJoin:        "activity_join",
	ActivitySpectate:    "activity_spectate",
	ActivityJoinRequest: "activity_join_request",
	Connected:           "connected",
	Disconnected:        "disconnected",
}

// All returns every Event variant in declaration order.
// A fresh slice is returned on each call.
func All() []Event {
	return []Event{
		Ready,
		Error,
		ActivityJoin,
		ActivitySpectate,
		ActivityJoinRequest,
		Connected,
		Disconnected,
	}
}

// String returns the snake_case name of the event.
func (e Event) String() string {
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Valid reports whether e is one of the declared variants.
func (e Event) Valid() bool {
	_, ok := names[e]
	return ok
}

// Parse returns the Event with the given snake_case name.
func Parse(name string) (Event, error) {
	for ev, n := range names {
		if n == name {
			return ev, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}
