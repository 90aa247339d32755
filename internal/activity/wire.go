package activity

import "github.com/roach88/presence/internal/rpc"

// ToWire converts a presence to the payload submitted to the presence
// client. Every descriptive field is copied verbatim; the event queue and
// the version never leave the process. No validation happens here.
func ToWire(p Presence) rpc.Activity {
	c := p.Clone()
	return rpc.Activity{
		State:      c.State,
		Details:    c.Details,
		Instance:   c.Instance,
		Timestamps: c.Timestamps,
		Assets:     c.Assets,
		Party:      c.Party,
		Secrets:    c.Secrets,
		Buttons:    c.Buttons,
	}
}
