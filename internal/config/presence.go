package config

import (
	"github.com/roach88/presence/internal/activity"
	"github.com/roach88/presence/internal/rpc"
)

// Presence converts the activity block. A config without one yields an
// empty presence.
func (c *Config) Presence() activity.Presence {
	var p activity.Presence
	a := c.Activity
	if a == nil {
		return p
	}

	p.State = optional(a.State)
	p.Details = optional(a.Details)
	if a.Instance != nil {
		p.Instance = rpc.Bool(*a.Instance)
	}
	if as := a.Assets; as != nil {
		p.Assets = &rpc.Assets{
			LargeImage: as.LargeImage,
			LargeText:  as.LargeText,
			SmallImage: as.SmallImage,
			SmallText:  as.SmallText,
		}
	}
	if pc := a.Party; pc != nil {
		p.Party = &rpc.Party{ID: pc.ID}
		if pc.Max > 0 {
			p.Party.Size = &rpc.PartySize{Current: pc.Size, Max: pc.Max}
		}
	}
	if s := a.Secrets; s != nil {
		p.Secrets = &rpc.Secrets{Join: s.Join, Spectate: s.Spectate, Match: s.Match}
	}
	for _, b := range a.Buttons {
		p.Buttons = append(p.Buttons, rpc.Button{Label: b.Label, URL: b.URL})
	}
	return p
}

// ApplyTo replaces the snapshot's presence with the activity block, keeping
// its timestamps so an elapsed timer survives reloads.
func (c *Config) ApplyTo(s *activity.Snapshot) {
	p := c.Presence()
	s.Update(func(cur *activity.Presence) {
		p.Timestamps = cur.Timestamps
		*cur = p
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
