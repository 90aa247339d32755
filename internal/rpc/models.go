package rpc

import (
	"encoding/json"
	"fmt"
)

// MaxButtons is the number of buttons the presence payload accepts.
const MaxButtons = 2

// Activity is the wire representation of a rich presence.
// A nil field is omitted from the payload, which hides that attribute.
type Activity struct {
	State      *string     `json:"state,omitempty"`
	Details    *string     `json:"details,omitempty"`
	Instance   *bool       `json:"instance,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Party      *Party      `json:"party,omitempty"`
	Secrets    *Secrets    `json:"secrets,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// Timestamps drive the elapsed/remaining timer. Values are unix seconds.
type Timestamps struct {
	Start *uint64 `json:"start,omitempty"`
	End   *uint64 `json:"end,omitempty"`
}

// Assets are the images shown next to the presence and their hover texts.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Party describes the group the user is in.
type Party struct {
	ID   string     `json:"id,omitempty"`
	Size *PartySize `json:"size,omitempty"`
}

// PartySize is encoded as a two-element array: [current, max].
type PartySize struct {
	Current int
	Max     int
}

// MarshalJSON encodes the size as [current, max].
func (p PartySize) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Current, p.Max})
}

// UnmarshalJSON decodes a [current, max] array.
func (p *PartySize) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("party size: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("party size: expected 2 elements, got %d", len(pair))
	}
	p.Current, p.Max = pair[0], pair[1]
	return nil
}

// Secrets are the opaque tokens used for join and spectate.
type Secrets struct {
	Join     string `json:"join,omitempty"`
	Spectate string `json:"spectate,omitempty"`
	Match    string `json:"match,omitempty"`
}

// Button is a clickable link shown under the presence.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// String returns a pointer to s, for optional activity fields.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Uint64 returns a pointer to v.
func Uint64(v uint64) *uint64 { return &v }
