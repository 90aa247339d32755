package rpc

import (
	"fmt"
	"net/url"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Limits enforced by the external process, counted in runes after NFC
// normalization.
const (
	MinTextLen     = 2
	MaxTextLen     = 128
	MaxAssetKeyLen = 128
	MaxSecretLen   = 128
	MaxLabelLen    = 32
	MaxURLLen      = 512
)

// Normalize returns a copy of a with every string converted to NFC, so that
// the same visible text always produces the same payload.
func Normalize(a Activity) Activity {
	out := a
	if a.State != nil {
		out.State = String(norm.NFC.String(*a.State))
	}
	if a.Details != nil {
		out.Details = String(norm.NFC.String(*a.Details))
	}
	if a.Assets != nil {
		assets := *a.Assets
		assets.LargeImage = norm.NFC.String(assets.LargeImage)
		assets.LargeText = norm.NFC.String(assets.LargeText)
		assets.SmallImage = norm.NFC.String(assets.SmallImage)
		assets.SmallText = norm.NFC.String(assets.SmallText)
		out.Assets = &assets
	}
	if a.Party != nil {
		party := *a.Party
		party.ID = norm.NFC.String(party.ID)
		out.Party = &party
	}
	if a.Secrets != nil {
		secrets := *a.Secrets
		secrets.Join = norm.NFC.String(secrets.Join)
		secrets.Spectate = norm.NFC.String(secrets.Spectate)
		secrets.Match = norm.NFC.String(secrets.Match)
		out.Secrets = &secrets
	}
	if a.Buttons != nil {
		out.Buttons = make([]Button, len(a.Buttons))
		for i, b := range a.Buttons {
			out.Buttons[i] = Button{Label: norm.NFC.String(b.Label), URL: b.URL}
		}
	}
	return out
}

// Validate checks a against the limits of the external process.
// Returns a *ValidationError naming the first offending field.
func Validate(a Activity) error {
	a = Normalize(a)

	if a.State != nil {
		if err := checkText("state", *a.State, MinTextLen, MaxTextLen); err != nil {
			return err
		}
	}
	if a.Details != nil {
		if err := checkText("details", *a.Details, MinTextLen, MaxTextLen); err != nil {
			return err
		}
	}

	if ts := a.Timestamps; ts != nil && ts.Start != nil && ts.End != nil && *ts.End < *ts.Start {
		return &ValidationError{Field: "timestamps.end", Reason: "before start"}
	}

	if as := a.Assets; as != nil {
		checks := []struct {
			field string
			value string
			max   int
		}{
			{"assets.large_image", as.LargeImage, MaxAssetKeyLen},
			{"assets.large_text", as.LargeText, MaxTextLen},
			{"assets.small_image", as.SmallImage, MaxAssetKeyLen},
			{"assets.small_text", as.SmallText, MaxTextLen},
		}
		for _, c := range checks {
			if err := checkText(c.field, c.value, 0, c.max); err != nil {
				return err
			}
		}
	}

	if p := a.Party; p != nil {
		if err := checkText("party.id", p.ID, 0, MaxTextLen); err != nil {
			return err
		}
		if p.Size != nil {
			if p.Size.Current < 0 || p.Size.Max <= 0 {
				return &ValidationError{Field: "party.size", Reason: "sizes must be positive"}
			}
			if p.Size.Current > p.Size.Max {
				return &ValidationError{Field: "party.size", Reason: fmt.Sprintf("current %d exceeds max %d", p.Size.Current, p.Size.Max)}
			}
		}
	}

	if s := a.Secrets; s != nil {
		checks := [][2]string{
			{"secrets.join", s.Join},
			{"secrets.spectate", s.Spectate},
			{"secrets.match", s.Match},
		}
		for _, c := range checks {
			if err := checkText(c[0], c[1], 0, MaxSecretLen); err != nil {
				return err
			}
		}
	}

	if len(a.Buttons) > MaxButtons {
		return &ValidationError{Field: "buttons", Reason: fmt.Sprintf("%d buttons, at most %d allowed", len(a.Buttons), MaxButtons)}
	}
	for i, b := range a.Buttons {
		if err := checkText(fmt.Sprintf("buttons[%d].label", i), b.Label, 1, MaxLabelLen); err != nil {
			return err
		}
		if err := checkURL(fmt.Sprintf("buttons[%d].url", i), b.URL); err != nil {
			return err
		}
	}

	return nil
}

func checkText(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%d characters, at least %d required", n, minLen)}
	}
	if n > maxLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%d characters, at most %d allowed", n, maxLen)}
	}
	return nil
}

func checkURL(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "empty"}
	}
	if len(value) > MaxURLLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("longer than %d bytes", MaxURLLen)}
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: field, Reason: "must be an absolute http(s) URL"}
	}
	return nil
}
