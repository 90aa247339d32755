package rpc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_EmptyActivity(t *testing.T) {
	assert.NoError(t, Validate(Activity{}))
}

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		field    string
	}{
		{
			name:     "details too short",
			activity: Activity{Details: String("x")},
			field:    "details",
		},
		{
			name:     "state too long",
			activity: Activity{State: String(strings.Repeat("a", MaxTextLen+1))},
			field:    "state",
		},
		{
			name: "end before start",
			activity: Activity{Timestamps: &Timestamps{
				Start: Uint64(200),
				End:   Uint64(100),
			}},
			field: "timestamps.end",
		},
		{
			name:     "large text too long",
			activity: Activity{Assets: &Assets{LargeText: strings.Repeat("b", MaxTextLen+1)}},
			field:    "assets.large_text",
		},
		{
			name:     "party current exceeds max",
			activity: Activity{Party: &Party{Size: &PartySize{Current: 5, Max: 4}}},
			field:    "party.size",
		},
		{
			name:     "party zero max",
			activity: Activity{Party: &Party{Size: &PartySize{Current: 0, Max: 0}}},
			field:    "party.size",
		},
		{
			name:     "large image key too long",
			activity: Activity{Assets: &Assets{LargeImage: strings.Repeat("k", MaxAssetKeyLen+1)}},
			field:    "assets.large_image",
		},
		{
			name:     "spectate secret too long",
			activity: Activity{Secrets: &Secrets{Spectate: strings.Repeat("s", MaxSecretLen+1)}},
			field:    "secrets.spectate",
		},
		{
			name: "too many buttons",
			activity: Activity{Buttons: []Button{
				{Label: "One", URL: "https://example.com/1"},
				{Label: "Two", URL: "https://example.com/2"},
				{Label: "Three", URL: "https://example.com/3"},
			}},
			field: "buttons",
		},
		{
			name:     "empty button label",
			activity: Activity{Buttons: []Button{{Label: "", URL: "https://example.com"}}},
			field:    "buttons[0].label",
		},
		{
			name:     "relative button url",
			activity: Activity{Buttons: []Button{{Label: "Docs", URL: "/docs"}}},
			field:    "buttons[0].url",
		},
		{
			name: "second button label too long",
			activity: Activity{Buttons: []Button{
				{Label: "Ok", URL: "https://example.com"},
				{Label: strings.Repeat("l", MaxLabelLen+1), URL: "https://example.com"},
			}},
			field: "buttons[1].label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.activity)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_FullActivity(t *testing.T) {
	a := Activity{
		State:      String("In a match"),
		Details:    String("Ranked"),
		Instance:   Bool(true),
		Timestamps: &Timestamps{Start: Uint64(100)},
		Assets:     &Assets{LargeImage: "map", LargeText: "Map"},
		Party:      &Party{ID: "p1", Size: &PartySize{Current: 1, Max: 4}},
		Buttons: []Button{
			{Label: "Website", URL: "https://example.com"},
			{Label: "Discord", URL: "http://example.com/invite"},
		},
	}
	assert.NoError(t, Validate(a))
}

func TestValidate_CountsRunesAfterNormalization(t *testing.T) {
	// "é" as e + combining acute is two runes before NFC and one after.
	decomposed := strings.Repeat("e\u0301", MaxTextLen)
	assert.NoError(t, Validate(Activity{Details: String(decomposed)}))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	details := "Cafe\u0301"
	a := Activity{
		Details: &details,
		Buttons: []Button{{Label: "Cafe\u0301", URL: "https://example.com"}},
	}

	out := Normalize(a)

	assert.Equal(t, "Caf\u00e9", *out.Details)
	assert.Equal(t, "Caf\u00e9", out.Buttons[0].Label)
	assert.Equal(t, "Cafe\u0301", details)
	assert.Equal(t, "Cafe\u0301", a.Buttons[0].Label)
}

func TestValidate_AssetKeyAtLimit(t *testing.T) {
	assert.Equal(t, 128, MaxAssetKeyLen)
	assert.NoError(t, Validate(Activity{Assets: &Assets{SmallImage: strings.Repeat("k", MaxAssetKeyLen)}}))
}

func TestNormalize_Secrets(t *testing.T) {
	join := "join-e\u0301"
	a := Activity{Secrets: &Secrets{Join: join, Spectate: "spec-e\u0301", Match: "match"}}

	out := Normalize(a)

	require.NotNil(t, out.Secrets)
	assert.Equal(t, "join-\u00e9", out.Secrets.Join)
	assert.Equal(t, "spec-\u00e9", out.Secrets.Spectate)
	assert.Equal(t, "match", out.Secrets.Match)
	assert.Equal(t, join, a.Secrets.Join)
}

func TestValidate_SecretCountedAfterNormalization(t *testing.T) {
	decomposed := strings.Repeat("e\u0301", MaxSecretLen)
	assert.NoError(t, Validate(Activity{Secrets: &Secrets{Match: decomposed}}))
}
