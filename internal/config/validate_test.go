package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/presence/internal/rpc"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Identifier = 1234
	cfg.Activity = &ActivityConfig{
		State:   "In a match",
		Details: "Ranked 2v2",
		Party:   &PartyConfig{ID: "party-7", Size: 2, Max: 4},
		Buttons: []ButtonConfig{
			{Label: "Website", URL: "https://example.com"},
			{Label: "Discord", URL: "https://example.com/invite"},
		},
	}
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
	assert.NoError(t, (&Config{Identifier: 1, TickInterval: time.Second}).Validate())
}

func TestValidate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{
			name:   "missing identifier",
			mutate: func(c *Config) { c.Identifier = 0 },
			path:   "identifier",
		},
		{
			name:   "zero tick interval",
			mutate: func(c *Config) { c.TickInterval = 0 },
			path:   "tick_interval",
		},
		{
			name:   "negative tick interval",
			mutate: func(c *Config) { c.TickInterval = -time.Second },
			path:   "tick_interval",
		},
		{
			name: "too many buttons",
			mutate: func(c *Config) {
				c.Activity.Buttons = append(c.Activity.Buttons, ButtonConfig{Label: "More", URL: "https://example.com/more"})
			},
			path: "activity.buttons",
		},
		{
			name:   "empty button label",
			mutate: func(c *Config) { c.Activity.Buttons[0].Label = "" },
			path:   "activity.buttons",
		},
		{
			name:   "negative party size",
			mutate: func(c *Config) { c.Activity.Party.Size = -1 },
			path:   "activity.party.size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Path, tt.path)
		})
	}
}

func TestValidate_ActivityLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "state too short",
			mutate: func(c *Config) { c.Activity.State = "x" },
			field:  "state",
		},
		{
			name:   "party larger than max",
			mutate: func(c *Config) { c.Activity.Party.Size = 5 },
			field:  "party.size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, rpc.IsValidationError(err))

			var valErr *rpc.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestSchemaError_Error(t *testing.T) {
	assert.Equal(t, "identifier: out of bound", (&SchemaError{Path: "identifier", Message: "out of bound"}).Error())
	assert.Equal(t, "conflict", (&SchemaError{Message: "conflict"}).Error())
}
