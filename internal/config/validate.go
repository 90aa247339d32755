package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/presence/internal/activity"
	"github.com/roach88/presence/internal/rpc"
)

//go:embed schema.cue
var schemaSource string

// SchemaError is a config value rejected by the schema.
type SchemaError struct {
	// Path is the dotted location of the value, e.g. "activity.buttons".
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks c against the config schema, then checks the activity
// block against the limits of the presence service.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	doc := ctx.Encode(c.document())
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err)
	}

	if c.Activity != nil {
		if err := rpc.Validate(activity.ToWire(c.Presence())); err != nil {
			return fmt.Errorf("activity: %w", err)
		}
	}
	return nil
}

// formatSchemaError keeps the first CUE error, with its path.
func formatSchemaError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}

// document is the schema-facing form of c. Durations are nanoseconds and
// unset optional blocks are omitted.
func (c *Config) document() map[string]any {
	doc := map[string]any{
		"identifier":    c.Identifier,
		"show_time":     c.ShowTime,
		"tick_interval": int64(c.TickInterval),
	}
	if c.Journal != "" {
		doc["journal"] = c.Journal
	}
	if a := c.Activity; a != nil {
		doc["activity"] = a.document()
	}
	return doc
}

func (a *ActivityConfig) document() map[string]any {
	doc := map[string]any{}
	if a.State != "" {
		doc["state"] = a.State
	}
	if a.Details != "" {
		doc["details"] = a.Details
	}
	if a.Instance != nil {
		doc["instance"] = *a.Instance
	}
	if as := a.Assets; as != nil {
		doc["assets"] = map[string]any{
			"large_image": as.LargeImage,
			"large_text":  as.LargeText,
			"small_image": as.SmallImage,
			"small_text":  as.SmallText,
		}
	}
	if p := a.Party; p != nil {
		doc["party"] = map[string]any{
			"id":   p.ID,
			"size": p.Size,
			"max":  p.Max,
		}
	}
	if s := a.Secrets; s != nil {
		doc["secrets"] = map[string]any{
			"join":     s.Join,
			"spectate": s.Spectate,
			"match":    s.Match,
		}
	}
	if a.Buttons != nil {
		buttons := make([]any, len(a.Buttons))
		for i, b := range a.Buttons {
			buttons[i] = map[string]any{"label": b.Label, "url": b.URL}
		}
		doc["buttons"] = buttons
	}
	return doc
}
