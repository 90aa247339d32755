package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/presence/internal/config"
	"github.com/roach88/presence/internal/rpc"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool          `json:"valid"`
	Identifier   uint64        `json:"identifier,omitempty"`
	TickInterval string        `json:"tick_interval,omitempty"`
	ShowTime     bool          `json:"show_time"`
	Journal      string        `json:"journal,omitempty"`
	Errors       []ConfigIssue `json:"errors,omitempty"`
}

// ConfigIssue is one reason a config was rejected.
type ConfigIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a presence config",
		Long: `Validate a presence config without connecting to Discord.

Decodes the YAML, applies PRESENCE_* environment overrides, checks the result
against the config schema and checks the activity block against the limits
Discord enforces.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("config not found: %s", path), nil)
		}
		return outputValidateError(formatter, ErrCodeConfigParse, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %s (identifier %d, tick interval %s)", path, cfg.Identifier, cfg.TickInterval)

	if err := cfg.Validate(); err != nil {
		return outputValidationIssue(formatter, classifyConfigError(err))
	}

	return outputValidateSuccess(formatter, cfg)
}

// classifyConfigError maps a Validate error to a CLI issue.
func classifyConfigError(err error) ConfigIssue {
	var schemaErr *config.SchemaError
	if errors.As(err, &schemaErr) {
		return ConfigIssue{Code: ErrCodeSchema, Field: schemaErr.Path, Message: schemaErr.Message}
	}
	var valErr *rpc.ValidationError
	if errors.As(err, &valErr) {
		return ConfigIssue{Code: ErrCodeActivity, Field: "activity." + valErr.Field, Message: valErr.Reason}
	}
	return ConfigIssue{Code: ErrCodeGeneric, Message: err.Error()}
}

func outputValidateSuccess(formatter *OutputFormatter, cfg *config.Config) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:        true,
			Identifier:   cfg.Identifier,
			TickInterval: cfg.TickInterval.String(),
			ShowTime:     cfg.ShowTime,
			Journal:      cfg.Journal,
		})
	}

	fmt.Fprintln(formatter.Writer, "✓ Config valid")
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable configs are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssue outputs the reason a config was rejected.
func outputValidationIssue(formatter *OutputFormatter, issue ConfigIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: []ConfigIssue{issue},
			},
			Error: &CLIError{
				Code:    issue.Code,
				Message: issue.Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", issue.Code))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	if issue.Field != "" {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", issue.Code, issue.Field, issue.Message)
	} else {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", issue.Code))
}
