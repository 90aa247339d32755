package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/presence/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryResult is the journal content printed by history.
type HistoryResult struct {
	Events      []store.EventRecord `json:"events"`
	Submissions []store.Submission  `json:"submissions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled events and submissions",
		Long: `Show the events and presence submissions recorded by "presence run"
when a journal is configured. Newest entries are shown first.

Example:
  presence history --db ./presence.db
  presence history --db ./presence.db --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "entries per table (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Open would create an empty journal; a typo should not.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		msg := fmt.Sprintf("journal not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, "failed to open journal", err.Error())
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := readHistory(ctx, st, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, "failed to read journal", err.Error())
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	formatter.VerboseLog("Read %d event(s), %d submission(s)", len(result.Events), len(result.Submissions))

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	out := formatter.Writer
	fmt.Fprintln(out, "Events:")
	if len(result.Events) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, e := range result.Events {
		fmt.Fprintf(out, "  %s  %s\n", e.ReceivedAt.Format(time.RFC3339), e.KindName)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Submissions:")
	if len(result.Submissions) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, s := range result.Submissions {
		status := "ok"
		if !s.OK {
			status = "failed: " + s.Error
		}
		fmt.Fprintf(out, "  %s  v%d  %s\n", s.SubmittedAt.Format(time.RFC3339), s.Version, status)
	}
	return nil
}

func readHistory(ctx context.Context, st *store.Store, limit int) (HistoryResult, error) {
	events, err := st.ReadEvents(ctx, limit)
	if err != nil {
		return HistoryResult{}, err
	}
	subs, err := st.ReadSubmissions(ctx, limit)
	if err != nil {
		return HistoryResult{}, err
	}
	return HistoryResult{Events: events, Submissions: subs}, nil
}
