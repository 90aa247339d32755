package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/presence/internal/activity"
	"github.com/roach88/presence/internal/config"
	"github.com/roach88/presence/internal/engine"
	"github.com/roach88/presence/internal/event"
	"github.com/roach88/presence/internal/rpc"
	"github.com/roach88/presence/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	NoWatch    bool

	// Dialer allows overriding the IPC transport (for testing).
	// If nil, defaults to rpc.DialSocket.
	Dialer rpc.Dialer
}

// clearTimeout bounds the presence clear on shutdown.
const clearTimeout = time.Second

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync the presence until interrupted",
		Long: `Start the presence sync with the given config.

The host applies the config's activity block, connects to the local Discord
client (reconnecting with backoff while it is unavailable) and resubmits the
presence whenever it changes. Edits to the config file are picked up while
running. Events reported by Discord are logged and, when a journal is
configured, recorded in SQLite.

Example:
  presence run --config ./presence.yaml
  presence run --config ./presence.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresence(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (required)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "do not reload the config on change")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runPresence(opts *RunOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	slog.Info("loading config", "path", opts.ConfigPath)
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	var journal *store.Store
	if cfg.Journal != "" {
		slog.Info("opening journal", "path", cfg.Journal)
		journal, err = store.Open(cfg.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := journal.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
	}

	snapshot := activity.NewSnapshot()
	cfg.ApplyTo(snapshot)

	clientOpts := []rpc.Option{}
	if opts.Dialer != nil {
		clientOpts = append(clientOpts, rpc.WithDialer(opts.Dialer))
	}
	client := rpc.New(cfg.Identifier, clientOpts...)
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Error("error closing presence client", "error", closeErr)
		}
	}()

	engineOpts := []engine.EngineOption{
		engine.WithShowTime(cfg.ShowTime),
		engine.WithLogger(slog.Default()),
	}
	if journal != nil {
		engineOpts = append(engineOpts, engine.WithJournal(journal))
	}
	eng := engine.New(client, snapshot, engineOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if !opts.NoWatch {
		go func() {
			err := config.Watch(ctx, opts.ConfigPath, func(next *config.Config) {
				applyReload(cfg, next, snapshot)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("config watch stopped", "error", err)
			}
		}()
	}

	var sink EventJournal
	if journal != nil {
		sink = journal
	}
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		consumeEvents(ctx, snapshot.Events(), sink, cfg.TickInterval)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Presence sync started for application %d.\n", cfg.Identifier)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	resubmitOnReady(client, snapshot)
	// The connection outlives ctx so the presence can be cleared on the way out.
	eng.Startup(context.WithoutCancel(ctx))

	runErr := eng.Run(ctx, cfg.TickInterval)
	<-drainDone
	clearPresence(client)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}

	slog.Info("presence sync stopped gracefully")
	return nil
}

// resubmitOnReady marks the snapshot changed each time a connection becomes
// ready, so the next tick delivers the current presence to it.
func resubmitOnReady(client *rpc.Client, snapshot *activity.Snapshot) {
	client.OnEvent(event.Ready, func(event.Event, json.RawMessage) {
		snapshot.Update(func(*activity.Presence) {})
		slog.Debug("presence client ready, resubmitting", "version", snapshot.Version())
	})
}

// clearPresence removes the presence before the client disconnects.
func clearPresence(client *rpc.Client) {
	if !client.Connected() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	defer cancel()
	if err := client.ClearActivity(ctx); err != nil {
		slog.Warn("failed to clear presence", "error", err)
		return
	}
	slog.Info("presence cleared")
}

// applyReload installs the reloaded activity. Settings read only at startup
// are reported and otherwise ignored.
func applyReload(current, next *config.Config, snapshot *activity.Snapshot) {
	if next.Identifier != current.Identifier {
		slog.Warn("identifier changed, restart to apply", "current", current.Identifier, "next", next.Identifier)
	}
	if next.ShowTime != current.ShowTime {
		slog.Warn("show_time changed, restart to apply", "current", current.ShowTime, "next", next.ShowTime)
	}
	if next.TickInterval != current.TickInterval {
		slog.Warn("tick_interval changed, restart to apply", "current", current.TickInterval, "next", next.TickInterval)
	}
	if next.Journal != current.Journal {
		slog.Warn("journal changed, restart to apply", "current", current.Journal, "next", next.Journal)
	}
	next.ApplyTo(snapshot)
	slog.Info("config reloaded", "version", snapshot.Version())
}

// EventJournal records consumed events. Implemented by store.Store.
type EventJournal interface {
	WriteEvent(ctx context.Context, ev event.Event, at time.Time) error
}

// consumeEvents drains queue every interval until ctx is done, then once
// more. Each event is logged and journaled when sink is non-nil.
func consumeEvents(ctx context.Context, queue event.SharedQueue, sink EventJournal, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainEvents(context.Background(), queue, sink)
			return
		case <-ticker.C:
			drainEvents(ctx, queue, sink)
		}
	}
}

// drainEvents consumes every queued event, oldest first. Returns how many
// were consumed.
func drainEvents(ctx context.Context, queue event.SharedQueue, sink EventJournal) int {
	n := 0
	for {
		ev, ok := queue.Respond()
		if !ok {
			return n
		}
		n++

		switch ev {
		case event.ActivityJoinRequest:
			slog.Warn("join request received, not answered", "event", ev)
		case event.Error:
			slog.Warn("presence client reported an error", "event", ev)
		default:
			slog.Info("presence event", "event", ev)
		}

		if sink == nil {
			continue
		}
		if err := sink.WriteEvent(ctx, ev, time.Now()); err != nil {
			slog.Warn("journal write failed", "event", ev, "error", err)
		}
	}
}
