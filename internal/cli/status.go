package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/roach88/presence/internal/rpc"
)

// discordProcessNames are the executable names of the Discord desktop
// client builds.
var discordProcessNames = []string{
	"Discord",
	"discord",
	"DiscordCanary",
	"discord-canary",
	"DiscordPTB",
	"discord-ptb",
}

// ProcessInfo identifies a running Discord client.
type ProcessInfo struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`
}

// StatusResult reports whether a presence can be published.
type StatusResult struct {
	DiscordRunning bool          `json:"discord_running"`
	Processes      []ProcessInfo `json:"processes"`
	SocketFound    bool          `json:"socket_found"`
	Socket         string        `json:"socket,omitempty"`
}

// Overridable for testing.
var (
	listDiscordProcesses = findDiscordProcesses
	findSocket           = rpc.FindSocket
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether Discord is reachable",
		Long: `Report whether a Discord client is running and which IPC socket the
presence sync would connect to.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	procs, err := listDiscordProcesses(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeProcessScan, "failed to list processes", err.Error())
		return WrapExitError(ExitFailure, "failed to list processes", err)
	}
	if procs == nil {
		procs = []ProcessInfo{}
	}

	result := StatusResult{
		DiscordRunning: len(procs) > 0,
		Processes:      procs,
	}
	result.Socket, result.SocketFound = findSocket()
	if !result.SocketFound {
		formatter.VerboseLog("Searched %d socket paths", len(rpc.SocketCandidates()))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	out := formatter.Writer
	if result.DiscordRunning {
		for _, p := range procs {
			fmt.Fprintf(out, "✓ Discord running: %s (pid %d)\n", p.Name, p.PID)
		}
	} else {
		fmt.Fprintln(out, "✗ Discord not running")
	}
	if result.SocketFound {
		fmt.Fprintf(out, "✓ IPC socket: %s\n", result.Socket)
	} else {
		fmt.Fprintln(out, "✗ IPC socket not found")
	}
	return nil
}

// findDiscordProcesses scans the process table for Discord clients.
// Processes that exit or deny access during the scan are skipped.
func findDiscordProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var found []ProcessInfo
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if slices.Contains(discordProcessNames, name) {
			found = append(found, ProcessInfo{PID: p.Pid, Name: name})
		}
	}
	return found, nil
}
