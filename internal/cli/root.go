// Package cli defines Cobra command definitions for the leonard CLI.
// This file contains the root command, which runs a relay session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/tui"
	"github.com/rsdouglas/leonard/internal/tui/app"
	"github.com/rsdouglas/leonard/internal/ui"
)

var (
	cwdFlag             string
	taskFlag            string
	maxTurnsFlag        int
	stripANSIFlag       bool
	maxForwardBytesFlag int
	continueFlag        bool
	logFileFlag         string
	batchFlag           bool
	verbose             bool
	version             = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "leonard",
	Short: "Relay a coding task between a producer agent and a reviewer agent",
	Long: `Leonard gives a task to a producer agent (claude), hands its output to a
reviewer agent (codex) for critique, and feeds the critique back until the
reviewer answers ALL_DONE or the turn limit is reached.

On a terminal it opens an interactive dashboard. Otherwise, or with --batch,
both agents' output is streamed to stdout.

The task comes from --task, from the context file (leonard.md by default) in
the working directory, or both.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          runRoot,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cwdFlag, "cwd", "", "Working directory for both agents (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug detail")

	flags := rootCmd.Flags()
	flags.StringVar(&taskFlag, "task", "", "Task for the producer")
	flags.IntVar(&maxTurnsFlag, "max-turns", 10, "Stop after this many reviewer replies (0 = unlimited)")
	flags.BoolVar(&stripANSIFlag, "strip-ansi", true, "Strip terminal escape sequences from forwarded text")
	flags.IntVar(&maxForwardBytesFlag, "max-forward-bytes", 100000, "Cap on the bytes forwarded between agents (0 = no cap)")
	flags.BoolVarP(&continueFlag, "continue", "c", false, "Resume both agents' previous sessions")
	flags.StringVar(&logFileFlag, "log-file", "", "Append a JSONL debug log of every prompt and reply to this file")
	flags.BoolVar(&batchFlag, "batch", false, "Stream output to stdout even on a terminal")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(logCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := !batchFlag && tui.IsTTY()

	s, err := newSession(cmd, interactive)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.preflight(ctx); err != nil {
		return err
	}

	if interactive {
		return runInteractive(ctx, s)
	}
	return runBatch(ctx, cmd, s)
}

// runBatch relays without user interaction, echoing both agents' output.
func runBatch(ctx context.Context, cmd *cobra.Command, s *session) error {
	printer := ui.NewPrinter(cmd.OutOrStdout())
	b := &relay.Batch{
		Machine:  relay.NewMachine(s.opts, s.logger),
		Producer: agent.NewRunner(s.producer, s.logger),
		Reviewer: agent.NewRunner(s.reviewer, s.logger),
		Reporter: printer,
		DebugLog: s.debugLog,
		Logger:   s.logger,
	}

	s.logger.Info("relay starting", "dir", s.opts.Dir, "max_turns", s.opts.MaxTurns, "context_file", s.ws.ContextPath)
	reason, err := b.Run(ctx)
	if err != nil {
		return err
	}
	printer.Summary(reason, b.Machine.Turn())
	return nil
}

// runInteractive opens the dashboard. An interrupt shuts it down cleanly.
func runInteractive(ctx context.Context, s *session) error {
	m := app.New(ctx, app.Config{
		Machine:  relay.NewMachine(s.opts, s.logger),
		Producer: agent.NewRunner(s.producer, s.logger),
		Reviewer: agent.NewRunner(s.reviewer, s.logger),
		DebugLog: s.debugLog,
		Logger:   s.logger,
	})
	if err := tui.Run(ctx, m); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
