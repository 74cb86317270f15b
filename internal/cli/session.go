package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/config"
	"github.com/rsdouglas/leonard/internal/log"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/workspace"
)

// session is a relay run resolved from flags, config file and working
// directory.
type session struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	opts     relay.Options
	producer agent.Agent
	reviewer agent.Agent
	logger   *slog.Logger
	debugLog *log.Logger

	closers []io.Closer
}

func newSession(cmd *cobra.Command, interactive bool) (*session, error) {
	ws, err := workspace.Open(cwdFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory: %w", err)
	}

	cfg, err := config.Load(ws.Dir)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)

	s := &session{cfg: cfg, ws: ws}
	if err := s.setupLogging(cmd, interactive); err != nil {
		return nil, err
	}

	ws.LoadContext(cfg.Relay.ContextFile, s.logger)
	task := strings.TrimSpace(taskFlag)
	if !interactive && task == "" && ws.Context == "" {
		s.Close()
		return nil, relay.ErrNoTask
	}

	s.opts = relay.Options{
		Task:            task,
		Context:         ws.Context,
		Dir:             ws.Dir,
		MaxTurns:        cfg.Relay.MaxTurns,
		MaxForwardBytes: cfg.Relay.MaxForwardBytes,
		StripANSI:       cfg.Relay.StripANSI,
		Resume:          continueFlag,
	}
	s.producer = agent.Producer(agent.Options{
		Binary:    cfg.Producer.Binary,
		EnvKey:    cfg.Producer.EnvKey,
		ExtraArgs: cfg.Producer.ExtraArgs,
	})
	s.reviewer = agent.Reviewer(agent.Options{
		Binary:    cfg.Reviewer.Binary,
		EnvKey:    cfg.Reviewer.EnvKey,
		ExtraArgs: cfg.Reviewer.ExtraArgs,
	})
	return s, nil
}

// applyFlags overlays explicitly set flags on cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-turns") {
		cfg.Relay.MaxTurns = maxTurnsFlag
	}
	if flags.Changed("max-forward-bytes") {
		cfg.Relay.MaxForwardBytes = maxForwardBytesFlag
	}
	if flags.Changed("strip-ansi") {
		cfg.Relay.StripANSI = stripANSIFlag
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFileFlag
	}
}

// setupLogging builds the operational logger and opens the debug log.
// Batch mode logs to stderr; the dashboard owns the terminal, so its logs go
// next to the debug log, or nowhere.
func (s *session) setupLogging(cmd *cobra.Command, interactive bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch {
	case !interactive:
		s.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
	case s.cfg.LogFile != "":
		path := s.cfg.LogFile + ".slog"
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		s.closers = append(s.closers, f)
		s.logger = slog.New(slog.NewTextHandler(f, opts))
	default:
		s.logger = slog.New(slog.DiscardHandler)
	}

	if s.cfg.LogFile != "" {
		debugLog, err := log.NewLogger(s.cfg.LogFile)
		if err != nil {
			s.Close()
			return err
		}
		s.debugLog = debugLog
		s.logger = s.logger.With("session", debugLog.Session())
		s.logger.Debug("debug log enabled", "path", debugLog.Path())
	}
	return nil
}

// preflight checks both agent binaries and warns about missing
// credentials. Missing credentials are not fatal.
func (s *session) preflight(ctx context.Context) error {
	if err := agent.CheckBinaries(ctx, s.logger, s.producer, s.reviewer); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	for _, a := range []agent.Agent{s.producer, s.reviewer} {
		if w := a.CredentialWarning(); w != "" {
			s.logger.Warn(w)
		}
	}
	s.logger.Debug("preflight checks passed")
	return nil
}

// Close releases open log files.
func (s *session) Close() error {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
	return nil
}
