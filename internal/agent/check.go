package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const versionTimeout = 15 * time.Second

// CheckBinary verifies that the agent's binary resolves on PATH and answers
// --version. It returns the reported version.
func (a Agent) CheckBinary(ctx context.Context) (string, error) {
	path, err := exec.LookPath(a.Binary)
	if err != nil {
		return "", &BinaryError{Binary: a.Binary, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", &BinaryError{Binary: a.Binary, Err: fmt.Errorf("running --version: %w", err)}
	}
	return firstLine(string(out)), nil
}

// CheckBinaries checks every agent concurrently and returns the first
// failure.
func CheckBinaries(ctx context.Context, logger *slog.Logger, agents ...Agent) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range agents {
		g.Go(func() error {
			version, err := a.CheckBinary(ctx)
			if err != nil {
				return err
			}
			if logger != nil {
				logger.Debug("agent available", "agent", a.Role.String(), "binary", a.Binary, "version", version)
			}
			return nil
		})
	}
	return g.Wait()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
