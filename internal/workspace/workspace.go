// Package workspace resolves the directory a relay session runs in, along
// with the optional context file and .env credentials found there.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNotDirectory is returned when the working directory is missing or is
// not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Workspace is a validated working directory.
type Workspace struct {
	// Dir is the absolute working directory both agents run in.
	Dir string
	// Context holds the context file's contents, or "" when the file is
	// absent or blank.
	Context string
	// ContextPath is where the context file was looked up.
	ContextPath string
}

// Open validates dir (the process working directory when empty) and loads
// dir/.env without overriding variables already set.
func Open(dir string) (*Workspace, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("working directory does not exist: %s: %w", abs, ErrNotDirectory)
	case err != nil:
		return nil, fmt.Errorf("checking working directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("path is not a directory: %s: %w", abs, ErrNotDirectory)
	}

	if err := loadEnv(abs); err != nil {
		return nil, err
	}
	return &Workspace{Dir: abs}, nil
}

// LoadContext reads the context file and returns its contents. A relative
// name is resolved against Dir; "" disables the context file. A file that
// is missing or blank yields "", and one that cannot be read is logged and
// treated as absent. A nil logger discards output.
func (w *Workspace) LoadContext(name string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w.Context = ""
	w.ContextPath = ""
	if name == "" {
		return ""
	}

	w.ContextPath = name
	if !filepath.IsAbs(name) {
		w.ContextPath = filepath.Join(w.Dir, name)
	}
	data, err := os.ReadFile(w.ContextPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		logger.Warn("failed to read context file", "path", w.ContextPath, "error", err)
	case strings.TrimSpace(string(data)) != "":
		w.Context = string(data)
		logger.Debug("context loaded", "path", w.ContextPath, "chars", len([]rune(w.Context)))
	}
	return w.Context
}

// loadEnv reads dir/.env if present. godotenv.Load never overrides
// variables that are already set.
func loadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
