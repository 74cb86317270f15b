package agent

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPrompt is returned before spawning when the prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrCanceled is returned when the invocation's context was canceled
	// and the child was killed.
	ErrCanceled = errors.New("interrupted by user")
)

// ExitError reports a child that exited with a nonzero status.
type ExitError struct {
	Agent    string
	Code     int
	Stderr   string
	Unparsed []string
}

func (e *ExitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with status %d", e.Agent, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, "\nstderr: %s", s)
	}
	if len(e.Unparsed) > 0 {
		fmt.Fprintf(&b, "\noutput: %s", strings.Join(e.Unparsed, "\n"))
	}
	return b.String()
}

// BinaryError reports an agent binary that cannot be found or run.
type BinaryError struct {
	Binary string
	Err    error
}

func (e *BinaryError) Error() string {
	return fmt.Sprintf("binary %q not found on PATH or not executable: %v", e.Binary, e.Err)
}

func (e *BinaryError) Unwrap() error {
	return e.Err
}
