package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/textutil"
	"github.com/rsdouglas/leonard/internal/transcript"
)

// waitDelay bounds how long Wait keeps draining pipes after the child was
// killed, in case a grandchild still holds them open.
const waitDelay = 2 * time.Second

// Result is what an invocation produced.
type Result struct {
	Items    []transcript.ContentItem
	Stderr   string
	Unparsed []string
	CostUSD  float64
	Duration time.Duration
}

// Update is one message on the channel returned by Stream. Every stream ends
// with exactly one update with Done set.
type Update struct {
	Event  protocol.Event
	Done   bool
	Result *Result
	Err    error
}

// Runner runs invocations of one agent.
type Runner struct {
	agent  Agent
	logger *slog.Logger
}

// NewRunner returns a Runner for a. A nil logger discards log output.
func NewRunner(a Agent, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		agent:  a,
		logger: logger.With("agent", a.Role.String()),
	}
}

// Run spawns the agent, decodes its stdout line by line and calls onEvent
// for every event as soon as its line arrives. onEvent runs on the goroutine
// draining stdout and may be nil.
//
// A non-nil Result is returned whenever the child was started, including on
// failure, so partial output can be kept. A nonzero exit yields an
// *ExitError; a canceled ctx yields an error wrapping ErrCanceled.
func (r *Runner) Run(ctx context.Context, inv Invocation, onEvent func(protocol.Event)) (*Result, error) {
	if strings.TrimSpace(inv.Prompt) == "" {
		return nil, fmt.Errorf("%s: %w", r.agent.Name(), ErrEmptyPrompt)
	}

	cmd := exec.CommandContext(ctx, r.agent.Binary, r.agent.Args(inv)...)
	cmd.Dir = inv.Dir
	cmd.Env = r.agent.environ()
	cmd.WaitDelay = waitDelay

	var (
		buf      transcript.Buffer
		unparsed []string
		stderr   []string
		cost     float64
	)
	buf.Start(r.agent.Role)
	decoder := r.agent.newDecoder()

	stdout := newLineWriter(func(line []byte) {
		events, err := decoder.Decode(line)
		if err != nil {
			r.logger.Debug("unparsed stdout line", "error", err, "line", textutil.TruncateLine(string(line), 100))
			unparsed = append(unparsed, string(line))
			return
		}
		for _, ev := range events {
			if ev.Kind == protocol.EventResult {
				cost = ev.CostUSD
			}
			ev.Apply(&buf)
			if onEvent != nil {
				onEvent(ev)
			}
		}
	})
	errw := newLineWriter(func(line []byte) {
		r.logger.Debug("stderr", "line", string(line))
		stderr = append(stderr, string(line))
	})
	cmd.Stdout = stdout
	cmd.Stderr = errw

	r.logger.Debug("spawning", "binary", r.agent.Binary, "continue", inv.Continue, "prompt_bytes", len(inv.Prompt))
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", r.agent.Name(), err)
	}

	waitErr := cmd.Wait()
	// After WaitDelay a copy goroutine may still be writing; closing stops
	// the callbacks before their state is read.
	stdout.Close()
	errw.Close()

	res := &Result{
		Items:    buf.Items(),
		Stderr:   strings.Join(stderr, "\n"),
		Unparsed: unparsed,
		CostUSD:  cost,
		Duration: time.Since(started),
	}

	if ctx.Err() != nil {
		r.logger.Info("killed", "reason", ctx.Err())
		return res, fmt.Errorf("%s: %w", r.agent.Name(), ErrCanceled)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, &ExitError{
				Agent:    r.agent.Name(),
				Code:     exitErr.ExitCode(),
				Stderr:   res.Stderr,
				Unparsed: unparsed,
			}
		}
		return res, fmt.Errorf("waiting for %s: %w", r.agent.Name(), waitErr)
	}

	r.logger.Debug("finished", "items", len(res.Items), "duration", res.Duration, "cost_usd", cost)
	return res, nil
}

// Stream runs the invocation on a new goroutine and delivers its events over
// the returned channel in output order, followed by a final Done update. The
// channel is closed after the Done update. If ctx is canceled while the
// channel is full, the Done update may be dropped.
func (r *Runner) Stream(ctx context.Context, inv Invocation) <-chan Update {
	ch := make(chan Update, 64)
	go func() {
		defer close(ch)
		res, err := r.Run(ctx, inv, func(ev protocol.Event) {
			select {
			case ch <- Update{Event: ev}:
			case <-ctx.Done():
			}
		})
		done := Update{Done: true, Result: res, Err: err}
		select {
		case ch <- done:
		default:
			select {
			case ch <- done:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}
