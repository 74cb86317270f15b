package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/log"
	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/transcript"
)

// Streamer runs one invocation and streams its updates. *agent.Runner
// implements it.
type Streamer interface {
	Stream(ctx context.Context, inv agent.Invocation) <-chan agent.Update
}

// Reporter receives progress from a batch run for live display.
type Reporter interface {
	InvocationStarted(step Step)
	Event(role transcript.Role, ev protocol.Event)
	InvocationFinished(role transcript.Role, err error)
}

// Batch runs a whole relay session without user interaction.
type Batch struct {
	Machine  *Machine
	Producer Streamer
	Reviewer Streamer
	// Reporter and DebugLog are optional.
	Reporter Reporter
	DebugLog *log.Logger
	Logger   *slog.Logger
}

// Run alternates the agents until the reviewer signals completion or the
// turn limit is reached. Any invocation failure ends the session with an
// error.
func (b *Batch) Run(ctx context.Context) (Reason, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b.record(SessionStartedEvent(b.Machine.Options()))

	step, err := b.Machine.Start()
	if err != nil {
		return ReasonNone, err
	}

	for {
		items, err := b.invoke(ctx, step)
		if err != nil {
			b.Machine.Fail(step.Role, items, err)
			b.record(log.LogEvent{Event: log.EventInvocationFailed, Role: step.Role.String(), Turn: step.Turn, Error: err.Error()})
			return ReasonNone, err
		}
		output := transcript.Format(items)
		b.record(log.LogEvent{Event: log.EventAgentOutput, Role: step.Role.String(), Turn: step.Turn, Bytes: len(output), Content: output})

		next, ok, err := b.Machine.Complete(step.Role, items)
		if err != nil {
			return ReasonNone, err
		}
		if !ok {
			_, reason := b.Machine.Finished()
			logger.Info("done", "turns", b.Machine.Turn(), "reason", reason.String())
			b.record(log.LogEvent{Event: log.EventSessionFinished, Turn: b.Machine.Turn(), Reason: reason.String()})
			return reason, nil
		}
		step = next
	}
}

// invoke runs step and returns the items it produced. Items are returned
// alongside an error when the agent failed part-way.
func (b *Batch) invoke(ctx context.Context, step Step) ([]transcript.ContentItem, error) {
	streamer := b.Producer
	if step.Role == transcript.Reviewer {
		streamer = b.Reviewer
	}

	b.record(log.LogEvent{
		Event:   log.EventPromptSent,
		Role:    step.Role.String(),
		Turn:    step.Turn,
		Bytes:   len(step.Invocation.Prompt),
		Content: step.Invocation.Prompt,
	})
	if b.Reporter != nil {
		b.Reporter.InvocationStarted(step)
	}

	var final *agent.Update
	for u := range streamer.Stream(ctx, step.Invocation) {
		if u.Done {
			final = &u
			continue
		}
		if b.Reporter != nil {
			b.Reporter.Event(step.Role, u.Event)
		}
	}

	var (
		items []transcript.ContentItem
		err   error
	)
	switch {
	case final == nil:
		err = fmt.Errorf("%s: %w", step.Role, agent.ErrCanceled)
	default:
		err = final.Err
		if final.Result != nil {
			items = final.Result.Items
		}
	}
	if b.Reporter != nil {
		b.Reporter.InvocationFinished(step.Role, err)
	}
	return items, err
}

// SessionStartedEvent is the debug-log record that opens a session.
func SessionStartedEvent(opts Options) log.LogEvent {
	return log.LogEvent{
		Event:   log.EventSessionStarted,
		Content: opts.Task,
		Data: map[string]interface{}{
			"dir":               opts.Dir,
			"context_bytes":     len(opts.Context),
			"max_turns":         opts.MaxTurns,
			"max_forward_bytes": opts.MaxForwardBytes,
			"resume":            opts.Resume,
		},
	}
}

func (b *Batch) record(ev log.LogEvent) {
	if err := b.DebugLog.Append(ev); err != nil && b.Logger != nil {
		b.Logger.Warn("debug log write failed", "error", err)
	}
}
