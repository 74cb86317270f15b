package relay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/textutil"
	"github.com/rsdouglas/leonard/internal/transcript"
)

var (
	// ErrNoTask means neither a task nor a context was supplied.
	ErrNoTask = errors.New("no task or context provided (use --task or create leonard.md)")
	// ErrFinished is returned when asking a finished session for more work.
	ErrFinished = errors.New("session is finished")
	// ErrNothingToEdit is returned when editing an empty transcript.
	ErrNothingToEdit = errors.New("no message to edit")
)

// Reason explains why a session finished.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonCompleted means the reviewer replied with the completion token.
	ReasonCompleted
	// ReasonTurnLimit means the configured number of turns was used up.
	ReasonTurnLimit
)

func (r Reason) String() string {
	switch r {
	case ReasonCompleted:
		return "reviewer signaled " + CompletionToken
	case ReasonTurnLimit:
		return "turn limit reached"
	default:
		return "running"
	}
}

// Options configures a relay session.
type Options struct {
	Task    string
	Context string
	// Dir is the working directory of both agents.
	Dir string
	// MaxTurns stops the relay after this many reviewer replies; 0 means
	// unlimited.
	MaxTurns int
	// MaxForwardBytes caps the text forwarded from one agent to the other.
	MaxForwardBytes int
	// StripANSI removes escape sequences from forwarded text.
	StripANSI bool
	// Resume continues both agents' previous sessions on their first call.
	Resume bool
}

// Step is the next invocation the relay wants to run.
type Step struct {
	Role       transcript.Role
	Turn       int
	Invocation agent.Invocation
}

// Machine is the relay state machine. It owns the transcript and is driven
// by a single goroutine: the caller runs each Step it returns and reports
// the outcome with Complete or Fail.
type Machine struct {
	opts   Options
	tr     *transcript.Transcript
	logger *slog.Logger

	called   map[transcript.Role]bool
	finished bool
	reason   Reason
}

// NewMachine creates a machine for opts. A nil logger discards output.
func NewMachine(opts Options, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		opts:   opts,
		tr:     transcript.New(opts.Task, opts.Context),
		logger: logger,
		called: make(map[transcript.Role]bool),
	}
}

// Options returns the session options.
func (m *Machine) Options() Options {
	return m.opts
}

// Transcript returns the session transcript.
func (m *Machine) Transcript() *transcript.Transcript {
	return m.tr
}

// Turn returns the number of completed reviewer replies.
func (m *Machine) Turn() int {
	return m.tr.Turn
}

// Finished reports whether the session is over and why.
func (m *Machine) Finished() (bool, Reason) {
	return m.finished, m.reason
}

// SetTask supplies the task of a session that was started without one. It
// has no effect once the first invocation has been made.
func (m *Machine) SetTask(task string) {
	if m.tr.Len() > 0 || len(m.called) > 0 {
		return
	}
	m.opts.Task = task
	m.tr.Task = task
}

// Start returns the producer's opening step.
func (m *Machine) Start() (Step, error) {
	if m.finished {
		return Step{}, ErrFinished
	}
	prompt, err := BuildProducerPrompt(m.opts.Task, m.opts.Context)
	if err != nil {
		return Step{}, err
	}
	return m.step(transcript.Producer, prompt), nil
}

// Complete commits the items of a successful invocation and returns the next
// step. ok is false once the session has finished.
func (m *Machine) Complete(role transcript.Role, items []transcript.ContentItem) (next Step, ok bool, err error) {
	if m.finished {
		return Step{}, false, ErrFinished
	}
	m.called[role] = true
	msg := m.tr.Append(role, items)
	m.logger.Info("received", "role", role.String(), "turn", msg.Turn, "bytes", len(msg.PlainText()))

	if role == transcript.Reviewer && m.review(msg) {
		return Step{}, false, nil
	}

	next, err = m.forward(role, m.forwardText(role, msg.Items))
	if err != nil {
		return Step{}, false, err
	}
	return next, true, nil
}

// Fail records a failed invocation. Partial output is committed as a message
// annotated with the error; ok reports whether anything was committed. A
// committed reviewer message counts as a reply, so it may finish the
// session. A role whose failed call committed nothing starts fresh on its
// retry.
func (m *Machine) Fail(role transcript.Role, items []transcript.ContentItem, cause error) (transcript.Message, bool) {
	m.logger.Warn("invocation failed", "role", role.String(), "turn", m.tr.Turn, "error", cause)
	msg, ok := m.tr.AppendFailed(role, items, cause)
	if !ok {
		return msg, false
	}
	m.called[role] = true
	if role == transcript.Reviewer && !m.finished {
		m.review(msg)
	}
	return msg, true
}

// review applies completion detection and turn accounting to a committed
// reviewer message and reports whether the session finished.
func (m *Machine) review(msg transcript.Message) bool {
	answer := msg.AnswerText()
	if m.opts.StripANSI {
		answer = textutil.StripANSI(answer)
	}
	if SignaledDone(answer) {
		m.finish(ReasonCompleted)
		return true
	}
	m.tr.Turn++
	m.logger.Info("turn complete", "turn", m.tr.Turn, "max_turns", m.opts.MaxTurns)
	if m.opts.MaxTurns > 0 && m.tr.Turn >= m.opts.MaxTurns {
		m.finish(ReasonTurnLimit)
		return true
	}
	return false
}

// Next returns the step that logically follows the last committed message:
// the other agent gets that message, or the producer starts over when
// nothing was committed yet.
func (m *Machine) Next() (Step, error) {
	if m.finished {
		return Step{}, ErrFinished
	}
	last, ok := m.tr.Last()
	if !ok {
		return m.Start()
	}
	return m.forward(last.Role, m.forwardText(last.Role, last.Items))
}

// Edit replaces the last message with text and returns the step that sends
// the edited text to the other agent. The edit is forwarded as written,
// subject only to the byte cap.
func (m *Machine) Edit(text string) (Step, error) {
	if m.finished {
		return Step{}, ErrFinished
	}
	msg, ok := m.tr.EditLast(text)
	if !ok {
		return Step{}, ErrNothingToEdit
	}
	m.logger.Info("message edited", "role", msg.Role.String(), "turn", msg.Turn, "bytes", len(text))
	return m.forward(msg.Role, m.truncate(msg.Role, text))
}

// forwardText renders items the way they are shown, strips escape
// sequences when configured and applies the byte cap.
func (m *Machine) forwardText(from transcript.Role, items []transcript.ContentItem) string {
	text := transcript.Format(items)
	if m.opts.StripANSI {
		text = textutil.StripANSI(text)
	}
	return m.truncate(from, text)
}

func (m *Machine) truncate(from transcript.Role, text string) string {
	out := text
	if m.opts.MaxForwardBytes > 0 {
		out = textutil.TruncateTail(text, m.opts.MaxForwardBytes)
	}
	m.logger.Info("forwarding", "from", from.String(), "to", from.Other().String(), "bytes", len(text), "forwarded_bytes", len(out))
	return out
}

// forward builds the step that hands text from one role to the other.
func (m *Machine) forward(from transcript.Role, text string) (Step, error) {
	if from == transcript.Producer {
		prompt, err := BuildReviewerPrompt(m.opts.Task, m.opts.Context, text, m.continues(transcript.Reviewer))
		if err != nil {
			return Step{}, fmt.Errorf("building reviewer prompt: %w", err)
		}
		return m.step(transcript.Reviewer, prompt), nil
	}
	return m.step(transcript.Producer, text), nil
}

func (m *Machine) step(role transcript.Role, prompt string) Step {
	return Step{
		Role: role,
		Turn: m.tr.Turn,
		Invocation: agent.Invocation{
			Prompt:   prompt,
			Dir:      m.opts.Dir,
			Continue: m.continues(role),
		},
	}
}

// continues reports whether role's next call resumes its session: always
// after its first call, and on the first call only when resuming.
func (m *Machine) continues(role transcript.Role) bool {
	return m.called[role] || m.opts.Resume
}

func (m *Machine) finish(reason Reason) {
	m.finished = true
	m.reason = reason
	m.logger.Info("session finished", "reason", reason.String(), "turns", m.tr.Turn)
}
