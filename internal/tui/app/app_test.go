package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/log"
	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/transcript"
	"github.com/rsdouglas/leonard/internal/tui"
)

type fakeCall struct {
	events []protocol.Event
	err    error
}

// fakeStreamer replays scripted calls, one per invocation. Calls past the
// end repeat the last entry.
type fakeStreamer struct {
	calls []fakeCall
	invs  []agent.Invocation
}

func (f *fakeStreamer) Stream(_ context.Context, inv agent.Invocation) <-chan agent.Update {
	var c fakeCall
	if n := len(f.invs); n < len(f.calls) {
		c = f.calls[n]
	} else if len(f.calls) > 0 {
		c = f.calls[len(f.calls)-1]
	}
	f.invs = append(f.invs, inv)

	var buf transcript.Buffer
	buf.Start(transcript.Producer)
	ch := make(chan agent.Update, len(c.events)+1)
	for _, ev := range c.events {
		ev.Apply(&buf)
		ch <- agent.Update{Event: ev}
	}
	_, items := buf.Flush()
	ch <- agent.Update{Done: true, Result: &agent.Result{Items: items}, Err: c.err}
	close(ch)
	return ch
}

func say(texts ...string) fakeCall {
	var evs []protocol.Event
	for _, t := range texts {
		evs = append(evs, protocol.Event{Kind: protocol.EventText, Text: t})
	}
	return fakeCall{events: evs}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey    = tea.KeyMsg{Type: tea.KeyEnter}
	altEnterKey = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	ctrlCKey    = tea.KeyMsg{Type: tea.KeyCtrlC}
	escKey      = tea.KeyMsg{Type: tea.KeyEsc}
)

// pump runs cmd and feeds each resulting message back into the app until
// no follow-up command remains.
func pump(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 100 {
			t.Fatal("app did not settle")
		}
		_, cmd = a.Update(cmd())
	}
}

func newTestApp(t *testing.T, opts relay.Options, producer, reviewer *fakeStreamer, debugLog *log.Logger) *App {
	t.Helper()
	a := New(context.Background(), Config{
		Machine:  relay.NewMachine(opts, nil),
		Producer: producer,
		Reviewer: reviewer,
		DebugLog: debugLog,
	})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return a
}

func TestAppRunsRelayToCompletion(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("v1"), say("v2")}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("needs tests"), say("ALL_DONE")}}
	a := newTestApp(t, relay.Options{Task: "Add validation", MaxTurns: 10}, producer, reviewer, nil)

	if a.state != tui.StateRunning {
		t.Fatalf("state = %v, want RUNNING", a.state)
	}
	pump(t, a, a.begin())

	if a.state != tui.StateFinished {
		t.Fatalf("state = %v, want FINISHED (err: %v)", a.state, a.err)
	}
	if got := a.machine.Transcript().Len(); got != 4 {
		t.Errorf("messages = %d, want 4", got)
	}
	if got := a.machine.Turn(); got != 1 {
		t.Errorf("turn = %d, want 1", got)
	}
	if len(producer.invs) != 2 || len(reviewer.invs) != 2 {
		t.Fatalf("invocations = %d/%d, want 2/2", len(producer.invs), len(reviewer.invs))
	}
	if got := producer.invs[1].Prompt; got != "needs tests" {
		t.Errorf("producer follow-up prompt = %q, want %q", got, "needs tests")
	}
	if !strings.Contains(a.View(), "FINISHED") {
		t.Errorf("view does not show the finished state")
	}
}

func TestAppPauseHoldsNextInvocation(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("ALL_DONE")}}
	a := newTestApp(t, relay.Options{Task: "T"}, producer, reviewer, nil)

	// Launch the producer, then pause while it is in flight.
	cmd := a.begin()
	_, listen := a.Update(cmd())
	a.Update(runes("p"))
	if a.state != tui.StatePaused {
		t.Fatalf("state = %v, want PAUSED", a.state)
	}

	pump(t, a, listen)
	if len(reviewer.invs) != 0 {
		t.Fatalf("reviewer ran while paused")
	}
	if got := a.machine.Transcript().Len(); got != 1 {
		t.Fatalf("messages = %d, want the producer's reply committed", got)
	}

	_, cmd = a.Update(runes("c"))
	pump(t, a, cmd)
	if len(reviewer.invs) != 1 {
		t.Fatalf("reviewer invocations = %d, want 1", len(reviewer.invs))
	}
	if a.state != tui.StateFinished {
		t.Errorf("state = %v, want FINISHED", a.state)
	}
}

func TestAppEditForwardsEditedText(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	debugLog, err := log.NewLogger(logPath)
	if err != nil {
		t.Fatal(err)
	}

	producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("ALL_DONE")}}
	a := newTestApp(t, relay.Options{Task: "T", StripANSI: true}, producer, reviewer, debugLog)

	cmd := a.begin()
	_, listen := a.Update(cmd())
	a.Update(runes("p"))
	pump(t, a, listen)

	a.Update(runes("e"))
	if a.state != tui.StateEditing {
		t.Fatalf("state = %v, want EDITING", a.state)
	}
	if got := a.input.Value(); got != "v1" {
		t.Fatalf("edit buffer = %q, want %q", got, "v1")
	}

	a.input.SetValue("v1, with tests")
	_, cmd = a.Update(enterKey)
	if a.state != tui.StateRunning {
		t.Fatalf("state = %v, want RUNNING after submit", a.state)
	}
	pump(t, a, cmd)

	if len(reviewer.invs) != 1 {
		t.Fatalf("reviewer invocations = %d, want 1", len(reviewer.invs))
	}
	if !strings.Contains(reviewer.invs[0].Prompt, "v1, with tests") {
		t.Errorf("reviewer prompt does not carry the edit:\n%s", reviewer.invs[0].Prompt)
	}
	first := a.machine.Transcript().Messages()[0]
	if got := first.PlainText(); got != "v1, with tests" {
		t.Errorf("edited message = %q", got)
	}

	events, err := log.ReadAll(logPath)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, ev := range events {
		kinds = append(kinds, ev.Event)
	}
	want := []string{
		log.EventSessionStarted,
		log.EventPromptSent,
		log.EventAgentOutput,
		log.EventMessageEdited,
		log.EventPromptSent,
		log.EventAgentOutput,
		log.EventSessionFinished,
	}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("debug log events = %v, want %v", kinds, want)
	}
}

func TestAppEditCancel(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"esc", escKey},
		{"ctrl+c", ctrlCKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
			a := newTestApp(t, relay.Options{Task: "T"}, producer, &fakeStreamer{}, nil)

			cmd := a.begin()
			_, listen := a.Update(cmd())
			a.Update(runes("p"))
			pump(t, a, listen)
			a.Update(runes("e"))

			_, cmd = a.Update(tt.key)
			if cmd != nil {
				t.Errorf("cancelling an edit returned a command")
			}
			if a.state != tui.StatePaused {
				t.Errorf("state = %v, want PAUSED", a.state)
			}
			if a.input.Value() != "" {
				t.Errorf("edit buffer not cleared: %q", a.input.Value())
			}
			if got := a.machine.Transcript().Messages()[0].PlainText(); got != "v1" {
				t.Errorf("message changed to %q", got)
			}
		})
	}
}

func TestAppWaitsForTask(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("plan")}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("all_done")}}
	a := newTestApp(t, relay.Options{}, producer, reviewer, nil)

	if a.state != tui.StateWaitingForTask {
		t.Fatalf("state = %v, want ENTER TASK", a.state)
	}
	a.begin()

	// An empty submission is ignored.
	if _, cmd := a.Update(enterKey); cmd != nil || a.state != tui.StateWaitingForTask {
		t.Fatalf("empty task was accepted")
	}

	a.input.SetValue("Build the parser")
	a.Update(altEnterKey)
	if !strings.Contains(a.input.Value(), "\n") {
		t.Errorf("alt+enter did not insert a newline: %q", a.input.Value())
	}

	_, cmd := a.Update(enterKey)
	pump(t, a, cmd)

	if len(producer.invs) != 1 {
		t.Fatalf("producer invocations = %d, want 1", len(producer.invs))
	}
	if !strings.Contains(producer.invs[0].Prompt, "## Task\nBuild the parser") {
		t.Errorf("producer prompt:\n%s", producer.invs[0].Prompt)
	}
	if a.state != tui.StateFinished {
		t.Errorf("state = %v, want FINISHED", a.state)
	}
}

func TestAppInvocationFailurePauses(t *testing.T) {
	exitErr := &agent.ExitError{Agent: "producer (claude)", Code: 2, Stderr: "rate limited"}
	producer := &fakeStreamer{calls: []fakeCall{
		{events: []protocol.Event{{Kind: protocol.EventText, Text: "half"}}, err: exitErr},
	}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("ALL_DONE")}}
	a := newTestApp(t, relay.Options{Task: "T"}, producer, reviewer, nil)

	pump(t, a, a.begin())

	if a.state != tui.StatePaused {
		t.Fatalf("state = %v, want PAUSED", a.state)
	}
	var got *agent.ExitError
	if !errors.As(a.err, &got) || got.Code != 2 {
		t.Fatalf("err = %v, want the exit error", a.err)
	}
	msgs := a.machine.Transcript().Messages()
	if len(msgs) != 1 || msgs[0].Err == "" {
		t.Fatalf("partial output not committed with its error: %+v", msgs)
	}
	if !strings.Contains(a.View(), "error:") {
		t.Errorf("status bar does not show the error")
	}

	// Continuing hands the partial output to the reviewer.
	_, cmd := a.Update(runes("c"))
	pump(t, a, cmd)
	if len(reviewer.invs) != 1 || !strings.Contains(reviewer.invs[0].Prompt, "half") {
		t.Errorf("reviewer was not given the partial output")
	}
	if a.err != nil {
		t.Errorf("err = %v, want cleared after continuing", a.err)
	}
}

func TestAppCtrlCConfirmsWhileInFlight(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
	a := newTestApp(t, relay.Options{Task: "T"}, producer, &fakeStreamer{}, nil)

	cmd := a.begin()
	a.Update(cmd())
	if !a.inFlight {
		t.Fatal("producer not in flight")
	}

	a.Update(ctrlCKey)
	if !a.ctrlCPending || a.quitting {
		t.Fatalf("first ctrl+c should ask for confirmation")
	}

	_, cmd = a.Update(ctrlCKey)
	if cmd == nil {
		t.Fatal("second ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("second ctrl+c did not quit")
	}
	if a.ctx.Err() == nil {
		t.Errorf("quitting did not cancel the invocation context")
	}
}

func TestAppIgnoresStaleUpdates(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
	a := newTestApp(t, relay.Options{Task: "T"}, producer, &fakeStreamer{}, nil)

	cmd := a.begin()
	a.Update(cmd())

	_, next := a.Update(tui.UpdatesMsg{Seq: a.seq + 1, Updates: []agent.Update{{Done: true}}})
	if next != nil || !a.inFlight {
		t.Errorf("an update for another invocation was applied")
	}
}

func TestAppFailedReviewerCanFinish(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{say("v1")}}
	reviewer := &fakeStreamer{calls: []fakeCall{
		{events: []protocol.Event{{Kind: protocol.EventText, Text: "ALL_DONE"}}, err: errors.New("codex exited with status 1")},
	}}
	a := newTestApp(t, relay.Options{Task: "T", MaxTurns: 1}, producer, reviewer, nil)

	pump(t, a, a.begin())

	if a.state != tui.StateFinished {
		t.Fatalf("state = %v, want FINISHED", a.state)
	}
	if a.err == nil {
		t.Error("failure not surfaced")
	}
	_, cmd := a.Update(runes("c"))
	if cmd != nil || len(producer.invs) != 1 {
		t.Errorf("continue after finishing invoked the producer again")
	}
}

func TestAppRetryAfterEmptyFailureStartsFresh(t *testing.T) {
	producer := &fakeStreamer{calls: []fakeCall{
		{err: errors.New("claude exited with status 1")},
		say("v1"),
	}}
	reviewer := &fakeStreamer{calls: []fakeCall{say("ALL_DONE")}}
	a := newTestApp(t, relay.Options{Task: "T"}, producer, reviewer, nil)

	pump(t, a, a.begin())
	if a.state != tui.StatePaused || a.machine.Transcript().Len() != 0 {
		t.Fatalf("state = %v, messages = %d; want PAUSED with nothing committed", a.state, a.machine.Transcript().Len())
	}

	_, cmd := a.Update(runes("c"))
	pump(t, a, cmd)
	if len(producer.invs) != 2 || producer.invs[1].Continue {
		t.Fatalf("producer retry = %+v, want a fresh call", producer.invs)
	}
	if a.state != tui.StateFinished {
		t.Errorf("state = %v, want FINISHED", a.state)
	}
}
