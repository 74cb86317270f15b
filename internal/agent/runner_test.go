package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/testutil"
	"github.com/rsdouglas/leonard/internal/transcript"
)

func TestRunProducerStreamsEvents(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteFakeAgent(t, dir, "claude", testutil.FakeAgent{
		Responses: [][]string{{
			`{"type":"system","subtype":"init"}`,
			`{"type":"assistant","message":{"content":[{"type":"text","text":"Plan: add checks."}]}}`,
			`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t1","name":"Edit"}]}}`,
			`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}`,
			`{"type":"result","result":"done","cost_usd":0.5}`,
		}},
	})

	r := NewRunner(Producer(Options{Binary: bin}), nil)
	var kinds []protocol.EventKind
	res, err := r.Run(context.Background(), Invocation{Prompt: "Add input validation", Dir: dir}, func(ev protocol.Event) {
		kinds = append(kinds, ev.Kind)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantKinds := []protocol.EventKind{protocol.EventText, protocol.EventToolCall, protocol.EventToolResult, protocol.EventResult}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("event kinds = %v, want %v", kinds, wantKinds)
	}
	for i := range kinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], wantKinds[i])
		}
	}

	if got := transcript.Format(res.Items); got != "Plan: add checks.\n  [Edit] ok" {
		t.Errorf("Format(items) = %q", got)
	}
	if res.CostUSD != 0.5 {
		t.Errorf("CostUSD = %v, want 0.5", res.CostUSD)
	}

	prompts := testutil.RecordedPrompts(t, dir, "claude")
	if len(prompts) != 1 || prompts[0] != "Add input validation" {
		t.Errorf("recorded prompts = %q", prompts)
	}
}

func TestRunRejectsEmptyPrompt(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteFakeAgent(t, dir, "claude", testutil.FakeAgent{})

	r := NewRunner(Producer(Options{Binary: bin}), nil)
	_, err := r.Run(context.Background(), Invocation{Prompt: "  \n\t"}, nil)
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("Run() error = %v, want ErrEmptyPrompt", err)
	}
	if args := testutil.RecordedArgs(t, dir, "claude"); args != "" {
		t.Errorf("agent was spawned with %q", args)
	}
}

func TestRunNonzeroExit(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteFakeAgent(t, dir, "codex", testutil.FakeAgent{
		Responses: [][]string{{
			`{"type":"item.completed","item":{"type":"agent_message","text":"partial"}}`,
			`this is not json`,
		}},
		Stderr:   "quota exceeded",
		ExitCode: 3,
	})

	r := NewRunner(Reviewer(Options{Binary: bin}), nil)
	res, err := r.Run(context.Background(), Invocation{Prompt: "review", Dir: dir}, nil)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "quota exceeded") {
		t.Errorf("Stderr = %q", exitErr.Stderr)
	}
	if len(exitErr.Unparsed) != 1 || exitErr.Unparsed[0] != "this is not json" {
		t.Errorf("Unparsed = %q", exitErr.Unparsed)
	}
	if res == nil || transcript.Format(res.Items) != "partial" {
		t.Errorf("partial result not kept: %+v", res)
	}
}

func TestRunCanceledKillsChild(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteFakeAgent(t, dir, "claude", testutil.FakeAgent{
		Responses: [][]string{{`{"type":"assistant","message":{"content":[{"type":"text","text":"working"}]}}`}},
		Hang:      true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(Producer(Options{Binary: bin}), nil)

	started := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, Invocation{Prompt: "go", Dir: dir}, func(protocol.Event) {
			select {
			case started <- struct{}{}:
			default:
			}
		})
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("no output from fake agent")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCanceled) {
			t.Errorf("Run() error = %v, want ErrCanceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestStreamEndsWithDone(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteFakeAgent(t, dir, "codex", testutil.FakeAgent{
		Responses: [][]string{{
			`{"type":"item.completed","item":{"type":"reasoning","text":"thinking"}}`,
			`{"type":"item.completed","item":{"type":"agent_message","text":"ALL_DONE"}}`,
		}},
	})

	r := NewRunner(Reviewer(Options{Binary: bin}), nil)
	var events []protocol.Event
	var final *Update
	for u := range r.Stream(context.Background(), Invocation{Prompt: "review", Dir: dir}) {
		if u.Done {
			final = &u
			continue
		}
		events = append(events, u.Event)
	}

	if final == nil {
		t.Fatal("stream closed without a Done update")
	}
	if final.Err != nil {
		t.Fatalf("Done.Err = %v", final.Err)
	}
	if len(events) != 2 || events[1].Text != "ALL_DONE" {
		t.Errorf("events = %+v", events)
	}
}

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	claude := testutil.WriteFakeAgent(t, dir, "claude", testutil.FakeAgent{})
	codex := testutil.WriteFakeAgent(t, dir, "codex", testutil.FakeAgent{})

	err := CheckBinaries(context.Background(), nil, Producer(Options{Binary: claude}), Reviewer(Options{Binary: codex}))
	if err != nil {
		t.Fatalf("CheckBinaries() error = %v", err)
	}

	err = CheckBinaries(context.Background(), nil, Producer(Options{Binary: "leonard-no-such-binary"}))
	var binErr *BinaryError
	if !errors.As(err, &binErr) || binErr.Binary != "leonard-no-such-binary" {
		t.Errorf("CheckBinaries() error = %v, want *BinaryError", err)
	}
}
