package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/rsdouglas/leonard/internal/transcript"
	"github.com/rsdouglas/leonard/internal/tui"
)

func TestTranscriptRendersMessagesAndLiveBuffer(t *testing.T) {
	msgs := []transcript.Message{
		{Role: transcript.Producer, Turn: 0, Items: []transcript.ContentItem{
			transcript.Text("Plan:\nstep one"),
			{Kind: transcript.ItemToolCall, Tool: transcript.ToolCall{ID: "1", Name: "Edit", Summary: "ok", Resolved: true}},
		}},
		{Role: transcript.Reviewer, Turn: 0, Items: []transcript.ContentItem{transcript.Text("partial")}, Err: "codex exited with status 1"},
	}
	var live transcript.Buffer
	live.Start(transcript.Producer)
	live.AppendText("working")

	out := Transcript(msgs, &live, true, 1, 0)

	for _, want := range []string{
		"=== PRODUCER (turn 0) ===\nPlan:\nstep one\n  [Edit] ok\n",
		"=== REVIEWER (turn 0) ===\npartial\n  ! codex exited with status 1\n",
		"\n\n=== PRODUCER (turn 1) [streaming...] ===\nworking",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTranscriptHidesIdleBuffer(t *testing.T) {
	var live transcript.Buffer
	live.Start(transcript.Reviewer)

	if out := Transcript(nil, &live, false, 0, 0); out != "" {
		t.Errorf("idle buffer rendered %q, want empty", out)
	}
	out := Transcript(nil, &live, true, 0, 0)
	if out != "=== REVIEWER (turn 0) [streaming...] ===" {
		t.Errorf("in-flight header = %q", out)
	}
}

func TestHeaderShowsTurnAndState(t *testing.T) {
	tests := []struct {
		name     string
		maxTurns int
		want     string
	}{
		{"capped", 10, "turn 2/10"},
		{"unlimited", 0, "turn 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Header("Fix the parser", 2, tt.maxTurns, tui.StatePaused, "", 80)
			for _, want := range []string{"Fix the parser", tt.want, "PAUSED"} {
				if !strings.Contains(out, want) {
					t.Errorf("header %q missing %q", out, want)
				}
			}
		})
	}
}

func TestStatusBarPrefersError(t *testing.T) {
	out := StatusBar("Running producer...", errors.New("boom\nstderr tail"), "p pause", 80)
	if !strings.Contains(out, "error: boom ...") {
		t.Errorf("status bar %q missing error", out)
	}
	if strings.Contains(out, "Running producer") {
		t.Errorf("status bar %q should hide the status text", out)
	}
}
