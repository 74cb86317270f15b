package transcript

import "testing"

func TestBufferAppendTextMergesConsecutiveText(t *testing.T) {
	var b Buffer
	b.Start(Producer)
	b.AppendText("one")
	b.AppendText("two")
	b.Add(NewToolCall("id", "Edit"))
	b.AppendText("three")

	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Text != "one\ntwo" {
		t.Errorf("items[0].Text = %q, want %q", items[0].Text, "one\ntwo")
	}
	if items[2].Kind != ItemText || items[2].Text != "three" {
		t.Errorf("items[2] = %+v, want Text(three)", items[2])
	}
}

func TestBufferResolveToolCorrelatesByID(t *testing.T) {
	var b Buffer
	b.Start(Producer)
	b.Add(NewToolCall("a", "Read"))
	b.Add(NewToolCall("b", "Bash"))
	b.Add(NewToolCall("c", "Edit"))

	if !b.ResolveTool("b", "3 lines") {
		t.Fatal("ResolveTool(b) = false, want true")
	}
	if b.ResolveTool("missing", "x") {
		t.Error("ResolveTool(missing) = true, want false")
	}

	items := b.Items()
	if items[0].Tool.Resolved || items[2].Tool.Resolved {
		t.Errorf("unrelated calls were resolved: %+v %+v", items[0].Tool, items[2].Tool)
	}
	if !items[1].Tool.Resolved || items[1].Tool.Summary != "3 lines" {
		t.Errorf("items[1].Tool = %+v, want resolved with %q", items[1].Tool, "3 lines")
	}
}

func TestBufferUpdateCommand(t *testing.T) {
	var b Buffer
	b.Start(Reviewer)
	b.UpdateCommand(Command{Command: "go test", State: CommandInProgress})
	b.UpdateCommand(Command{Command: "ls", State: CommandInProgress})
	b.UpdateCommand(Command{Command: "go test", State: CommandCompleted, ExitCode: 1, OutputSummary: "FAIL"})

	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if got := items[0].Command; got.State != CommandCompleted || got.ExitCode != 1 || got.OutputSummary != "FAIL" {
		t.Errorf("items[0].Command = %+v, want completed exit 1", got)
	}
	if items[1].Command.State != CommandInProgress {
		t.Errorf("items[1].Command.State = %v, want in progress", items[1].Command.State)
	}

	// Running the same command again starts a new item.
	b.UpdateCommand(Command{Command: "go test", State: CommandInProgress})
	if n := b.Len(); n != 3 {
		t.Errorf("Len() after rerun = %d, want 3", n)
	}

	// A completion with no prior start is appended as-is.
	b.UpdateCommand(Command{Command: "pwd", State: CommandCompleted})
	if n := b.Len(); n != 4 {
		t.Errorf("Len() after bare completion = %d, want 4", n)
	}
}

func TestBufferFlushResets(t *testing.T) {
	var b Buffer
	b.Start(Reviewer)
	b.AppendText("ALL_DONE")

	role, items := b.Flush()
	if role != Reviewer || len(items) != 1 {
		t.Fatalf("Flush() = %v, %d items; want reviewer, 1 item", role, len(items))
	}
	if b.Active() || b.Len() != 0 {
		t.Errorf("buffer not reset: active=%v len=%d", b.Active(), b.Len())
	}
}
