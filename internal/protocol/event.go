// Package protocol decodes the line-delimited JSON event streams of the two
// agent CLIs into canonical events that the transcript understands.
package protocol

import (
	"github.com/rsdouglas/leonard/internal/transcript"
)

// EventKind identifies a canonical event.
type EventKind int

const (
	// EventText is prose the agent addressed to its reader.
	EventText EventKind = iota
	// EventReasoning is deliberation text.
	EventReasoning
	// EventToolCall announces a tool invocation by the producer.
	EventToolCall
	// EventToolResult carries the summarized result of an earlier tool
	// call, correlated by ToolID.
	EventToolResult
	// EventCommand reports the status of a reviewer shell command,
	// correlated by its command text.
	EventCommand
	// EventResult is the producer's terminal result record. It carries no
	// content that was not already streamed.
	EventResult
)

// Event is a protocol-agnostic unit of agent output.
type Event struct {
	Kind EventKind

	Text     string
	ToolID   string
	ToolName string
	Summary  string
	Command  transcript.Command
	CostUSD  float64
}

// Apply folds the event into the streaming buffer.
func (e Event) Apply(b *transcript.Buffer) {
	switch e.Kind {
	case EventText:
		b.AppendText(e.Text)
	case EventReasoning:
		b.Add(transcript.Reasoning(e.Text))
	case EventToolCall:
		b.Add(transcript.NewToolCall(e.ToolID, e.ToolName))
	case EventToolResult:
		b.ResolveTool(e.ToolID, e.Summary)
	case EventCommand:
		b.UpdateCommand(e.Command)
	}
}

// Item returns the content item the event renders as on its own, for live
// echo. Tool results have no item of their own and report false.
func (e Event) Item() (transcript.ContentItem, bool) {
	switch e.Kind {
	case EventText:
		return transcript.Text(e.Text), true
	case EventReasoning:
		return transcript.Reasoning(e.Text), true
	case EventToolCall:
		return transcript.NewToolCall(e.ToolID, e.ToolName), true
	case EventCommand:
		return transcript.ContentItem{Kind: transcript.ItemCommand, Command: e.Command}, true
	default:
		return transcript.ContentItem{}, false
	}
}

// Decoder turns one line of agent stdout into zero or more events. A line
// that is not valid JSON, or that reports a failure, yields an error; callers
// keep it as a diagnostic and continue with the next line.
type Decoder interface {
	Decode(line []byte) ([]Event, error)
}
