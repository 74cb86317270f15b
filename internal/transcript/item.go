// Package transcript is the canonical model of a relay session: the content
// items agents produce, the messages they are committed into, and the plain
// text formatter used both for display and for forwarding between agents.
package transcript

import "fmt"

// Role identifies which agent authored a message.
type Role int

const (
	Producer Role = iota
	Reviewer
)

// String returns the display name of the role.
func (r Role) String() string {
	switch r {
	case Producer:
		return "producer"
	case Reviewer:
		return "reviewer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Other returns the role that receives this role's output.
func (r Role) Other() Role {
	if r == Producer {
		return Reviewer
	}
	return Producer
}

// ItemKind discriminates the variants of ContentItem.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemToolCall
	ItemReasoning
	ItemCommand
)

// ContentItem is one unit of agent output. Exactly one of the variant fields
// is meaningful, selected by Kind.
type ContentItem struct {
	Kind ItemKind

	// Text holds the prose for ItemText and ItemReasoning.
	Text string

	Tool    ToolCall
	Command Command
}

// ToolCall is a capability the producer invoked. Resolved becomes true once
// the matching result arrives, with Summary describing it.
type ToolCall struct {
	ID       string
	Name     string
	Summary  string
	Resolved bool
}

// CommandState is the lifecycle of a reviewer shell command.
type CommandState int

const (
	CommandInProgress CommandState = iota
	CommandCompleted
)

// Command is a shell command the reviewer executed.
type Command struct {
	Command       string
	State         CommandState
	ExitCode      int
	OutputSummary string
}

// Text returns a prose item.
func Text(s string) ContentItem {
	return ContentItem{Kind: ItemText, Text: s}
}

// Reasoning returns a deliberation item.
func Reasoning(s string) ContentItem {
	return ContentItem{Kind: ItemReasoning, Text: s}
}

// NewToolCall returns an unresolved tool call item.
func NewToolCall(id, name string) ContentItem {
	return ContentItem{Kind: ItemToolCall, Tool: ToolCall{ID: id, Name: name}}
}

// RunningCommand returns a command item that has not finished yet.
func RunningCommand(command string) ContentItem {
	return ContentItem{Kind: ItemCommand, Command: Command{Command: command, State: CommandInProgress}}
}

// CompletedCommand returns a finished command item.
func CompletedCommand(command string, exitCode int, outputSummary string) ContentItem {
	return ContentItem{Kind: ItemCommand, Command: Command{
		Command:       command,
		State:         CommandCompleted,
		ExitCode:      exitCode,
		OutputSummary: outputSummary,
	}}
}
