package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rsdouglas/leonard/internal/textutil"
	"github.com/rsdouglas/leonard/internal/transcript"
)

// Codex exec --json event types.
const (
	codexThreadStarted = "thread.started"
	codexTurnStarted   = "turn.started"
	codexTurnCompleted = "turn.completed"
	codexTurnFailed    = "turn.failed"
	codexItemStarted   = "item.started"
	codexItemUpdated   = "item.updated"
	codexItemCompleted = "item.completed"
	codexError         = "error"
)

// Codex item types.
const (
	itemReasoning        = "reasoning"
	itemAgentMessage     = "agent_message"
	itemCommandExecution = "command_execution"
)

const statusInProgress = "in_progress"

type codexEnvelope struct {
	Type    string          `json:"type"`
	Item    json.RawMessage `json:"item"`
	Error   *codexFailure   `json:"error"`
	Message string          `json:"message"`
}

type codexFailure struct {
	Message string `json:"message"`
}

type codexItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// ItemType is the field name older codex releases used for Type.
	ItemType         string  `json:"item_type"`
	Text             *string `json:"text"`
	Command          *string `json:"command"`
	Status           string  `json:"status"`
	ExitCode         *int    `json:"exit_code"`
	AggregatedOutput *string `json:"aggregated_output"`
	Output           *string `json:"output"`
}

func (it codexItem) kind() string {
	if it.Type != "" {
		return it.Type
	}
	return it.ItemType
}

// CodexDecoder decodes `codex exec --json` output.
type CodexDecoder struct{}

// NewCodexDecoder returns a reviewer stream decoder.
func NewCodexDecoder() *CodexDecoder {
	return &CodexDecoder{}
}

// Decode implements Decoder.
func (d *CodexDecoder) Decode(line []byte) ([]Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var env codexEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decoding codex event: %w", err)
	}

	switch env.Type {
	case codexItemCompleted, codexItemStarted, codexItemUpdated:
		if len(env.Item) == 0 {
			return nil, nil
		}
		var item codexItem
		if err := json.Unmarshal(env.Item, &item); err != nil {
			return nil, fmt.Errorf("decoding codex item: %w", err)
		}
		return decodeCodexItem(item, env.Type == codexItemCompleted), nil
	case codexTurnFailed:
		if env.Error != nil {
			return nil, fmt.Errorf("codex turn failed: %s", env.Error.Message)
		}
		return nil, fmt.Errorf("codex turn failed")
	case codexError:
		return nil, fmt.Errorf("codex error: %s", env.Message)
	case codexThreadStarted, codexTurnStarted, codexTurnCompleted:
		return nil, nil
	default:
		return nil, nil
	}
}

// decodeCodexItem maps one item to events. Reasoning and messages are only
// final once the item completes; command status is reported at every stage.
func decodeCodexItem(item codexItem, completed bool) []Event {
	switch item.kind() {
	case itemReasoning:
		if !completed || item.Text == nil {
			return nil
		}
		return []Event{{Kind: EventReasoning, Text: *item.Text}}
	case itemAgentMessage:
		if !completed || item.Text == nil {
			return nil
		}
		return []Event{{Kind: EventText, Text: *item.Text}}
	case itemCommandExecution:
		if item.Command == nil || *item.Command == "" {
			return nil
		}
		cmd := transcript.Command{Command: *item.Command}
		if item.Status == statusInProgress || (!completed && item.ExitCode == nil) {
			cmd.State = transcript.CommandInProgress
		} else {
			cmd.State = transcript.CommandCompleted
			if item.ExitCode != nil {
				cmd.ExitCode = *item.ExitCode
			}
			output := item.AggregatedOutput
			if output == nil {
				output = item.Output
			}
			cmd.OutputSummary = textutil.SummarizeCommandOutput(output)
		}
		return []Event{{Kind: EventCommand, Command: cmd}}
	default:
		return nil
	}
}
