package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rsdouglas/leonard/internal/textutil"
)

// Claude stream-json envelope types.
const (
	claudeAssistant = "assistant"
	claudeUser      = "user"
	claudeResult    = "result"
	claudeSystem    = "system"
)

// Claude content block types.
const (
	blockText       = "text"
	blockToolUse    = "tool_use"
	blockToolResult = "tool_result"
)

// claudeEnvelope is the top-level object of every stream-json line.
type claudeEnvelope struct {
	Type         string         `json:"type"`
	Subtype      string         `json:"subtype"`
	Message      *claudeMessage `json:"message"`
	Result       string         `json:"result"`
	CostUSD      float64        `json:"cost_usd"`
	TotalCostUSD float64        `json:"total_cost_usd"`
	IsError      bool           `json:"is_error"`
}

type claudeMessage struct {
	// Content is usually a list of blocks but may be a bare string for
	// echoed user prompts.
	Content json.RawMessage `json:"content"`
}

type claudeBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ClaudeDecoder decodes `claude --output-format stream-json` output.
type ClaudeDecoder struct{}

// NewClaudeDecoder returns a producer stream decoder.
func NewClaudeDecoder() *ClaudeDecoder {
	return &ClaudeDecoder{}
}

// Decode implements Decoder.
func (d *ClaudeDecoder) Decode(line []byte) ([]Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var env claudeEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decoding claude event: %w", err)
	}

	switch env.Type {
	case claudeAssistant, claudeUser:
		if env.Message == nil {
			return nil, nil
		}
		return decodeClaudeBlocks(env.Message.Content), nil
	case claudeResult:
		cost := env.CostUSD
		if cost == 0 {
			cost = env.TotalCostUSD
		}
		if env.IsError {
			return nil, fmt.Errorf("claude reported an error result: %s", textutil.TruncateLine(env.Result, 200))
		}
		return []Event{{Kind: EventResult, Text: env.Result, CostUSD: cost}}, nil
	case claudeSystem:
		return nil, nil
	default:
		return nil, nil
	}
}

func decodeClaudeBlocks(raw json.RawMessage) []Event {
	var blocks []claudeBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}

	var events []Event
	for _, block := range blocks {
		switch block.Type {
		case blockText:
			events = append(events, Event{Kind: EventText, Text: block.Text})
		case blockToolUse:
			events = append(events, Event{Kind: EventToolCall, ToolID: block.ID, ToolName: block.Name})
		case blockToolResult:
			events = append(events, Event{
				Kind:    EventToolResult,
				ToolID:  block.ToolUseID,
				Summary: textutil.SummarizeToolResult(block.Content),
			})
		}
	}
	return events
}
