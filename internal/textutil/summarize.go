package textutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	summaryMaxLines = 3
	summaryMaxChars = 100
	valueMaxChars   = 50
)

// SummarizeText collapses s to a one-glance summary: short text (at most three
// lines) is kept and cut to 100 characters, longer text becomes "N lines".
func SummarizeText(s string) string {
	n := CountLines(s)
	if n <= summaryMaxLines {
		return TruncateLine(s, summaryMaxChars)
	}
	return fmt.Sprintf("%d lines", n)
}

// CountLines counts the lines of s. A trailing newline does not start a new
// line and the empty string has none.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// SummarizeToolResult summarizes the content of a tool result. A nil or empty
// raw value means the tool produced nothing worth showing.
func SummarizeToolResult(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "done"
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return TruncateLine(string(raw), valueMaxChars)
	}

	switch v := value.(type) {
	case string:
		return SummarizeText(v)
	case []any:
		var texts []string
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			if obj["type"] != "text" {
				continue
			}
			if text, ok := obj["text"].(string); ok {
				texts = append(texts, text)
			}
		}
		if len(texts) == 0 {
			return fmt.Sprintf("%d items", len(v))
		}
		return SummarizeText(strings.Join(texts, " "))
	default:
		compact, err := json.Marshal(v)
		if err != nil {
			return TruncateLine(string(raw), valueMaxChars)
		}
		return TruncateLine(string(compact), valueMaxChars)
	}
}

// SummarizeCommandOutput summarizes the captured output of a shell command.
// Absent output summarizes to the empty string.
func SummarizeCommandOutput(output *string) string {
	if output == nil {
		return ""
	}
	return SummarizeText(*output)
}
