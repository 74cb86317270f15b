package transcript

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rsdouglas/leonard/internal/textutil"
)

// Format renders items as plain text. The same rendering is shown to the user
// and forwarded to the other agent, so the two never disagree.
func Format(items []ContentItem) string {
	var b strings.Builder
	for _, item := range items {
		for _, line := range FormatItem(item) {
			if line.Kind == ItemText {
				s := b.String()
				if s != "" && !strings.HasSuffix(s, "\n") {
					b.WriteByte('\n')
				}
				b.WriteString(line.Text)
				if !strings.HasSuffix(line.Text, "\n") {
					b.WriteByte('\n')
				}
				continue
			}
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// Line is one rendered fragment of an item, tagged with the kind of item it
// came from so renderers can style it.
type Line struct {
	Kind ItemKind
	Text string
}

// FormatItem renders a single item. Text items yield one fragment holding the
// whole text; the others yield one fragment per output line.
func FormatItem(item ContentItem) []Line {
	switch item.Kind {
	case ItemText:
		return []Line{{Kind: ItemText, Text: item.Text}}
	case ItemToolCall:
		summary := "..."
		if item.Tool.Resolved {
			summary = item.Tool.Summary
		}
		return []Line{{
			Kind: ItemToolCall,
			Text: fmt.Sprintf("  [%s] %s", item.Tool.Name, textutil.TruncateLine(summary, 80)),
		}}
	case ItemReasoning:
		var lines []Line
		for _, l := range splitLines(item.Text) {
			lines = append(lines, Line{
				Kind: ItemReasoning,
				Text: "  thinking: " + textutil.TruncateLine(l, 80),
			})
		}
		return lines
	case ItemCommand:
		return []Line{{Kind: ItemCommand, Text: formatCommand(item.Command)}}
	default:
		return nil
	}
}

func formatCommand(c Command) string {
	if c.State == CommandInProgress {
		return "  running: " + textutil.TruncateLine(c.Command, 60)
	}
	if c.OutputSummary == "" {
		return fmt.Sprintf("  [exit %d] %s", c.ExitCode, textutil.TruncateLine(c.Command, 60))
	}
	return fmt.Sprintf("  [exit %d] %s -> %s",
		c.ExitCode,
		textutil.TruncateLine(c.Command, 40),
		textutil.TruncateLine(c.OutputSummary, 30))
}

// splitLines splits s into lines without producing a trailing empty line for
// a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
