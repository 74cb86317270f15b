// Package views renders the panes of the dashboard.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rsdouglas/leonard/internal/textutil"
	"github.com/rsdouglas/leonard/internal/transcript"
	"github.com/rsdouglas/leonard/internal/tui"
)

// maxTextLine caps each displayed line of agent prose.
const maxTextLine = 500

// Transcript renders the committed messages followed by the message still
// streaming into live, wrapped to width.
func Transcript(msgs []transcript.Message, live *transcript.Buffer, inFlight bool, turn, width int) string {
	var lines []string

	for i, msg := range msgs {
		if i > 0 {
			lines = append(lines, "")
		}
		label := fmt.Sprintf("=== %s (turn %d) ===", strings.ToUpper(msg.Role.String()), msg.Turn)
		lines = append(lines, labelStyle(msg.Role).Render(label))
		lines = append(lines, renderItems(msg.Items)...)
		if msg.Err != "" {
			lines = append(lines, tui.ErrorStyle.Render("  ! "+msg.Err))
		}
	}

	if live != nil && live.Active() && (live.Len() > 0 || inFlight) {
		if len(msgs) > 0 {
			lines = append(lines, "")
		}
		label := fmt.Sprintf("=== %s (turn %d) [streaming...] ===", strings.ToUpper(live.Role().String()), turn)
		lines = append(lines, labelStyle(live.Role()).Render(label))
		lines = append(lines, renderItems(live.Items())...)
	}

	content := strings.Join(lines, "\n")
	if width <= 0 {
		return content
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}

func renderItems(items []transcript.ContentItem) []string {
	var lines []string
	for _, item := range items {
		for _, l := range transcript.FormatItem(item) {
			switch l.Kind {
			case transcript.ItemText:
				for _, text := range strings.Split(strings.TrimSuffix(l.Text, "\n"), "\n") {
					lines = append(lines, textutil.TruncateLine(strings.TrimSuffix(text, "\r"), maxTextLine))
				}
			case transcript.ItemToolCall:
				lines = append(lines, tui.ToolStyle.Render(l.Text))
			case transcript.ItemReasoning:
				lines = append(lines, tui.ThinkingStyle.Render(l.Text))
			case transcript.ItemCommand:
				lines = append(lines, tui.CommandStyle.Render(l.Text))
			}
		}
	}
	return lines
}

func labelStyle(role transcript.Role) lipgloss.Style {
	if role == transcript.Reviewer {
		return tui.ReviewerLabelStyle
	}
	return tui.ProducerLabelStyle
}
