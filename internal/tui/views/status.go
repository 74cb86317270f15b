package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rsdouglas/leonard/internal/textutil"
	"github.com/rsdouglas/leonard/internal/tui"
)

// Header renders the top line: task, turn counter and state badge.
func Header(task string, turn, maxTurns int, state tui.AppState, spinner string, width int) string {
	turns := fmt.Sprintf("turn %d", turn)
	if maxTurns > 0 {
		turns = fmt.Sprintf("turn %d/%d", turn, maxTurns)
	}

	badge := tui.StateStyle(state).Render(state.String())
	right := tui.DimStyle.Render(turns) + " " + badge
	if spinner != "" {
		right = spinner + " " + right
	}

	title := tui.TitleStyle.Render("Leonard")
	if task = firstLine(task); task != "" {
		room := width - lipgloss.Width(title) - lipgloss.Width(right) - 4
		if room > 0 {
			title += "  " + textutil.TruncateWidth(task, room)
		}
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

// StatusBar renders the bottom line. err, when set, takes precedence over
// the status text.
func StatusBar(status string, err error, help string, width int) string {
	msg := status
	if err != nil {
		msg = tui.ErrorStyle.Render("error: " + firstLine(err.Error()))
	}
	line := msg
	if help != "" {
		if line != "" {
			line += tui.DimStyle.Render(" | ")
		}
		line += help
	}
	if width > 2 {
		line = textutil.TruncateWidth(line, width-2)
	}
	return tui.StatusBarStyle.Width(width).Render(line)
}

// InputBox frames the input pane with a title.
func InputBox(title, body string, width int) string {
	w := width - 2
	if w < 1 {
		w = 1
	}
	return tui.InputBoxStyle.Width(w).Render(tui.DimStyle.Render(title) + "\n" + body)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
