package commands

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rsdouglas/leonard/internal/tui"
)

// CopyCmd writes text to the system clipboard.
func CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return tui.CopiedMsg{Err: err}
		}
		return tui.CopiedMsg{Bytes: len(text)}
	}
}
