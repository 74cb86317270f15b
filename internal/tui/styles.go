package tui

import "github.com/charmbracelet/lipgloss"

// Color constants.
const (
	producerColor = "#06B6D4" // Cyan
	reviewerColor = "#D946EF" // Magenta
	toolColor     = "#10B981" // Green
	thinkingColor = "#F59E0B" // Amber
	commandColor  = "#8B5CF6" // Violet
	errorColor    = "#EF4444" // Red
	dimColor      = "#6B7280" // Gray
)

// Style variables for consistent rendering.
var (
	// TitleStyle renders the header title.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(producerColor)).
			Bold(true)

	// ProducerLabelStyle renders producer message headers.
	ProducerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(producerColor)).
				Bold(true)

	// ReviewerLabelStyle renders reviewer message headers.
	ReviewerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(reviewerColor)).
				Bold(true)

	// ToolStyle renders tool call lines.
	ToolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(toolColor))

	// ThinkingStyle renders reasoning lines.
	ThinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(thinkingColor)).
			Faint(true)

	// CommandStyle renders shell command lines.
	CommandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(commandColor))

	// DimStyle renders dim/muted text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// ErrorStyle renders error messages in red.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// InputBoxStyle frames the task/edit input pane.
	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(reviewerColor))

	// StatusBarStyle provides styling for the status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)
)

// StateStyle returns the badge style for state.
func StateStyle(state AppState) lipgloss.Style {
	colors := map[AppState]string{
		StateRunning:        "#22C55E",
		StatePaused:         "#EAB308",
		StateEditing:        "#3B82F6",
		StateWaitingForTask: reviewerColor,
		StateFinished:       dimColor,
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(colors[state])).
		Foreground(lipgloss.Color("#000000")).
		Bold(true).
		Padding(0, 1)
}
