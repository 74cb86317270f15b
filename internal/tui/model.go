// Package tui implements the interactive dashboard using Bubble Tea.
package tui

// AppState is the dashboard's interaction state.
type AppState int

const (
	StateWaitingForTask AppState = iota // No task yet; the input pane takes one
	StateRunning
	StatePaused
	StateEditing
	StateFinished
)

// String returns the label shown in the header.
func (s AppState) String() string {
	switch s {
	case StateWaitingForTask:
		return "ENTER TASK"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateEditing:
		return "EDITING"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// TakesInput reports whether the input pane is active in this state.
func (s AppState) TakesInput() bool {
	return s == StateWaitingForTask || s == StateEditing
}
