package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the dashboard.
type KeyMap struct {
	// Session control
	Pause    key.Binding
	Continue key.Binding
	Edit     key.Binding
	Copy     key.Binding
	Quit     key.Binding
	CtrlC    key.Binding

	// Scrolling
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Input pane
	Submit  key.Binding
	NewLine key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap provides the default key bindings.
var DefaultKeyMap = KeyMap{
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Continue: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "continue"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("^C", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "bottom"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	NewLine: key.NewBinding(
		key.WithKeys("alt+enter"),
		key.WithHelp("alt+enter", "new line"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// scrollHelp is the combined hint for the scrolling keys.
var scrollHelp = key.NewBinding(
	key.WithKeys("j", "k"),
	key.WithHelp("j/k", "scroll"),
)

// ForState returns the bindings worth advertising in state. inFlight is
// true while an agent invocation is running.
func (k KeyMap) ForState(state AppState, inFlight bool) []key.Binding {
	switch state {
	case StateWaitingForTask:
		return []key.Binding{k.Submit, k.NewLine, k.CtrlC}
	case StateRunning:
		return []key.Binding{k.Pause, k.Copy, k.CtrlC, scrollHelp}
	case StatePaused:
		if inFlight {
			return []key.Binding{k.Continue, k.CtrlC, scrollHelp}
		}
		return []key.Binding{k.Continue, k.Edit, k.Copy, k.Quit, scrollHelp}
	case StateEditing:
		return []key.Binding{k.Submit, k.NewLine, k.Cancel}
	default:
		return []key.Binding{k.Copy, k.Quit, scrollHelp}
	}
}
