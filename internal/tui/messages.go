package tui

import (
	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/relay"
)

// InvocationStartedMsg signals that an agent process has been launched.
type InvocationStartedMsg struct {
	Seq     int
	Step    relay.Step
	Updates <-chan agent.Update
}

// UpdatesMsg carries every update that was pending on an invocation's
// channel. Closed is set once the channel has been drained and closed.
type UpdatesMsg struct {
	Seq     int
	Updates []agent.Update
	Closed  bool
}

// TickMsg is returned when a poll times out with nothing to report.
type TickMsg struct {
	Seq int
}

// CtrlCResetMsg clears a pending ctrl+c confirmation.
type CtrlCResetMsg struct{}

// CopiedMsg reports the outcome of a clipboard copy.
type CopiedMsg struct {
	Bytes int
	Err   error
}
