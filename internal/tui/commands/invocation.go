// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/tui"
)

// pollInterval bounds how long ListenCmd waits for the first update.
const pollInterval = 100 * time.Millisecond

// StartInvocationCmd launches step on s. The agent runs in the streamer's
// own goroutine; the returned message hands its update channel to the TUI.
func StartInvocationCmd(ctx context.Context, s relay.Streamer, step relay.Step, seq int) tea.Cmd {
	return func() tea.Msg {
		return tui.InvocationStartedMsg{
			Seq:     seq,
			Step:    step,
			Updates: s.Stream(ctx, step.Invocation),
		}
	}
}

// ListenCmd polls updates. It waits up to pollInterval for the first update,
// then drains whatever else is already pending so a burst of output costs a
// single render. Returns TickMsg on timeout to keep polling.
func ListenCmd(seq int, updates <-chan agent.Update) tea.Cmd {
	return func() tea.Msg {
		msg := tui.UpdatesMsg{Seq: seq}

		select {
		case u, ok := <-updates:
			if !ok {
				msg.Closed = true
				return msg
			}
			msg.Updates = append(msg.Updates, u)
		case <-time.After(pollInterval):
			return tui.TickMsg{Seq: seq}
		}

		for {
			select {
			case u, ok := <-updates:
				if !ok {
					msg.Closed = true
					return msg
				}
				msg.Updates = append(msg.Updates, u)
			default:
				return msg
			}
		}
	}
}
