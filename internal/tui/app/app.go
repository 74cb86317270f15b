// Package app provides the dashboard application: it drives the relay
// machine from the Bubble Tea event loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rsdouglas/leonard/internal/agent"
	"github.com/rsdouglas/leonard/internal/log"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/transcript"
	"github.com/rsdouglas/leonard/internal/tui"
	"github.com/rsdouglas/leonard/internal/tui/commands"
	"github.com/rsdouglas/leonard/internal/tui/views"
)

// inputHeight is the number of text rows in the input pane.
const inputHeight = 5

// ctrlCWindow is how long a first ctrl+c waits for its confirmation.
const ctrlCWindow = 2 * time.Second

// Config wires the dashboard to a relay session.
type Config struct {
	Machine  *relay.Machine
	Producer relay.Streamer
	Reviewer relay.Streamer
	// DebugLog and Logger are optional.
	DebugLog *log.Logger
	Logger   *slog.Logger
}

// App is the dashboard model.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	machine  *relay.Machine
	producer relay.Streamer
	reviewer relay.Streamer
	debugLog *log.Logger
	logger   *slog.Logger

	state tui.AppState
	keys  tui.KeyMap

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model

	// buffer holds the message the in-flight invocation is producing.
	buffer   transcript.Buffer
	inFlight bool
	current  relay.Step
	updates  <-chan agent.Update
	seq      int

	status       string
	err          error
	ctrlCPending bool
	quitting     bool

	width  int
	height int
}

// New creates the dashboard. Invocations run under ctx and are cancelled
// when the user quits.
func New(ctx context.Context, cfg Config) *App {
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ta := textarea.New()
	ta.Placeholder = "Describe the task..."
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	// enter submits; alt+enter is handled by the app.
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.ThinkingStyle

	a := &App{
		ctx:      ctx,
		cancel:   cancel,
		machine:  cfg.Machine,
		producer: cfg.Producer,
		reviewer: cfg.Reviewer,
		debugLog: cfg.DebugLog,
		logger:   logger,
		keys:     tui.DefaultKeyMap,
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		help:     help.New(),
		state:    tui.StateWaitingForTask,
	}
	opts := cfg.Machine.Options()
	if strings.TrimSpace(opts.Task) != "" || strings.TrimSpace(opts.Context) != "" {
		a.state = tui.StateRunning
	}
	a.resize(80, 24)
	return a
}

// Init starts the spinner and either the first invocation or the task
// prompt.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.begin())
}

// begin returns the opening command for the current state.
func (a *App) begin() tea.Cmd {
	if a.state == tui.StateWaitingForTask {
		a.status = "Enter a task to start the relay."
		return a.input.Focus()
	}
	a.record(relay.SessionStartedEvent(a.machine.Options()))
	step, err := a.machine.Start()
	if err != nil {
		a.fail(err)
		return nil
	}
	return a.start(step)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tui.InvocationStartedMsg:
		if msg.Seq != a.seq {
			return a, nil
		}
		a.updates = msg.Updates
		return a, a.listen()

	case tui.UpdatesMsg:
		if msg.Seq != a.seq || !a.inFlight {
			return a, nil
		}
		return a, a.handleUpdates(msg)

	case tui.TickMsg:
		if msg.Seq != a.seq || !a.inFlight || a.updates == nil {
			return a, nil
		}
		return a, a.listen()

	case tui.CtrlCResetMsg:
		a.ctrlCPending = false
		return a, nil

	case tui.CopiedMsg:
		if msg.Err != nil {
			a.err = fmt.Errorf("copying to clipboard: %w", msg.Err)
		} else {
			a.status = fmt.Sprintf("Copied %d bytes to the clipboard.", msg.Bytes)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.state.TakesInput() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.CtrlC) {
		return a.handleCtrlC()
	}
	a.ctrlCPending = false

	switch a.state {
	case tui.StateWaitingForTask:
		return a.handleInputKey(msg, a.submitTask)
	case tui.StateEditing:
		if key.Matches(msg, a.keys.Cancel) {
			a.cancelEdit()
			return a, nil
		}
		return a.handleInputKey(msg, a.submitEdit)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.quit()

	case key.Matches(msg, a.keys.Pause) && a.state == tui.StateRunning:
		a.state = tui.StatePaused
		if a.inFlight {
			a.status = "Pausing after the current invocation finishes."
		} else {
			a.status = "Paused. Press 'c' to continue, 'e' to edit."
		}
		return a, nil

	case key.Matches(msg, a.keys.Continue) && a.state == tui.StatePaused:
		return a, a.resume()

	case key.Matches(msg, a.keys.Edit) && a.state == tui.StatePaused && !a.inFlight:
		return a, a.beginEdit()

	case key.Matches(msg, a.keys.Copy):
		last, ok := a.machine.Transcript().Last()
		if !ok {
			a.status = "Nothing to copy yet."
			return a, nil
		}
		return a, commands.CopyCmd(last.PlainText())

	case key.Matches(msg, a.keys.Up):
		a.viewport.LineUp(1)
	case key.Matches(msg, a.keys.Down):
		a.viewport.LineDown(1)
	case key.Matches(msg, a.keys.PageUp):
		a.viewport.ViewUp()
	case key.Matches(msg, a.keys.PageDown):
		a.viewport.ViewDown()
	case key.Matches(msg, a.keys.Home):
		a.viewport.GotoTop()
	case key.Matches(msg, a.keys.End):
		a.viewport.GotoBottom()
	}
	return a, nil
}

// handleInputKey routes a key to the input pane; enter calls submit.
func (a *App) handleInputKey(msg tea.KeyMsg, submit func() tea.Cmd) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		return a, submit()
	case key.Matches(msg, a.keys.NewLine):
		a.input.InsertString("\n")
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleCtrlC() (tea.Model, tea.Cmd) {
	switch {
	case a.state == tui.StateEditing:
		a.cancelEdit()
		return a, nil
	case a.inFlight && !a.ctrlCPending:
		a.ctrlCPending = true
		a.status = fmt.Sprintf("The %s is still running. Press ctrl+c again to quit.", a.current.Role)
		return a, tea.Tick(ctrlCWindow, func(time.Time) tea.Msg {
			return tui.CtrlCResetMsg{}
		})
	}
	return a, a.quit()
}

func (a *App) submitTask() tea.Cmd {
	task := strings.TrimSpace(a.input.Value())
	if task == "" {
		return nil
	}
	a.machine.SetTask(task)
	a.input.Reset()
	a.input.Blur()
	a.state = tui.StateRunning
	a.err = nil
	return a.begin()
}

func (a *App) beginEdit() tea.Cmd {
	last, ok := a.machine.Transcript().Last()
	if !ok {
		a.status = "Nothing to edit yet."
		return nil
	}
	a.state = tui.StateEditing
	a.input.SetValue(last.PlainText())
	a.status = fmt.Sprintf("Editing the last %s message.", last.Role)
	a.resize(a.width, a.height)
	return a.input.Focus()
}

func (a *App) cancelEdit() {
	a.input.Reset()
	a.input.Blur()
	a.state = tui.StatePaused
	a.status = "Edit cancelled. Press 'c' to continue."
	a.resize(a.width, a.height)
}

func (a *App) submitEdit() tea.Cmd {
	text := a.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	step, err := a.machine.Edit(text)
	if err != nil {
		a.err = err
		a.cancelEdit()
		return nil
	}
	last, _ := a.machine.Transcript().Last()
	a.record(log.LogEvent{Event: log.EventMessageEdited, Role: last.Role.String(), Turn: last.Turn, Bytes: len(text), Content: text})

	a.input.Reset()
	a.input.Blur()
	a.state = tui.StateRunning
	a.err = nil
	a.resize(a.width, a.height)
	a.refresh()
	return a.start(step)
}

// resume leaves Paused. A still-running invocation simply advances when it
// finishes; otherwise the agent that logically comes next is invoked.
func (a *App) resume() tea.Cmd {
	a.state = tui.StateRunning
	a.err = nil
	if a.inFlight {
		a.status = fmt.Sprintf("Running %s...", a.current.Role)
		return nil
	}
	step, err := a.machine.Next()
	if err != nil {
		a.fail(err)
		return nil
	}
	return a.start(step)
}

// start launches step. Only one invocation is ever in flight.
func (a *App) start(step relay.Step) tea.Cmd {
	a.seq++
	a.current = step
	a.inFlight = true
	a.updates = nil
	a.buffer.Start(step.Role)
	a.status = fmt.Sprintf("Running %s...", step.Role)

	a.record(log.LogEvent{
		Event:   log.EventPromptSent,
		Role:    step.Role.String(),
		Turn:    step.Turn,
		Bytes:   len(step.Invocation.Prompt),
		Content: step.Invocation.Prompt,
	})
	a.refresh()

	return commands.StartInvocationCmd(a.ctx, a.streamer(step.Role), step, a.seq)
}

func (a *App) streamer(role transcript.Role) relay.Streamer {
	if role == transcript.Reviewer {
		return a.reviewer
	}
	return a.producer
}

// listen polls the in-flight invocation's update channel.
func (a *App) listen() tea.Cmd {
	return commands.ListenCmd(a.seq, a.updates)
}

// handleUpdates applies streamed events in order and finishes the
// invocation on its final update.
func (a *App) handleUpdates(msg tui.UpdatesMsg) tea.Cmd {
	for _, u := range msg.Updates {
		if u.Done {
			return a.finish(u.Result, u.Err)
		}
		u.Event.Apply(&a.buffer)
	}
	a.refresh()

	if msg.Closed {
		return a.finish(nil, fmt.Errorf("%s: %w", a.current.Role, agent.ErrCanceled))
	}
	return a.listen()
}

// finish commits the buffered message and advances the relay.
func (a *App) finish(result *agent.Result, err error) tea.Cmd {
	role, items := a.buffer.Flush()
	a.inFlight = false
	a.ctrlCPending = false
	defer a.refresh()

	if a.quitting {
		return nil
	}

	if err != nil {
		a.machine.Fail(role, items, err)
		a.record(log.LogEvent{Event: log.EventInvocationFailed, Role: role.String(), Turn: a.current.Turn, Error: err.Error()})
		if finished, _ := a.machine.Finished(); finished {
			a.finished()
		}
		a.fail(err)
		return nil
	}

	output := transcript.Format(items)
	ev := log.LogEvent{Event: log.EventAgentOutput, Role: role.String(), Turn: a.current.Turn, Bytes: len(output), Content: output}
	if result != nil && result.CostUSD > 0 {
		ev.Data = map[string]interface{}{"cost_usd": result.CostUSD}
	}
	a.record(ev)

	next, ok, err := a.machine.Complete(role, items)
	if err != nil {
		a.fail(err)
		return nil
	}
	if !ok {
		a.finished()
		return nil
	}

	if a.state != tui.StateRunning {
		a.status = "Paused. Press 'c' to continue, 'e' to edit."
		return nil
	}
	return a.start(next)
}

// finished moves to the terminal state once the machine has finished.
func (a *App) finished() {
	_, reason := a.machine.Finished()
	a.state = tui.StateFinished
	a.status = fmt.Sprintf("Finished after %d turn(s): %s. Press 'q' to quit.", a.machine.Turn(), reason)
	a.record(log.LogEvent{Event: log.EventSessionFinished, Turn: a.machine.Turn(), Reason: reason.String()})
}

// fail surfaces err and pauses the session.
func (a *App) fail(err error) {
	a.err = err
	if a.state != tui.StateFinished {
		a.state = tui.StatePaused
	}
	a.status = ""
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	if finished, _ := a.machine.Finished(); !finished && a.machine.Transcript().Len() > 0 {
		a.record(log.LogEvent{Event: log.EventSessionFinished, Turn: a.machine.Turn(), Reason: "quit"})
	}
	a.cancel()
	return tea.Quit
}

// View renders the dashboard.
func (a *App) View() string {
	var spin string
	if a.inFlight {
		spin = a.spinner.View()
	}
	opts := a.machine.Options()
	task := opts.Task
	if task == "" && opts.Context != "" {
		task = "(from context file)"
	}

	sections := []string{
		views.Header(task, a.machine.Turn(), opts.MaxTurns, a.state, spin, a.width),
		a.viewport.View(),
	}
	switch a.state {
	case tui.StateWaitingForTask:
		sections = append(sections, views.InputBox("Task", a.input.View(), a.width))
	case tui.StateEditing:
		sections = append(sections, views.InputBox("Edit message", a.input.View(), a.width))
	}

	helpText := a.help.ShortHelpView(a.keys.ForState(a.state, a.inFlight))
	sections = append(sections, views.StatusBar(a.status, a.err, helpText, a.width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// resize lays the panes out for a width x height terminal.
func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	// Header and status bar take a line each.
	vpHeight := height - 2
	if a.state.TakesInput() {
		// Text rows, title and border.
		vpHeight -= inputHeight + 3
	}
	if vpHeight < 3 {
		vpHeight = 3
	}
	a.viewport.Width = width
	a.viewport.Height = vpHeight
	a.input.SetWidth(width - 4)
	a.help.Width = width
	a.refresh()
}

// refresh re-renders the transcript pane, following new output while the
// view is scrolled to the bottom.
func (a *App) refresh() {
	follow := a.viewport.AtBottom()
	tr := a.machine.Transcript()
	a.viewport.SetContent(views.Transcript(tr.Messages(), &a.buffer, a.inFlight, a.machine.Turn(), a.width))
	if follow {
		a.viewport.GotoBottom()
	}
}

func (a *App) record(ev log.LogEvent) {
	if err := a.debugLog.Append(ev); err != nil {
		a.logger.Warn("debug log write failed", "error", err)
	}
}
