// Package ui renders batch-mode progress: a live echo of both agents'
// output with role headers, coloured when the terminal allows it.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/relay"
	"github.com/rsdouglas/leonard/internal/transcript"
)

// Printer echoes agent output as it streams. It implements relay.Reporter.
type Printer struct {
	out io.Writer

	producerHeader lipgloss.Style
	reviewerHeader lipgloss.Style
	text           lipgloss.Style
	tool           lipgloss.Style
	toolResult     lipgloss.Style
	reasoning      lipgloss.Style
	command        lipgloss.Style
	errStyle       lipgloss.Style
	dim            lipgloss.Style

	// atLineStart tracks whether the last write ended with a newline.
	atLineStart bool
}

var _ relay.Reporter = (*Printer)(nil)

// NewPrinter returns a Printer writing to out. Colour follows the
// environment: NO_COLOR, TERM=dumb and non-terminal writers get plain text.
func NewPrinter(out io.Writer) *Printer {
	profile := termenv.NewOutput(out).EnvColorProfile()
	r := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	r.SetColorProfile(profile)

	return &Printer{
		out:            out,
		producerHeader: r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		reviewerHeader: r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		text:           r.NewStyle(),
		tool:           r.NewStyle().Foreground(lipgloss.Color("14")),
		toolResult:     r.NewStyle().Foreground(lipgloss.Color("6")).Faint(true),
		reasoning:      r.NewStyle().Foreground(lipgloss.Color("5")).Faint(true),
		command:        r.NewStyle().Foreground(lipgloss.Color("13")),
		errStyle:       r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dim:            r.NewStyle().Faint(true),
		atLineStart:    true,
	}
}

// InvocationStarted prints the role header.
func (p *Printer) InvocationStarted(step relay.Step) {
	label := fmt.Sprintf("=== %s (turn %d) ===", strings.ToUpper(step.Role.String()), step.Turn)
	if step.Role == transcript.Producer && step.Turn == 0 {
		label = "=== PRODUCER ==="
	}
	style := p.producerHeader
	if step.Role == transcript.Reviewer {
		style = p.reviewerHeader
	}
	p.ensureNewline()
	p.writeLine(style.Render(label))
}

// Event echoes one streamed event.
func (p *Printer) Event(_ transcript.Role, ev protocol.Event) {
	if ev.Kind == protocol.EventToolResult {
		p.ensureNewline()
		p.writeLine(p.toolResult.Render("  -> " + ev.Summary))
		return
	}
	item, ok := ev.Item()
	if !ok {
		return
	}
	for _, line := range transcript.FormatItem(item) {
		switch line.Kind {
		case transcript.ItemText:
			// Agent prose is printed as-is, escape sequences included.
			p.ensureNewline()
			p.write(line.Text)
			p.ensureNewline()
		default:
			p.ensureNewline()
			p.writeLine(p.styleFor(line.Kind).Render(line.Text))
		}
	}
}

// InvocationFinished ends the block, reporting err if the agent failed.
func (p *Printer) InvocationFinished(role transcript.Role, err error) {
	p.ensureNewline()
	if err != nil {
		p.writeLine(p.errStyle.Render(fmt.Sprintf("%s failed: %v", role, err)))
	}
	p.writeLine("")
}

// Summary prints the closing line of a session.
func (p *Printer) Summary(reason relay.Reason, turns int) {
	p.ensureNewline()
	p.writeLine(p.dim.Render(fmt.Sprintf("done after %d turn(s): %s", turns, reason)))
}

func (p *Printer) styleFor(kind transcript.ItemKind) lipgloss.Style {
	switch kind {
	case transcript.ItemToolCall:
		return p.tool
	case transcript.ItemReasoning:
		return p.reasoning
	case transcript.ItemCommand:
		return p.command
	default:
		return p.text
	}
}

func (p *Printer) ensureNewline() {
	if !p.atLineStart {
		p.write("\n")
	}
}

func (p *Printer) writeLine(s string) {
	p.write(s + "\n")
}

func (p *Printer) write(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(p.out, s)
	p.atLineStart = strings.HasSuffix(s, "\n")
}
