// Package agent spawns the producer and reviewer CLIs and streams their
// decoded output.
package agent

import (
	"fmt"
	"os"
	"strings"

	"github.com/rsdouglas/leonard/internal/protocol"
	"github.com/rsdouglas/leonard/internal/transcript"
)

// Default binaries and credential variables.
const (
	DefaultProducerBinary = "claude"
	DefaultReviewerBinary = "codex"
	ProducerEnvKey        = "ANTHROPIC_API_KEY"
	ReviewerEnvKey        = "OPENAI_API_KEY"
)

// Options customizes how an agent CLI is invoked.
type Options struct {
	Binary    string
	EnvKey    string
	ExtraArgs []string
}

// Invocation is a single call of an agent.
type Invocation struct {
	Prompt string
	// Dir is the child's working directory; empty means the current one.
	Dir string
	// Continue asks the agent to resume its most recent session.
	Continue bool
}

// Agent describes how to run one agent CLI and decode its output.
type Agent struct {
	Role      transcript.Role
	Binary    string
	EnvKey    string
	ExtraArgs []string

	args       func(inv Invocation, extra []string) []string
	env        []string
	newDecoder func() protocol.Decoder
}

// Producer returns the claude agent that performs the work.
func Producer(opts Options) Agent {
	return Agent{
		Role:       transcript.Producer,
		Binary:     orDefault(opts.Binary, DefaultProducerBinary),
		EnvKey:     orDefault(opts.EnvKey, ProducerEnvKey),
		ExtraArgs:  opts.ExtraArgs,
		args:       claudeArgs,
		env:        []string{"TERM=xterm-256color"},
		newDecoder: func() protocol.Decoder { return protocol.NewClaudeDecoder() },
	}
}

// Reviewer returns the codex agent that critiques the producer's work.
func Reviewer(opts Options) Agent {
	return Agent{
		Role:       transcript.Reviewer,
		Binary:     orDefault(opts.Binary, DefaultReviewerBinary),
		EnvKey:     orDefault(opts.EnvKey, ReviewerEnvKey),
		ExtraArgs:  opts.ExtraArgs,
		args:       codexArgs,
		newDecoder: func() protocol.Decoder { return protocol.NewCodexDecoder() },
	}
}

// Name is the label used in logs and errors, e.g. "producer (claude)".
func (a Agent) Name() string {
	return fmt.Sprintf("%s (%s)", a.Role, a.Binary)
}

// Args returns the argument list for inv.
func (a Agent) Args(inv Invocation) []string {
	return a.args(inv, a.ExtraArgs)
}

// CredentialWarning describes a missing or empty credential variable, or
// returns "" when it is set. A missing key is not fatal since the CLI may be
// logged in by other means.
func (a Agent) CredentialWarning() string {
	if a.EnvKey == "" {
		return ""
	}
	value, ok := os.LookupEnv(a.EnvKey)
	switch {
	case !ok:
		return fmt.Sprintf("%s not set (used by %s)", a.EnvKey, a.Name())
	case strings.TrimSpace(value) == "":
		return fmt.Sprintf("%s is empty (used by %s)", a.EnvKey, a.Name())
	default:
		return ""
	}
}

func (a Agent) environ() []string {
	return append(os.Environ(), a.env...)
}

// claudeArgs builds `claude -p` arguments for streaming JSON with edits
// auto-accepted.
func claudeArgs(inv Invocation, extra []string) []string {
	args := []string{
		"-p",
		"--verbose",
		"--output-format", "stream-json",
		"--dangerously-skip-permissions",
		"--permission-mode", "acceptEdits",
	}
	if inv.Continue {
		args = append(args, "--continue")
	}
	args = append(args, extra...)
	return append(args, inv.Prompt)
}

// codexArgs builds `codex exec` arguments. A fresh session runs in the
// read-only sandbox; a continuation resumes the last session instead.
func codexArgs(inv Invocation, extra []string) []string {
	args := []string{"exec", "--skip-git-repo-check"}
	if inv.Continue {
		args = append(args, "resume", "--last", "--json")
	} else {
		args = append(args, "--sandbox", "read-only", "--json")
		if inv.Dir != "" {
			args = append(args, "-C", inv.Dir)
		}
	}
	args = append(args, extra...)
	return append(args, inv.Prompt)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
