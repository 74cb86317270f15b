// Package testutil provides test helpers: temporary projects and fake agent
// binaries that replay canned JSONL.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PromptSeparator terminates each prompt a fake agent records.
const PromptSeparator = "--- end of prompt ---"

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// FakeAgent describes a scripted stand-in for an agent CLI.
type FakeAgent struct {
	// Responses holds the stdout lines of each successive invocation. Calls
	// beyond the last entry repeat it.
	Responses [][]string
	Stderr    string
	ExitCode  int
	// Hang keeps the process alive after writing its output until killed.
	Hang bool
}

// WriteFakeAgent writes an executable /bin/sh script named name into dir and
// returns its path. Each run appends its arguments to name.args and its last
// argument (the prompt) to name.prompts, followed by PromptSeparator.
// Invoked with --version it prints a version and exits.
func WriteFakeAgent(t *testing.T, dir, name string, fake FakeAgent) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("if [ \"$1\" = \"--version\" ]; then echo \"" + name + " 0.0.0-fake\"; exit 0; fi\n")
	fmt.Fprintf(&b, "state=%q\n", filepath.Join(dir, name))
	b.WriteString("n=$(cat \"$state.count\" 2>/dev/null || echo 0)\n")
	b.WriteString("n=$((n+1))\n")
	b.WriteString("echo \"$n\" > \"$state.count\"\n")
	b.WriteString("for arg; do last=\"$arg\"; done\n")
	b.WriteString("printf '%s\\n' \"$*\" >> \"$state.args\"\n")
	fmt.Fprintf(&b, "printf '%%s\\n%%s\\n' \"$last\" %q >> \"$state.prompts\"\n", PromptSeparator)

	b.WriteString("case \"$n\" in\n")
	for i, lines := range fake.Responses {
		if i == len(fake.Responses)-1 {
			b.WriteString("*)\n")
		} else {
			fmt.Fprintf(&b, "%d)\n", i+1)
		}
		b.WriteString("cat <<'LEONARD_FAKE_EOF'\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("LEONARD_FAKE_EOF\n;;\n")
	}
	b.WriteString("esac\n")

	if fake.Stderr != "" {
		fmt.Fprintf(&b, "printf '%%s\\n' %q >&2\n", fake.Stderr)
	}
	if fake.Hang {
		b.WriteString("exec sleep 60\n")
	}
	fmt.Fprintf(&b, "exit %d\n", fake.ExitCode)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0755); err != nil {
		t.Fatalf("writing fake agent %s: %v", name, err)
	}
	return path
}

// RecordedPrompts returns the prompts a fake agent received, in order.
func RecordedPrompts(t *testing.T, dir, name string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".prompts"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("reading prompts of %s: %v", name, err)
	}
	parts := strings.Split(string(data), PromptSeparator+"\n")
	var prompts []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		prompts = append(prompts, strings.TrimSuffix(p, "\n"))
	}
	return prompts
}

// RecordedArgs returns everything a fake agent logged as its arguments,
// one invocation after another.
func RecordedArgs(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".args"))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("reading args of %s: %v", name, err)
	}
	return string(data)
}
