// Package log provides the optional debug log: an append-only JSONL record
// of every prompt sent to an agent and every block of output it returned.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventPromptSent       = "prompt_sent"
	EventAgentOutput      = "agent_output"
	EventInvocationFailed = "invocation_failed"
	EventMessageEdited    = "message_edited"
	EventSessionFinished  = "session_finished"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time    time.Time              `json:"time"`
	Event   string                 `json:"event"`
	Session string                 `json:"session"`
	Role    string                 `json:"role,omitempty"`
	Turn    int                    `json:"turn"`
	Bytes   int                    `json:"bytes,omitempty"`
	Content string                 `json:"content,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file. A nil *Logger is
// valid and records nothing.
type Logger struct {
	path    string
	session string
	mu      sync.Mutex
}

// NewLogger creates a Logger that appends to path, creating parent
// directories as needed. Each Logger tags its events with a fresh session
// id. Does not truncate an existing log file.
func NewLogger(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	return &Logger{
		path:    path,
		session: uuid.NewString(),
	}, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Session returns the id stamped on this logger's events.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
// Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if l == nil {
		return nil
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	event.Session = l.session

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the logger's file.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	if l == nil {
		return nil, nil
	}
	return ReadAll(l.path)
}

// ReadAll reads and parses all events from the log file at path.
// Returns an empty slice (not an error) if the file does not exist.
func ReadAll(path string) ([]LogEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}

// Label returns the heading used when printing an event, such as
// "PRODUCER PROMPT (turn 2)".
func Label(ev LogEvent) string {
	role := strings.ToUpper(ev.Role)
	switch ev.Event {
	case EventPromptSent:
		return fmt.Sprintf("%s PROMPT (turn %d)", role, ev.Turn)
	case EventAgentOutput:
		return fmt.Sprintf("%s OUTPUT (turn %d)", role, ev.Turn)
	case EventInvocationFailed:
		return fmt.Sprintf("%s FAILED (turn %d)", role, ev.Turn)
	case EventMessageEdited:
		return fmt.Sprintf("%s EDITED (turn %d)", role, ev.Turn)
	case EventSessionStarted:
		return "SESSION STARTED"
	case EventSessionFinished:
		return "SESSION FINISHED"
	default:
		return strings.ToUpper(ev.Event)
	}
}

// Format renders ev as a human-readable block.
func Format(ev LogEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s [%s] ===\n", Label(ev), ev.Time.Local().Format("2006-01-02 15:04:05"))
	body := ev.Content
	if ev.Error != "" {
		body = strings.TrimSpace(body + "\nerror: " + ev.Error)
	}
	if ev.Reason != "" {
		body = strings.TrimSpace(body + "\nreason: " + ev.Reason)
	}
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}
