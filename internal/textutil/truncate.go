// Package textutil holds the small text helpers shared by the decoders, the
// transcript formatter and the relay: truncation, ANSI stripping and
// summarization of tool and command output.
package textutil

import (
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// TruncatedMarker prefixes text that TruncateTail shortened.
const TruncatedMarker = "[...truncated...]\n"

// TruncateTail keeps at most maxBytes of the end of text. When text fits it is
// returned unchanged. Otherwise the result is TruncatedMarker followed by the
// suffix that starts at the first rune boundary at or after len(text)-maxBytes,
// so a multi-byte character is never split.
func TruncateTail(text string, maxBytes int) string {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(text) <= maxBytes {
		return text
	}

	start := len(text) - maxBytes
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	return TruncatedMarker + text[start:]
}

// TruncateLine cuts s to at most maxChars runes, appending "..." when it had
// to cut.
func TruncateLine(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// TruncateWidth cuts s to the given display width, keeping escape sequences
// intact. Used for single-line renderings where wide runes matter.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
