package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTail(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "under cap", text: "hello", max: 10, want: "hello"},
		{name: "exactly cap", text: "hello", max: 5, want: "hello"},
		{name: "over cap keeps suffix", text: "hello world", max: 5, want: TruncatedMarker + "world"},
		{name: "zero cap", text: "abc", max: 0, want: TruncatedMarker},
		{name: "multibyte boundary", text: "aé€b", max: 3, want: TruncatedMarker + "b"},
		{name: "multibyte whole rune", text: "aé€b", max: 4, want: TruncatedMarker + "€b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateTail(tt.text, tt.max)
			if got != tt.want {
				t.Errorf("TruncateTail(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateTailIdempotentUnderCap(t *testing.T) {
	text := "short enough"
	once := TruncateTail(text, 100)
	if once != text {
		t.Fatalf("TruncateTail changed text under cap: %q", once)
	}
	if twice := TruncateTail(once, 100); twice != once {
		t.Errorf("second TruncateTail = %q, want %q", twice, once)
	}
}

func TestTruncateTailPreservesSuffixAndValidity(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 50) + "tail end"
	for max := 1; max < 64; max++ {
		got := TruncateTail(text, max)
		if !utf8.ValidString(got) {
			t.Fatalf("max=%d: result is not valid UTF-8", max)
		}
		if !strings.HasPrefix(got, TruncatedMarker) {
			t.Fatalf("max=%d: missing marker in %q", max, got)
		}
		suffix := strings.TrimPrefix(got, TruncatedMarker)
		if len(suffix) > max {
			t.Errorf("max=%d: suffix is %d bytes", max, len(suffix))
		}
		if !strings.HasSuffix(text, suffix) {
			t.Errorf("max=%d: %q is not a suffix of the input", max, suffix)
		}
		// The cut lands on the first rune boundary at or after len-max.
		start := len(text) - len(suffix)
		if start < len(text)-max || (start > len(text)-max && utf8.RuneStart(text[len(text)-max])) {
			t.Errorf("max=%d: cut at %d, want first boundary at or after %d", max, start, len(text)-max)
		}
	}
}

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc..."},
		{"héllo wörld", 5, "héllo..."},
		{"", 0, ""},
	}

	for _, tt := range tests {
		if got := TruncateLine(tt.s, tt.max); got != tt.want {
			t.Errorf("TruncateLine(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;32mgreen\x1b[0m plain \x1b]0;title\x07done"
	if got := StripANSI(in); got != "green plain done" {
		t.Errorf("StripANSI = %q, want %q", got, "green plain done")
	}
}
