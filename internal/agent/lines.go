package agent

import (
	"bytes"
	"sync"
)

// maxLineBytes bounds a single buffered line. Longer lines are delivered in
// pieces.
const maxLineBytes = 1024 * 1024

// lineWriter is an io.Writer that splits what is written to it into lines
// and hands each complete line to fn. It lets exec.Cmd drain stdout and
// stderr on its own goroutines while we see whole lines.
type lineWriter struct {
	mu     sync.Mutex
	buf    []byte
	fn     func(line []byte)
	closed bool
}

func newLineWriter(fn func(line []byte)) *lineWriter {
	return &lineWriter{fn: fn}
}

// Write implements io.Writer.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineBytes {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(p), nil
}

// Close delivers a trailing line that had no newline and discards anything
// written afterwards. Once it returns, fn is not called again.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	out := make([]byte, len(line))
	copy(out, line)
	w.fn(out)
}
