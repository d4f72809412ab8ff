package logging

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter wraps an io.Writer and adds a prefix to each complete line.
// A partial line is held until its newline arrives; hclog always writes
// whole lines.
type PrefixWriter struct {
	mu      sync.Mutex
	prefix  []byte
	writer  io.Writer
	pending []byte
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending = append(pw.pending, p...)
	for {
		idx := bytes.IndexByte(pw.pending, '\n')
		if idx < 0 {
			break
		}
		if err := pw.emit(pw.pending[:idx+1]); err != nil {
			return 0, err
		}
		pw.pending = pw.pending[idx+1:]
	}

	// Reclaim the buffer once everything has been written out.
	if len(pw.pending) == 0 {
		pw.pending = nil
	}
	return len(p), nil
}

func (pw *PrefixWriter) emit(line []byte) error {
	if _, err := pw.writer.Write(pw.prefix); err != nil {
		return err
	}
	_, err := pw.writer.Write(line)
	return err
}
