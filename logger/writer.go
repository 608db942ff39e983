package logger

import (
	"bytes"
	"sync"
)

// LineWriter is an io.Writer that logs each complete line it receives.
// It is used to stream a child process's output into the structured log.
// Call Flush after the producer is done to emit a trailing partial line.
type LineWriter struct {
	mu     sync.Mutex
	log    *Logger
	fields map[string]interface{}
	buf    bytes.Buffer
}

// NewLineWriter returns a LineWriter that logs lines at debug level with fields attached.
func NewLineWriter(l *Logger, fields map[string]interface{}) *LineWriter {
	return &LineWriter{log: l, fields: fields}
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// incomplete line; keep it for the next write
			w.buf.Write(line)
			break
		}
		w.emit(line[:len(line)-1])
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *LineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	w.log.Debug(string(line), w.fields)
}
