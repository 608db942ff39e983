package process

import (
	"bytes"
	"time"
)

// DefaultTailLines is the number of output lines kept in error details.
const DefaultTailLines = 20

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// Combined is stdout and stderr interleaved in arrival order.
	Combined []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Tail returns the last n lines of the combined output.
func (r *Result) Tail(n int) string {
	if r == nil {
		return ""
	}
	return tail(r.Combined, n)
}

func tail(b []byte, n int) string {
	b = bytes.TrimRight(b, "\r\n")
	if n <= 0 || len(b) == 0 {
		return ""
	}
	idx := len(b)
	for i := 0; i < n; i++ {
		j := bytes.LastIndexByte(b[:idx], '\n')
		if j < 0 {
			return string(b)
		}
		idx = j
	}
	return string(b[idx+1:])
}
