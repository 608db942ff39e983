package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/errors"
)

// Summary prints what an invocation did.
type Summary struct {
	w io.Writer
}

// NewSummary creates a Summary writing to w, or stdout when w is nil.
func NewSummary(w io.Writer) *Summary {
	if w == nil {
		w = os.Stdout
	}
	return &Summary{w: w}
}

// DisplayResult prints every task of res in execution order, then the
// failing task and the tail of its external process output, if any.
func (s *Summary) DisplayResult(res *dag.Result, err error) {
	if res != nil {
		fmt.Fprintf(s.w, "\n")
		for i, name := range res.Order {
			prefix := "├──"
			if i == len(res.Order)-1 {
				prefix = "└──"
			}
			tr := res.Tasks[name]
			line := fmt.Sprintf("   %s %s %s", prefix, statusIcon(tr.Status), name)
			if tr.Status == dag.StatusSucceeded || tr.Status == dag.StatusFailed {
				line += fmt.Sprintf(" (%s)", tr.Duration.Round(time.Millisecond))
			}
			if tr.Status == dag.StatusSkipped && tr.Cause != "" {
				line += fmt.Sprintf(" (after %s failed)", tr.Cause)
			}
			fmt.Fprintln(s.w, line)
		}
		fmt.Fprintf(s.w, "\n")

		if res.Succeeded() {
			fmt.Fprintf(s.w, "✅ %d tasks finished in %.2fs\n", len(res.Order), res.Duration.Seconds())
			return
		}
		if res.FirstFailure != "" {
			fmt.Fprintf(s.w, "❌ task %q failed\n", res.FirstFailure)
		}
	}
	s.DisplayError(err)
}

// DisplayError prints err and, when it came from an external process, the
// command and the tail of its output.
func (s *Summary) DisplayError(err error) {
	if err == nil {
		return
	}
	proc := findCode(err, errors.ErrCodeExternalProcess)
	if proc == nil {
		fmt.Fprintf(s.w, "   %s\n", firstLine(err.Error()))
		return
	}
	fmt.Fprintf(s.w, "   command: %v (exit %v)\n", proc.Details["command"], proc.Details["exit_code"])
	if out, _ := proc.Details["output"].(string); out != "" {
		for _, line := range strings.Split(out, "\n") {
			fmt.Fprintf(s.w, "   │ %s\n", line)
		}
	}
}

// findCode returns the first AppError with code in err's tree.
func findCode(err error, code errors.ErrorCode) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*errors.AppError); ok && appErr.Code == code {
		return appErr
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if found := findCode(e, code); found != nil {
				return found
			}
		}
	case interface{ Unwrap() error }:
		return findCode(x.Unwrap(), code)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func statusIcon(status dag.Status) string {
	switch status {
	case dag.StatusSucceeded:
		return "✅"
	case dag.StatusFailed:
		return "❌"
	case dag.StatusSkipped:
		return "⏸️"
	default:
		return "⚠️"
	}
}
