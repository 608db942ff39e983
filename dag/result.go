package dag

import "time"

// Result holds the outcome of one invocation.
type Result struct {
	// Order is the planned execution order.
	Order []string
	Tasks map[string]TaskResult
	// FirstFailure names the task whose failure cancelled the run, if any.
	FirstFailure string
	Duration     time.Duration
}

// TaskResult holds the outcome of a single task.
type TaskResult struct {
	Name     string
	Status   Status
	Duration time.Duration
	Error    error
	// Cause names the failing task responsible for a failed or skipped status.
	Cause string
}

// Succeeded reports whether every planned task succeeded.
func (r *Result) Succeeded() bool {
	for _, tr := range r.Tasks {
		if tr.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// ByStatus returns the names of tasks with status s, in planned order.
func (r *Result) ByStatus(s Status) []string {
	var names []string
	for _, name := range r.Order {
		if r.Tasks[name].Status == s {
			names = append(names, name)
		}
	}
	return names
}
