package dag

import (
	"context"
	"time"
)

// Action is the work a task performs.
type Action func(ctx context.Context) error

// Task is a named unit of work with prerequisites.
type Task struct {
	Name          string
	Prerequisites []string
	// Action may be nil for pure aggregate tasks such as "default".
	Action Action
	// Timeout bounds the action. Zero falls back to the executor default.
	Timeout     time.Duration
	Description string
}

// Status is the lifecycle state of a task within one invocation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}
