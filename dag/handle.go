package dag

import (
	"sync"
	"time"
)

// Handle tracks one task within a running invocation.
type Handle struct {
	name string
	done chan struct{}

	mu       sync.Mutex
	status   Status
	err      error
	cause    string // task whose failure made this one fail or skip
	started  time.Time
	duration time.Duration
}

func newHandle(name string) *Handle {
	return &Handle{name: name, done: make(chan struct{}), status: StatusPending}
}

// Name returns the task name.
func (h *Handle) Name() string { return h.name }

// Done is closed once the task reaches a terminal status.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Status returns the current status.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Err returns the task error once Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) markRunning() {
	h.mu.Lock()
	h.status = StatusRunning
	h.started = time.Now()
	h.mu.Unlock()
}

func (h *Handle) finish(status Status, err error, cause string) {
	h.mu.Lock()
	h.status = status
	h.err = err
	h.cause = cause
	if !h.started.IsZero() {
		h.duration = time.Since(h.started)
	}
	h.mu.Unlock()
	close(h.done)
}

func (h *Handle) result() TaskResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return TaskResult{
		Name:     h.name,
		Status:   h.status,
		Duration: h.duration,
		Error:    h.err,
		Cause:    h.cause,
	}
}
