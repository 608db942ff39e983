package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kbukum/mbedjs/errors"
)

// ErrPrerequisiteFailed is wrapped by the error of every skipped task.
var ErrPrerequisiteFailed = stderrors.New("dag: prerequisite failed")

// Middleware wraps a task's action.
type Middleware func(Task) Task

// Executor runs registered tasks in dependency order.
type Executor struct {
	tasks *Registry

	// MaxParallel limits concurrently running actions (0 = unlimited).
	MaxParallel int
	// TaskTimeout bounds actions whose Task.Timeout is zero (0 = none).
	TaskTimeout time.Duration

	hooks      []Hook
	middleware []Middleware
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxParallel bounds the number of concurrently running actions.
func WithMaxParallel(n int) Option {
	return func(e *Executor) { e.MaxParallel = n }
}

// WithTaskTimeout sets the default per-task timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Executor) { e.TaskTimeout = d }
}

// WithHook adds a lifecycle hook.
func WithHook(h Hook) Option {
	return func(e *Executor) { e.hooks = append(e.hooks, h) }
}

// WithMiddleware wraps every task's action. The first middleware is outermost.
func WithMiddleware(m ...Middleware) Option {
	return func(e *Executor) { e.middleware = append(e.middleware, m...) }
}

// NewExecutor creates an executor with an empty registry.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{tasks: NewRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a task.
func (e *Executor) Register(t Task) error {
	return e.tasks.Register(t)
}

// MustRegister adds a task and panics on error.
func (e *Executor) MustRegister(t Task) {
	if err := e.Register(t); err != nil {
		panic(err)
	}
}

// Tasks returns the registry.
func (e *Executor) Tasks() *Registry { return e.tasks }

// Plan returns the execution order for targets without running anything.
func (e *Executor) Plan(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return nil, errors.Config("no target task given")
	}
	g, err := e.tasks.Closure(targets...)
	if err != nil {
		return nil, err
	}
	return TopoSort(g)
}

// Execution is a started invocation.
type Execution struct {
	order   []string
	handles map[string]*Handle
	group   *errgroup.Group
	cancel  context.CancelCauseFunc
	ctx     context.Context
	parent  context.Context
	start   time.Time

	first chan string

	mu     sync.Mutex
	failed string
}

func (x *Execution) setFailed(name string) {
	x.mu.Lock()
	x.failed = name
	x.mu.Unlock()
}

// failedTask returns the first failing task, or "" if none failed yet.
func (x *Execution) failedTask() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.failed
}

// Handle returns the handle of a planned task.
func (x *Execution) Handle(name string) (*Handle, bool) {
	h, ok := x.handles[name]
	return h, ok
}

// Wait blocks until every planned task is terminal. The returned error joins
// the errors of all failed tasks, first failure first.
func (x *Execution) Wait() (*Result, error) {
	_ = x.group.Wait()
	x.cancel(nil)

	res := &Result{
		Order:    x.order,
		Tasks:    make(map[string]TaskResult, len(x.order)),
		Duration: time.Since(x.start),
	}
	res.FirstFailure = x.failedTask()

	var errs []error
	if res.FirstFailure != "" {
		errs = append(errs, x.handles[res.FirstFailure].Err())
	}
	for _, name := range x.order {
		tr := x.handles[name].result()
		res.Tasks[name] = tr
		if tr.Status == StatusFailed && name != res.FirstFailure {
			errs = append(errs, tr.Error)
		}
	}

	if len(errs) == 0 && x.parent.Err() != nil && !res.Succeeded() {
		errs = append(errs, errors.Cancelled(context.Cause(x.parent)))
	}
	return res, stderrors.Join(errs...)
}

// Run plans targets, executes them and waits for completion.
func (e *Executor) Run(ctx context.Context, targets ...string) (*Result, error) {
	x, err := e.Start(ctx, targets...)
	if err != nil {
		return nil, err
	}
	return x.Wait()
}

// Start plans targets and launches one goroutine per task. Planning errors
// are returned before any action runs.
func (e *Executor) Start(ctx context.Context, targets ...string) (*Execution, error) {
	order, err := e.Plan(targets...)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	x := &Execution{
		order:   order,
		handles: make(map[string]*Handle, len(order)),
		group:   new(errgroup.Group),
		cancel:  cancel,
		ctx:     runCtx,
		parent:  ctx,
		start:   time.Now(),
		first:   make(chan string, 1),
	}
	for _, name := range order {
		x.handles[name] = newHandle(name)
	}

	var sem *semaphore.Weighted
	if e.MaxParallel > 0 {
		sem = semaphore.NewWeighted(int64(e.MaxParallel))
	}

	for _, name := range order {
		task, _ := e.tasks.Get(name)
		task = e.wrap(task)
		x.group.Go(func() error {
			e.runTask(x, task, sem)
			return nil
		})
	}
	return x, nil
}

func (e *Executor) wrap(t Task) Task {
	if t.Action == nil {
		return t
	}
	for i := len(e.middleware) - 1; i >= 0; i-- {
		t = e.middleware[i](t)
	}
	return t
}

func (e *Executor) runTask(x *Execution, task Task, sem *semaphore.Weighted) {
	h := x.handles[task.Name]

	for _, p := range task.Prerequisites {
		ph := x.handles[p]
		<-ph.Done()
		if ph.Status() != StatusSucceeded {
			cause := ph.result().Cause
			if cause == "" {
				cause = p
			}
			e.finish(x, h, StatusSkipped,
				errors.PrerequisiteFailed(task.Name, p).
					WithDetail("cause", cause).
					WithCause(ErrPrerequisiteFailed),
				cause)
			return
		}
	}

	if err := x.ctx.Err(); err != nil {
		e.finish(x, h, StatusSkipped, errors.Cancelled(context.Cause(x.ctx)), x.failedTask())
		return
	}

	if sem != nil {
		if err := sem.Acquire(x.ctx, 1); err != nil {
			e.finish(x, h, StatusSkipped, errors.Cancelled(context.Cause(x.ctx)), x.failedTask())
			return
		}
		defer sem.Release(1)
	}

	h.markRunning()
	for _, hook := range e.hooks {
		hook.OnStart(x.ctx, task.Name)
	}

	if err := e.invoke(x.ctx, task); err != nil {
		appErr := errors.TaskFailed(task.Name, err)
		cause := task.Name
		select {
		case x.first <- task.Name:
			x.setFailed(task.Name)
			x.cancel(appErr)
		default:
			// failures after the first are usually fallout from its cancellation
			if first := x.failedTask(); first != "" {
				cause = first
			}
		}
		e.finish(x, h, StatusFailed, appErr, cause)
		return
	}
	e.finish(x, h, StatusSucceeded, nil, "")
}

func (e *Executor) invoke(ctx context.Context, task Task) (err error) {
	if task.Action == nil {
		return nil
	}
	timeout := task.Timeout
	if timeout == 0 {
		timeout = e.TaskTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout,
			fmt.Errorf("task %q exceeded timeout %s", task.Name, timeout))
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("panic in task %q: %v", task.Name, r))
		}
	}()

	err = task.Action(ctx)
	if err != nil && ctx.Err() != nil {
		if cause := context.Cause(ctx); cause != nil && !stderrors.Is(err, cause) {
			err = fmt.Errorf("%w (%v)", err, cause)
		}
	}
	return err
}

func (e *Executor) finish(x *Execution, h *Handle, status Status, err error, cause string) {
	h.finish(status, err, cause)
	tr := h.result()
	for _, hook := range e.hooks {
		hook.OnFinish(x.ctx, tr)
	}
}
