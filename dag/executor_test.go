package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/mbedjs/errors"
)

// recorder collects the order in which actions ran.
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) action(name string, err error) Action {
	return func(context.Context) error {
		r.mu.Lock()
		r.ran = append(r.ran, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func (r *recorder) count(name string) int {
	n := 0
	for _, s := range r.names() {
		if s == name {
			n++
		}
	}
	return n
}

func TestRunOrderAndOnce(t *testing.T) {
	rec := &recorder{}
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "make-build-dir", Action: rec.action("make-build-dir", nil)})
	ex.MustRegister(Task{Name: "tools", Prerequisites: []string{"make-build-dir"}, Action: rec.action("tools", nil)})
	ex.MustRegister(Task{Name: "bundle", Prerequisites: []string{"make-build-dir"}, Action: rec.action("bundle", nil)})
	ex.MustRegister(Task{Name: "pins", Prerequisites: []string{"tools", "bundle"}, Action: rec.action("pins", nil)})
	ex.MustRegister(Task{Name: "requirements", Prerequisites: []string{"tools"}, Action: rec.action("requirements", nil)})
	ex.MustRegister(Task{Name: "default", Prerequisites: []string{"pins", "requirements"}})

	res, err := ex.Run(context.Background(), "default", "pins")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Tasks)
	}

	ran := rec.names()
	if len(ran) != 5 {
		t.Fatalf("expected 5 actions, got %v", ran)
	}
	for _, name := range ran {
		if rec.count(name) != 1 {
			t.Errorf("task %s ran %d times", name, rec.count(name))
		}
	}
	pos := map[string]int{}
	for i, n := range ran {
		pos[n] = i
	}
	for _, edge := range [][2]string{
		{"make-build-dir", "tools"}, {"make-build-dir", "bundle"},
		{"tools", "pins"}, {"bundle", "pins"}, {"tools", "requirements"},
	} {
		if pos[edge[0]] > pos[edge[1]] {
			t.Errorf("%s ran after %s", edge[0], edge[1])
		}
	}
}

func TestPrerequisiteFailureSkipsDependents(t *testing.T) {
	rec := &recorder{}
	boom := stderrors.New("compile error")

	ex := NewExecutor()
	ex.MustRegister(Task{Name: "Y", Action: rec.action("Y", nil)})
	ex.MustRegister(Task{Name: "Z", Action: rec.action("Z", boom)})
	ex.MustRegister(Task{Name: "X", Prerequisites: []string{"Y", "Z"}, Action: rec.action("X", nil)})
	ex.MustRegister(Task{Name: "W", Prerequisites: []string{"X"}, Action: rec.action("W", nil)})

	res, err := ex.Run(context.Background(), "W")
	if err == nil {
		t.Fatal("expected error")
	}
	if rec.count("X") != 0 || rec.count("W") != 0 {
		t.Fatalf("dependents of a failed task ran: %v", rec.names())
	}
	if res.FirstFailure != "Z" {
		t.Errorf("FirstFailure = %q, want Z", res.FirstFailure)
	}
	if !stderrors.Is(err, boom) {
		t.Errorf("returned error does not wrap the action error: %v", err)
	}
	if !errors.HasCode(err, errors.ErrCodeTaskFailed) {
		t.Errorf("expected TASK_FAILED in %v", err)
	}

	for _, name := range []string{"X", "W"} {
		tr := res.Tasks[name]
		if tr.Status != StatusSkipped {
			t.Errorf("%s status = %s, want skipped", name, tr.Status)
		}
		if tr.Cause != "Z" {
			t.Errorf("%s cause = %q, want Z", name, tr.Cause)
		}
		if !stderrors.Is(tr.Error, ErrPrerequisiteFailed) {
			t.Errorf("%s error does not wrap ErrPrerequisiteFailed: %v", name, tr.Error)
		}
	}
	if got := res.Tasks["Z"].Status; got != StatusFailed {
		t.Errorf("Z status = %s", got)
	}
	if diff := cmp.Diff([]string{"W", "X"}, sortedCopy(res.ByStatus(StatusSkipped))); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

func TestFailFastCancelsRunningTasks(t *testing.T) {
	started := make(chan struct{})
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "slow", Action: func(ctx context.Context) error {
		close(started)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}})
	ex.MustRegister(Task{Name: "fails", Action: func(context.Context) error {
		<-started
		return stderrors.New("bad")
	}})
	ex.MustRegister(Task{Name: "all", Prerequisites: []string{"slow", "fails"}})

	begin := time.Now()
	res, err := ex.Run(context.Background(), "all")
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(begin) > 3*time.Second {
		t.Fatal("running task was not cancelled")
	}
	if res.FirstFailure != "fails" {
		t.Errorf("FirstFailure = %q, want fails", res.FirstFailure)
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Details["task"] != "fails" {
		t.Errorf("first joined error should name 'fails', got %v", err)
	}
}

func TestSharedPrerequisiteDoesNotSerialize(t *testing.T) {
	// b and c both need a; c must not wait for b.
	cDone := make(chan struct{})

	ex := NewExecutor()
	ex.MustRegister(Task{Name: "a", Action: func(context.Context) error { return nil }})
	ex.MustRegister(Task{Name: "b", Prerequisites: []string{"a"}, Action: func(context.Context) error {
		select {
		case <-cDone:
			return nil
		case <-time.After(3 * time.Second):
			return stderrors.New("c never finished while b was running")
		}
	}})
	ex.MustRegister(Task{Name: "c", Prerequisites: []string{"a"}, Action: func(context.Context) error {
		close(cDone)
		return nil
	}})

	if _, err := ex.Run(context.Background(), "b", "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMaxParallel(t *testing.T) {
	var running, peak int32
	work := func(context.Context) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}

	ex := NewExecutor(WithMaxParallel(2))
	var names []string
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("t%d", i)
		names = append(names, name)
		ex.MustRegister(Task{Name: name, Action: work})
	}
	if _, err := ex.Run(context.Background(), names...); err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}

func TestTaskTimeout(t *testing.T) {
	ex := NewExecutor(WithTaskTimeout(50 * time.Millisecond))
	ex.MustRegister(Task{Name: "hang", Action: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	ex.MustRegister(Task{Name: "quick", Timeout: time.Second, Action: func(ctx context.Context) error {
		return nil
	}})

	res, err := ex.Run(context.Background(), "hang")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
	if res.Tasks["hang"].Status != StatusFailed {
		t.Errorf("status = %s", res.Tasks["hang"].Status)
	}

	if _, err := ex.Run(context.Background(), "quick"); err != nil {
		t.Errorf("per-task timeout should override: %v", err)
	}
}

func TestPlanErrorsRunNothing(t *testing.T) {
	rec := &recorder{}
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "a", Prerequisites: []string{"b"}, Action: rec.action("a", nil)})
	ex.MustRegister(Task{Name: "b", Prerequisites: []string{"a"}, Action: rec.action("b", nil)})
	ex.MustRegister(Task{Name: "c", Action: rec.action("c", nil)})

	if _, err := ex.Run(context.Background(), "c", "a"); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected config error for cycle, got %v", err)
	}
	if _, err := ex.Run(context.Background(), "missing"); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected config error for unknown task, got %v", err)
	}
	if _, err := ex.Plan(); err == nil {
		t.Fatal("expected error for empty targets")
	}
	if got := rec.names(); len(got) != 0 {
		t.Errorf("actions ran despite planning error: %v", got)
	}
}

func TestParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "a", Action: rec.action("a", nil)})

	res, err := ex.Run(ctx, "a")
	if !errors.HasCode(err, errors.ErrCodeCancelled) {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
	if res.Tasks["a"].Status != StatusSkipped {
		t.Errorf("status = %s", res.Tasks["a"].Status)
	}
	if len(rec.names()) != 0 {
		t.Error("action ran after cancellation")
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "p", Action: func(context.Context) error { panic("oops") }})
	_, err := ex.Run(context.Background(), "p")
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestHooksAndHandles(t *testing.T) {
	var mu sync.Mutex
	started := map[string]bool{}
	finished := map[string]Status{}

	hook := HookFuncs{
		Start: func(_ context.Context, name string) {
			mu.Lock()
			started[name] = true
			mu.Unlock()
		},
		Finish: func(_ context.Context, tr TaskResult) {
			mu.Lock()
			finished[tr.Name] = tr.Status
			mu.Unlock()
		},
	}

	ex := NewExecutor(WithHook(hook))
	ex.MustRegister(Task{Name: "ok", Action: func(context.Context) error { return nil }})
	ex.MustRegister(Task{Name: "bad", Prerequisites: []string{"ok"}, Action: func(context.Context) error { return stderrors.New("x") }})
	ex.MustRegister(Task{Name: "after", Prerequisites: []string{"bad"}, Action: func(context.Context) error { return nil }})

	x, err := ex.Start(context.Background(), "ok", "after")
	if err != nil {
		t.Fatal(err)
	}
	h, ok := x.Handle("bad")
	if !ok {
		t.Fatal("missing handle")
	}
	<-h.Done()
	if h.Status() != StatusFailed || h.Err() == nil {
		t.Errorf("bad handle: status=%s err=%v", h.Status(), h.Err())
	}
	if _, err := x.Wait(); err == nil {
		t.Fatal("expected error")
	}

	mu.Lock()
	defer mu.Unlock()
	if started["after"] {
		t.Error("skipped task should not get OnStart")
	}
	want := map[string]Status{"ok": StatusSucceeded, "bad": StatusFailed, "after": StatusSkipped}
	if diff := cmp.Diff(want, finished); diff != "" {
		t.Errorf("finished mismatch (-want +got):\n%s", diff)
	}
}

func TestWaitIsRepeatable(t *testing.T) {
	ex := NewExecutor()
	ex.MustRegister(Task{Name: "bad", Action: func(context.Context) error { return stderrors.New("x") }})
	ex.MustRegister(Task{Name: "after", Prerequisites: []string{"bad"}})

	x, err := ex.Start(context.Background(), "after")
	if err != nil {
		t.Fatal(err)
	}
	for i := range 2 {
		res, err := x.Wait()
		if !errors.HasCode(err, errors.ErrCodeTaskFailed) {
			t.Fatalf("wait %d: expected TASK_FAILED, got %v", i, err)
		}
		if res.FirstFailure != "bad" {
			t.Errorf("wait %d: FirstFailure = %q, want bad", i, res.FirstFailure)
		}
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var trail []string
	mw := func(tag string) Middleware {
		return func(t Task) Task {
			inner := t.Action
			t.Action = func(ctx context.Context) error {
				trail = append(trail, tag)
				return inner(ctx)
			}
			return t
		}
	}
	ex := NewExecutor(WithMiddleware(mw("outer"), mw("inner")), WithMaxParallel(1))
	ex.MustRegister(Task{Name: "a", Action: func(context.Context) error {
		trail = append(trail, "action")
		return nil
	}})
	ex.MustRegister(Task{Name: "agg", Prerequisites: []string{"a"}})
	if _, err := ex.Run(context.Background(), "agg"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"outer", "inner", "action"}, trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusTerminal(t *testing.T) {
	for s, want := range map[Status]bool{
		StatusPending: false, StatusRunning: false,
		StatusSucceeded: true, StatusFailed: true, StatusSkipped: true,
	} {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v", s, !want)
		}
	}
}
