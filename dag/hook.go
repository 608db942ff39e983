package dag

import "context"

// Hook observes task lifecycle events. Calls for different tasks may be
// concurrent. Skipped tasks get OnFinish without a preceding OnStart.
type Hook interface {
	OnStart(ctx context.Context, task string)
	OnFinish(ctx context.Context, result TaskResult)
}

// HookFuncs adapts plain functions to Hook. Nil fields are ignored.
type HookFuncs struct {
	Start  func(ctx context.Context, task string)
	Finish func(ctx context.Context, result TaskResult)
}

// OnStart implements Hook.
func (h HookFuncs) OnStart(ctx context.Context, task string) {
	if h.Start != nil {
		h.Start(ctx, task)
	}
}

// OnFinish implements Hook.
func (h HookFuncs) OnFinish(ctx context.Context, result TaskResult) {
	if h.Finish != nil {
		h.Finish(ctx, result)
	}
}
