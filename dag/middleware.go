package dag

import (
	"context"
	"time"

	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/observability"
)

// WithTracing wraps a task's action in an OpenTelemetry span.
func WithTracing() Middleware {
	return func(t Task) Task {
		inner := t.Action
		name := t.Name
		t.Action = func(ctx context.Context) error {
			ctx, span := observability.StartSpan(ctx, observability.SpanTask+"."+name)
			defer span.End()
			observability.SetSpanAttribute(ctx, observability.AttrTask, name)

			err := inner(ctx)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return err
		}
		return t
	}
}

// WithMetrics records task count, duration and failures.
func WithMetrics(metrics *observability.TaskMetrics) Middleware {
	return func(t Task) Task {
		inner := t.Action
		name := t.Name
		t.Action = func(ctx context.Context) (err error) {
			metrics.TaskStarted(ctx, name)
			start := time.Now()
			returned := false
			defer func() {
				status := string(StatusSucceeded)
				if err != nil || !returned {
					status = string(StatusFailed)
					code := string(errors.ErrCodeInternal)
					if returned {
						code = string(errors.ErrCodeTaskFailed)
						if appErr, ok := errors.AsAppError(err); ok {
							code = string(appErr.Code)
						}
					}
					metrics.RecordError(ctx, name, code)
				}
				metrics.TaskFinished(ctx, name, status, time.Since(start))
			}()

			err = inner(ctx)
			returned = true
			return err
		}
		return t
	}
}

// WithLogging logs the start and outcome of every task.
func WithLogging(log *logger.Logger) Middleware {
	return func(t Task) Task {
		inner := t.Action
		name := t.Name
		t.Action = func(ctx context.Context) error {
			tl := log.WithTask(name)
			tl.Info("starting")
			start := time.Now()
			err := inner(ctx)
			d := time.Since(start)

			if err != nil {
				tl.Error("failed", logger.MergeWithError(logger.TaskFields(name, string(StatusFailed), d), err))
			} else {
				tl.Info("finished", logger.TaskFields(name, string(StatusSucceeded), d))
			}
			return err
		}
		return t
	}
}
