package observability

import (
	"context"
	stderrors "errors"
)

// ShutdownFunc flushes and stops installed providers.
type ShutdownFunc func(context.Context) error

// Setup installs tracer and meter providers when cfg is enabled.
// The returned shutdown is always non-nil.
func Setup(ctx context.Context, cfg Config, service, version string) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, cfg, service, version)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}
	mp, err := InitMeter(ctx, cfg, service, version)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return func(context.Context) error { return nil }, err
	}

	return func(ctx context.Context) error {
		return stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
