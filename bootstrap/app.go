package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/version"
)

// App is one mbedjs invocation. C is the config type.
type App[C Config] struct {
	Name    string
	Version string
	RunID   string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         version.Get().Short(),
		RunID:           o.runID,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}
	if app.RunID == "" {
		app.RunID = uuid.NewString()
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger.WithRunID(app.RunID)
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger().WithRunID(app.RunID)
		logger.SetGlobalLogger(app.Logger)
		logger.RegisterDefaults(o.components...)
	}
	app.Summary = NewSummary(o.output)
	return app, nil
}

// RunTask runs start hooks, then task with a context cancelled on SIGINT or
// SIGTERM, then stop hooks. The task error wins over stop hook errors.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		return errors.Internal(err)
	}

	taskCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Warn("interrupted")
	}
	stop()

	stopErr := a.stop()
	a.Logger.Debug("finished", logger.DurationFields("run", time.Since(start)))
	if taskErr != nil {
		return taskErr
	}
	return stopErr
}

// stop runs stop hooks within the graceful timeout, newest first.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hooks := slices.Clone(a.onStop)
	slices.Reverse(hooks)
	if err := runHooks(ctx, hooks); err != nil {
		a.Logger.Error("stop hook failed", logger.Fields(logger.FieldError, err.Error()))
		return errors.Internal(err)
	}
	return nil
}
