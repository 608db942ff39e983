package process

import (
	"context"
	"io"

	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/observability"
)

// ComponentName is the logger name used by ExecRunner.
const ComponentName = "process"

// Runner executes commands. Build tasks depend on this interface so tests
// can observe which tools a run would have invoked.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner runs commands on the host, streaming their output into the log.
type ExecRunner struct {
	log *logger.Logger
}

// NewExecRunner creates an ExecRunner. A nil log uses the global logger.
func NewExecRunner(log *logger.Logger) *ExecRunner {
	if log == nil {
		log = logger.Get(ComponentName)
	}
	return &ExecRunner{log: log}
}

// Run executes cmd, logging each output line at debug level.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProcess)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrCommand, cmd.String())

	lw := logger.NewLineWriter(r.log, logger.Fields(logger.FieldCommand, cmd.Binary))
	if cmd.Output != nil {
		cmd.Output = io.MultiWriter(cmd.Output, lw)
	} else {
		cmd.Output = lw
	}

	r.log.Info("running", logger.Fields(logger.FieldCommand, cmd.String(), logger.FieldPath, cmd.Dir))
	res, err := Run(ctx, cmd)
	lw.Flush()

	if res != nil {
		observability.SetSpanAttribute(ctx, observability.AttrExitCode, res.ExitCode)
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		return res, err
	}
	r.log.Debug("finished", logger.Fields(
		logger.FieldCommand, cmd.Binary,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res, nil
}
