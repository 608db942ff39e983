package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/mbedjs/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	output          io.Writer
	gracefulTimeout *time.Duration
	runID           string
	components      []string
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithOutput sets where the summary is printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.output = w
	}
}

// WithGracefulTimeout bounds the time stop hooks may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithComponents names loggers to register from the initialized global
// logger, so packages fetching them with logger.Get share its settings.
func WithComponents(names ...string) Option {
	return func(o *appOptions) {
		o.components = append(o.components, names...)
	}
}

// WithRunID sets the invocation id instead of generating one.
func WithRunID(id string) Option {
	return func(o *appOptions) {
		o.runID = id
	}
}
