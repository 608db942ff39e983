package firmware

import (
	"context"
	"runtime"
	"sync"

	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/codegen"
	"github.com/kbukum/mbedjs/config"
	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/deptree"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/ledger"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/process"
	"github.com/kbukum/mbedjs/staging"
)

// ComponentName is the logger name of the pipeline.
const ComponentName = "firmware"

// Pipeline builds the firmware task graph for one configuration.
type Pipeline struct {
	cfg      *config.BuildConfig
	fs       afero.Fs
	runner   process.Runner
	ledger   *ledger.Ledger
	probe    *staging.Probe
	renderer *codegen.Renderer
	log      *logger.Logger
	goos     string
	runID    string

	// outputs maps task names to the build-root paths they own.
	outputs map[string]output

	stampsMu sync.Mutex
	stamps   map[string]ledger.Inputs
}

type output struct {
	paths       []string
	fingerprint bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFs sets the filesystem tasks operate on.
func WithFs(fs afero.Fs) Option {
	return func(p *Pipeline) { p.fs = fs }
}

// WithRunner sets the runner external tools are started with.
func WithRunner(r process.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithLedger records task completion and verifies outputs against it.
func WithLedger(l *ledger.Ledger) Option {
	return func(p *Pipeline) { p.ledger = l }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithGOOS overrides the platform used to compose shell command lines.
func WithGOOS(goos string) Option {
	return func(p *Pipeline) { p.goos = goos }
}

// WithRunID sets the invocation id written to the ledger.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// New creates a Pipeline for cfg. cfg must have defaults applied.
func New(cfg *config.BuildConfig, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.InvalidInput("config", "build configuration is required")
	}
	p := &Pipeline{
		cfg:     cfg,
		goos:    runtime.GOOS,
		outputs: defaultOutputs(),
		stamps:  make(map[string]ledger.Inputs),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.log == nil {
		p.log = logger.Get(ComponentName)
	}
	if p.runner == nil {
		p.runner = process.NewExecRunner(logger.Get(process.ComponentName))
	}
	if p.runID == "" {
		p.runID = ledger.NewRunID()
	}

	probeOpts := []staging.Option{
		staging.WithForce(cfg.Force),
		staging.WithLogger(p.log),
	}
	if p.ledger != nil {
		probeOpts = append(probeOpts, staging.WithVerifier(p.ledger))
	}
	p.probe = staging.NewProbe(p.fs, cfg.BuildRoot(), probeOpts...)
	p.renderer = codegen.NewRenderer(p.fs, cfg.Resolve(cfg.TemplateDir))
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *config.BuildConfig { return p.cfg }

// Probe returns the staging probe of the build root.
func (p *Pipeline) Probe() *staging.Probe { return p.probe }

// Executor creates an executor with every pipeline task registered,
// including tasks declared in the configured pipeline file. opts are applied
// after the pipeline's own settings.
func (p *Pipeline) Executor(opts ...dag.Option) (*dag.Executor, error) {
	base := []dag.Option{
		dag.WithMaxParallel(p.cfg.Parallel),
		dag.WithTaskTimeout(p.cfg.TaskTimeout),
	}
	if p.ledger != nil {
		base = append(base, dag.WithHook(ledgerHook{p: p}))
	}
	e := dag.NewExecutor(append(base, opts...)...)

	for _, t := range p.Tasks() {
		if err := e.Register(t); err != nil {
			return nil, err
		}
	}
	extra, err := p.extraTasks()
	if err != nil {
		return nil, err
	}
	for _, t := range extra {
		if err := e.Register(t); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ResolveNativePackages queries npm for the installed tree of the project
// and returns its native packages.
func (p *Pipeline) ResolveNativePackages(ctx context.Context) ([]deptree.NativePackage, error) {
	tree, err := deptree.NPMQuery(ctx, p.runner, p.cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	opts := []deptree.Option{deptree.WithLogger(p.log)}
	if p.cfg.DedupeNative {
		opts = append(opts, deptree.WithDedupe())
	}
	return deptree.ResolveNativePackages(p.fs, tree.Dependencies, opts...)
}
