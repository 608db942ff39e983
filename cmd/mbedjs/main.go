// Command mbedjs builds mbed firmware images from a JavaScript project.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/mbedjs/bootstrap"
	"github.com/kbukum/mbedjs/config"
	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/firmware"
	"github.com/kbukum/mbedjs/ledger"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/observability"
	"github.com/kbukum/mbedjs/process"
	"github.com/kbukum/mbedjs/version"
)

type CLI struct {
	Config     string        `help:"Config file (defaults to mbedjs.yml in the project directory)" type:"path"`
	EnvFile    string        `help:"Env file (defaults to .env.local or .env in the project directory)" type:"path"`
	ProjectDir string        `help:"JavaScript project directory" type:"path"`
	Target     string        `help:"mbed board target, e.g. K64F (overrides MBED_TARGET)"`
	BuildDir   string        `help:"Build directory relative to the project"`
	Parallel   int           `short:"j" help:"Maximum concurrently running tasks (0 = unbounded)" default:"-1"`
	Timeout    time.Duration `help:"Per-task timeout"`
	LogLevel   string        `help:"Log level (debug, info, warn, error)"`
	LogFormat  string        `help:"Log format (console, json)"`
	Force      bool          `help:"Re-run staging steps even when their outputs exist"`

	Build     BuildCmd `cmd:"" default:"withargs" help:"Build the firmware image"`
	Run       RunCmd   `cmd:"" help:"Run the named tasks and their prerequisites"`
	Plan      PlanCmd  `cmd:"" help:"Print the execution order without running anything"`
	Clean     struct{} `cmd:"" help:"Remove compiled output"`
	Deepclean struct{} `cmd:"" help:"Remove the build directory"`
	Resolve   struct{} `cmd:"" help:"Print the native packages of the project"`
	State     struct{} `cmd:"" help:"Print the recorded build state"`
	Version   struct{} `cmd:"" help:"Show version information"`
}

type BuildCmd struct {
	Tasks []string `arg:"" optional:"" help:"Tasks to run (defaults to the full build)"`
}

type RunCmd struct {
	Tasks []string `arg:"" help:"Tasks to run"`
}

type PlanCmd struct {
	Tasks []string `arg:"" optional:"" help:"Tasks to plan (defaults to the full build)"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("mbedjs"),
		kong.Description("Build mbed firmware from a JavaScript project."),
		kong.UsageOnError(),
	)

	err := run(context.Background(), &cli, kctx.Command())
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, cli *CLI, command string) error {
	if command == "version" {
		fmt.Println(version.Get().String())
		return nil
	}

	cfg, err := config.Load(loaderOptions(cli)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	applyFlags(cfg, cli)

	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithRunID(ledger.NewRunID()),
		bootstrap.WithComponents(firmware.ComponentName, process.ComponentName),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	shutdown, err := observability.Setup(ctx, cfg.Telemetry, app.Name, app.Version)
	if err != nil {
		app.Logger.Warn("telemetry disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	app.OnStop(bootstrap.Hook(shutdown))

	return app.RunTask(ctx, func(ctx context.Context) error {
		err := dispatch(ctx, app, cli, command)
		var shown reported
		if err != nil && !stderrors.As(err, &shown) {
			app.Summary.DisplayError(err)
		}
		return err
	})
}

func loaderOptions(cli *CLI) []config.LoaderOption {
	dir := cli.ProjectDir
	if dir == "" {
		dir = "."
	}
	return []config.LoaderOption{
		config.WithProjectDir(dir),
		config.WithConfigFile(cli.Config),
		config.WithEnvFile(cli.EnvFile),
	}
}

func applyFlags(cfg *config.BuildConfig, cli *CLI) {
	if cli.ProjectDir != "" {
		cfg.ProjectDir = cli.ProjectDir
	}
	if cli.Target != "" {
		cfg.Target = cli.Target
	}
	if cli.BuildDir != "" {
		cfg.BuildDir = cli.BuildDir
	}
	if cli.Parallel >= 0 {
		cfg.Parallel = cli.Parallel
	}
	if cli.Timeout > 0 {
		cfg.TaskTimeout = cli.Timeout
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if cli.Force {
		cfg.Force = true
	}
}

func dispatch(ctx context.Context, app *bootstrap.App[*config.BuildConfig], cli *CLI, command string) error {
	cfg := app.Cfg
	fs := afero.NewOsFs()
	l, err := ledger.Open(fs, cfg.BuildRoot())
	if err != nil {
		return err
	}
	p, err := firmware.New(cfg,
		firmware.WithFs(fs),
		firmware.WithLedger(l),
		firmware.WithRunID(app.RunID),
	)
	if err != nil {
		return err
	}

	switch command {
	case "state":
		return printState(l)
	case "resolve":
		libs, err := p.ResolveNativePackages(ctx)
		if err != nil {
			return err
		}
		return printJSON(libs)
	}

	exec, err := executor(p, app.Logger)
	if err != nil {
		return err
	}

	var targets []string
	switch command {
	case "build", "build <tasks>":
		targets = cli.Build.Tasks
	case "run <tasks>":
		targets = cli.Run.Tasks
	case "plan", "plan <tasks>":
		return printPlan(exec, orDefault(cli.Plan.Tasks))
	case "clean":
		targets = []string{firmware.TaskClean}
	case "deepclean":
		targets = []string{firmware.TaskDeepClean}
	default:
		return errors.InvalidInput("command", "unknown command "+command)
	}

	res, err := exec.Run(ctx, orDefault(targets)...)
	if res == nil {
		return err
	}
	app.Summary.DisplayResult(res, err)
	if err != nil {
		return reported{err}
	}
	return nil
}

// reported marks an error the build summary already printed.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

func executor(p *firmware.Pipeline, log *logger.Logger) (*dag.Executor, error) {
	mw := []dag.Middleware{dag.WithLogging(log), dag.WithTracing()}
	metrics, err := observability.NewTaskMetrics(observability.Meter())
	if err != nil {
		log.Warn("task metrics disabled", logger.Fields(logger.FieldError, err.Error()))
	} else {
		mw = append(mw, dag.WithMetrics(metrics))
	}
	return p.Executor(dag.WithMiddleware(mw...))
}

func orDefault(tasks []string) []string {
	if len(tasks) == 0 {
		return []string{firmware.TaskDefault}
	}
	return tasks
}

func printPlan(exec *dag.Executor, targets []string) error {
	order, err := exec.Plan(targets...)
	if err != nil {
		return err
	}
	for i, name := range order {
		t, _ := exec.Tasks().Get(name)
		fmt.Printf("%3d. %-16s %s\n", i+1, name, t.Description)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Internal(err)
	}
	fmt.Println(string(out))
	return nil
}

func printState(l *ledger.Ledger) error {
	state := map[string]any{"target": l.Target()}
	tasks := make(map[string]ledger.Record)
	for _, name := range l.Tasks() {
		rec, _ := l.Get(name)
		tasks[name] = rec
	}
	state["tasks"] = tasks

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(state); err != nil {
		return errors.Internal(err)
	}
	return enc.Close()
}

// exitCode maps err to the process exit status. Cancellation anywhere in
// the chain wins.
func exitCode(err error) int {
	if errors.HasCode(err, errors.ErrCodeCancelled) {
		return errors.ExitCode(errors.ErrCodeCancelled)
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return errors.ExitCode(appErr.Code)
	}
	return 1
}
