package firmware

import (
	"context"
	"path/filepath"

	"github.com/kbukum/mbedjs/codegen"
	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/process"
)

// Task names.
const (
	TaskMakeBuildDir   = "make-build-dir"
	TaskGetJerryScript = "get-jerryscript"
	TaskGetMbedOS      = "get-mbed-os"
	TaskSource         = "source"
	TaskTools          = "tools"
	TaskMbedApp        = "mbed_app"
	TaskIgnoreFile     = "ignorefile"
	TaskConfig         = "config"
	TaskBundle         = "bundle"
	TaskCppify         = "cppify"
	TaskPins           = "pins"
	TaskRequirements   = "requirements"
	TaskBuild          = "build"
	TaskClean          = "clean"
	TaskDeepClean      = "deepclean"
	TaskScaffold       = "scaffold"
	TaskDefault        = "default"
)

// Build-root paths owned by tasks.
const (
	dirJerryScript = "jerryscript"
	dirMbedOS      = "mbed-os"
	dirSource      = "source"
	dirTools       = "tools"
	dirJS          = "js"
	dirOut         = "out"
	fileMbedApp    = "mbed_app.json"
	fileIgnore     = ".mbedignore"
	fileMbed       = ".mbed"
	fileBuildLog   = "build.log"
)

// ScaffoldTasks are the tasks gated on their output already existing.
// Running them against a fully staged build root starts no process.
var ScaffoldTasks = []string{
	TaskMakeBuildDir,
	TaskGetJerryScript,
	TaskGetMbedOS,
	TaskSource,
	TaskTools,
	TaskMbedApp,
	TaskIgnoreFile,
	TaskConfig,
}

func defaultOutputs() map[string]output {
	return map[string]output{
		TaskMakeBuildDir:   {paths: []string{"."}},
		TaskGetJerryScript: {paths: []string{dirJerryScript}},
		TaskGetMbedOS:      {paths: []string{dirMbedOS}},
		TaskSource:         {paths: []string{dirSource}},
		TaskTools:          {paths: []string{dirTools}},
		TaskMbedApp:        {paths: []string{fileMbedApp}, fingerprint: true},
		TaskIgnoreFile:     {paths: []string{fileIgnore}, fingerprint: true},
		TaskConfig:         {paths: []string{fileMbed}},
		TaskBundle:         {paths: []string{dirJS}, fingerprint: true},
		TaskCppify:         {},
		TaskPins:           {},
		TaskRequirements:   {},
		TaskBuild:          {paths: []string{dirOut, fileBuildLog}},
	}
}

// Tasks returns the built-in task set.
func (p *Pipeline) Tasks() []dag.Task {
	return []dag.Task{
		{
			Name:        TaskMakeBuildDir,
			Description: "create the build directory",
			Action:      p.makeBuildDir,
		},
		{
			Name:          TaskGetJerryScript,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "clone the JerryScript runtime",
			Action:        p.clone(TaskGetJerryScript, p.cfg.Repos.JerryScript, dirJerryScript),
		},
		{
			Name:          TaskGetMbedOS,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "clone mbed OS",
			Action:        p.clone(TaskGetMbedOS, p.cfg.Repos.MbedOS, dirMbedOS),
		},
		{
			Name:          TaskSource,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "stage firmware sources",
			Action:        p.stage(TaskSource, dirSource),
		},
		{
			Name:          TaskTools,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "stage build tools",
			Action:        p.stage(TaskTools, dirTools),
		},
		{
			Name:          TaskMbedApp,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "generate mbed_app.json",
			Action:        p.render(TaskMbedApp, codegen.MbedAppTemplate, fileMbedApp),
		},
		{
			Name:          TaskIgnoreFile,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "generate .mbedignore",
			Action:        p.render(TaskIgnoreFile, codegen.MbedIgnoreTemplate, fileIgnore),
		},
		{
			Name:          TaskConfig,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "configure the mbed project",
			Action:        p.configure,
		},
		{
			Name:          TaskBundle,
			Prerequisites: []string{TaskMakeBuildDir},
			Description:   "bundle and minify the application",
			Action:        p.incremental(TaskBundle, p.bundleInputs, p.bundle),
		},
		{
			Name:          TaskCppify,
			Prerequisites: []string{TaskGetJerryScript, TaskBundle},
			Description:   "convert the bundle to C sources",
			Action:        p.incremental(TaskCppify, p.cppifyInputs, p.cppify),
		},
		{
			Name:          TaskPins,
			Prerequisites: []string{TaskTools, TaskGetMbedOS, TaskBundle},
			Description:   "generate pin definitions for the target",
			Action:        p.incremental(TaskPins, p.pinsInputs, p.pins),
		},
		{
			Name:          TaskRequirements,
			Prerequisites: []string{TaskTools},
			Description:   "install python requirements of the build tools",
			Action:        p.incremental(TaskRequirements, p.requirementsInputs, p.requirements),
		},
		{
			Name: TaskBuild,
			Prerequisites: []string{
				TaskConfig, TaskCppify, TaskIgnoreFile, TaskSource,
				TaskPins, TaskMbedApp, TaskRequirements,
			},
			Description: "resolve native packages and compile the firmware",
			Action:      p.incremental(TaskBuild, p.buildInputs, p.build),
		},
		{
			Name:        TaskClean,
			Description: "remove compiler output",
			Action:      p.clean,
		},
		{
			Name:        TaskDeepClean,
			Description: "remove the build directory",
			Action:      p.deepClean,
		},
		{
			Name:          TaskScaffold,
			Prerequisites: ScaffoldTasks,
			Description:   "stage everything that does not depend on the application",
		},
		{
			Name:          TaskDefault,
			Prerequisites: []string{TaskBuild},
			Description:   "build the firmware",
		},
	}
}

func (p *Pipeline) root() string { return p.probe.Root() }

func (p *Pipeline) skip(task, rel string) bool {
	if p.probe.Done(task, rel) {
		p.log.Debug("up to date", logger.Fields(logger.FieldTask, task, logger.FieldPath, p.probe.Path(rel)))
		return true
	}
	return false
}

func (p *Pipeline) makeBuildDir(_ context.Context) error {
	if p.skip(TaskMakeBuildDir, ".") {
		return nil
	}
	if err := p.fs.MkdirAll(p.root(), 0o755); err != nil {
		return errors.Internal(err).WithDetail("path", p.root())
	}
	return nil
}

func (p *Pipeline) clone(task, repo, dir string) dag.Action {
	return func(ctx context.Context) error {
		if p.skip(task, dir) {
			return nil
		}
		// a checkout left by a failed or forced run is replaced
		if p.probe.Exists(dir) {
			if err := p.fs.RemoveAll(p.probe.Path(dir)); err != nil {
				return errors.Internal(err).WithDetail("path", p.probe.Path(dir))
			}
		}
		_, err := p.runner.Run(ctx, process.Command{
			Binary: "git",
			Args:   []string{"clone", repo, dir},
			Dir:    p.root(),
		})
		return err
	}
}

func (p *Pipeline) stage(task, dir string) dag.Action {
	return func(_ context.Context) error {
		if p.skip(task, dir) {
			return nil
		}
		src := filepath.Join(p.cfg.Resolve(p.cfg.SupportDir), dir)
		return copyTree(p.fs, src, p.probe.Path(dir))
	}
}

func (p *Pipeline) render(task, tmpl, file string) dag.Action {
	return func(_ context.Context) error {
		if p.skip(task, file) {
			return nil
		}
		return p.renderer.Render(tmpl, p.templateData(nil), p.probe.Path(file))
	}
}

func (p *Pipeline) configure(ctx context.Context) error {
	if p.skip(TaskConfig, fileMbed) {
		return nil
	}
	line := process.JoinCommandsFor(p.goos,
		`echo "ROOT=." > .mbed`,
		"mbed config root .",
		"mbed toolchain "+p.cfg.Toolchain,
	)
	_, err := p.runner.Run(ctx, process.ShellFor(p.goos, line, p.root()))
	return err
}

func (p *Pipeline) cppifyInputs() (*inputSet, error) {
	return newInputs().Path(p.probe.Path(dirJS)), nil
}

func (p *Pipeline) cppify(ctx context.Context) ([]string, error) {
	_, err := p.runner.Run(ctx, process.Command{
		Binary: "python",
		Args:   []string{"jerryscript/tools/js2c.py", "--ignore", "pins.js", "--no-main"},
		Dir:    p.root(),
	})
	return nil, err
}

func (p *Pipeline) pinsInputs() (*inputSet, error) {
	return newInputs().
		Value("target", p.cfg.Target).
		Path(p.probe.Path(dirTools)), nil
}

func (p *Pipeline) pins(ctx context.Context) ([]string, error) {
	if err := p.cfg.RequireTarget(); err != nil {
		return nil, err
	}
	_, err := p.runner.Run(ctx, process.Command{
		Binary: "python",
		Args:   []string{"tools/generate_pins.py", p.cfg.Target},
		Dir:    p.root(),
	})
	return nil, err
}

func (p *Pipeline) requirementsInputs() (*inputSet, error) {
	return newInputs().Path(filepath.Join(p.probe.Path(dirTools), "requirements.txt")), nil
}

func (p *Pipeline) requirements(ctx context.Context) ([]string, error) {
	_, err := p.runner.Run(ctx, process.Command{
		Binary: "pip",
		Args:   []string{"install", "-r", "requirements.txt"},
		Dir:    p.probe.Path(dirTools),
	})
	return nil, err
}

func (p *Pipeline) clean(_ context.Context) error {
	out := p.probe.Path(dirOut)
	if err := p.fs.RemoveAll(out); err != nil {
		return errors.Internal(err).WithDetail("path", out)
	}
	if p.ledger != nil {
		return p.ledger.Forget(TaskBuild)
	}
	return nil
}

func (p *Pipeline) deepClean(_ context.Context) error {
	if err := p.fs.RemoveAll(p.root()); err != nil {
		return errors.Internal(err).WithDetail("path", p.root())
	}
	if p.ledger != nil {
		p.ledger.Reset()
	}
	return nil
}
