package firmware

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/codegen"
	"github.com/kbukum/mbedjs/deptree"
	"github.com/kbukum/mbedjs/errors"
	"github.com/kbukum/mbedjs/logger"
	"github.com/kbukum/mbedjs/process"
)

// NativeExtrasDir is the project directory of hand-written native sources
// compiled along with every build.
const NativeExtrasDir = "native_extras"

// nativeExtrasSource is NativeExtrasDir as seen from the compiler's working
// directory.
const nativeExtrasSource = "../../../../native_extras/"

func (p *Pipeline) templateData(libs []deptree.NativePackage) codegen.Data {
	return codegen.Data{
		Libraries: libs,
		Target:    p.cfg.Target,
		HeapSize:  p.cfg.HeapSize,
	}
}

func (p *Pipeline) bundleLine(proj *Project) string {
	out := filepath.ToSlash(filepath.Join(p.cfg.BuildDir, dirJS, proj.BundleName()))
	return p.cfg.BundleCommand(proj.Main, proj.Name, out)
}

func (p *Pipeline) bundleInputs() (*inputSet, error) {
	proj, err := ReadProject(p.fs, p.cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	return newInputs().
		Value("command", p.bundleLine(proj)).
		Path(p.cfg.Resolve("package.json"), p.cfg.Resolve(proj.Main)), nil
}

func (p *Pipeline) bundle(ctx context.Context) ([]string, error) {
	proj, err := ReadProject(p.fs, p.cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	jsDir := p.probe.Path(dirJS)
	if err := p.fs.MkdirAll(jsDir, 0o755); err != nil {
		return nil, errors.Internal(err).WithDetail("path", jsDir)
	}

	_, err = p.runner.Run(ctx, process.ShellFor(p.goos, p.bundleLine(proj), p.cfg.ProjectDir))
	return nil, err
}

// CompileCommand composes the shell line that selects the target and
// compiles the staged project, adding the source directories of libs.
func (p *Pipeline) CompileCommand(libs []deptree.NativePackage, nativeExtras bool) string {
	target := p.cfg.Target

	libDirs := lo.Compact(lo.Map(libs, func(l deptree.NativePackage, _ int) string {
		return strings.Join(l.AbsSource, ":")
	}))
	if nativeExtras {
		libDirs = append(libDirs, nativeExtrasSource)
	}

	compile := "mbed compile -j0 --source . --build ./out/" + target +
		` -D "` + p.cfg.HeapDefine() + `"`
	if len(libDirs) > 0 {
		compile += " --source " + strings.Join(libDirs, ":")
	}
	return process.JoinCommandsFor(p.goos, "mbed target "+target, compile)
}

func (p *Pipeline) hasNativeExtras() bool {
	ok, _ := afero.DirExists(p.fs, p.cfg.Resolve(NativeExtrasDir))
	return ok
}

// buildInputs covers the staged tree and the project's dependency state.
// Library source directories are added as reads by build itself.
func (p *Pipeline) buildInputs() (*inputSet, error) {
	return newInputs().
		Value("target", p.cfg.Target).
		Value("heap", p.cfg.HeapDefine()).
		Value("goos", p.goos).
		Path(
			p.cfg.Resolve("package.json"),
			p.cfg.Resolve("package-lock.json"),
			p.cfg.Resolve(filepath.Join("node_modules", ".package-lock.json")),
			p.cfg.Resolve(NativeExtrasDir),
			p.probe.Path(dirSource),
			p.probe.Path(fileMbedApp),
			p.probe.Path(fileIgnore),
		), nil
}

func (p *Pipeline) build(ctx context.Context) ([]string, error) {
	if err := p.cfg.RequireTarget(); err != nil {
		return nil, err
	}

	libs, err := p.ResolveNativePackages(ctx)
	if err != nil {
		return nil, err
	}
	if len(libs) > 0 {
		p.log.Info("Found native packages: "+strings.Join(deptree.Names(libs), ", "),
			logger.Fields(logger.FieldTarget, p.cfg.Target))
	} else {
		p.log.Info("Found no native packages.", logger.Fields(logger.FieldTarget, p.cfg.Target))
	}

	mainPath := filepath.Join(p.probe.Path(dirSource), "main.cpp")
	if err := p.renderer.Render(codegen.MainTemplate, p.templateData(libs), mainPath); err != nil {
		return nil, err
	}

	logPath := p.probe.Path(fileBuildLog)
	logFile, err := p.fs.Create(logPath)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("path", logPath)
	}
	defer logFile.Close()

	cmd := process.ShellFor(p.goos, p.CompileCommand(libs, p.hasNativeExtras()), p.root())
	cmd.Output = logFile
	if _, err := p.runner.Run(ctx, cmd); err != nil {
		return nil, err
	}
	if p.ledger != nil {
		if err := p.ledger.SetTarget(p.cfg.Target); err != nil {
			return nil, err
		}
	}
	return deptree.SourceDirs(libs), nil
}
