package firmware

import (
	"context"
	"path/filepath"

	"github.com/kbukum/mbedjs/dag"
	"github.com/kbukum/mbedjs/process"
	"github.com/kbukum/mbedjs/validation"
)

// extraTasks loads the tasks of the configured pipeline file. Files it
// includes are looked up next to it.
func (p *Pipeline) extraTasks() ([]dag.Task, error) {
	if p.cfg.Pipeline == "" {
		return nil, nil
	}
	path := p.cfg.Resolve(p.cfg.Pipeline)
	pl, err := dag.LoadPipeline(p.fs, path)
	if err != nil {
		return nil, err
	}
	loader := dag.NewFilePipelineLoader(p.fs, filepath.Dir(path))
	return dag.ResolvePipeline(pl, p.shellTask, loader)
}

// shellTask turns a pipeline file entry into a task running its command
// line in the build root. An entry with Creates is skipped once that path
// exists.
func (p *Pipeline) shellTask(def dag.TaskDef) (dag.Task, error) {
	err := validation.New().
		Required("tasks."+def.Name+".run", def.Run).
		Custom(!filepath.IsAbs(def.Dir), "tasks."+def.Name+".dir", "must be relative to the build directory").
		Custom(!filepath.IsAbs(def.Creates), "tasks."+def.Name+".creates", "must be relative to the build directory").
		Validate()
	if err != nil {
		return dag.Task{}, err
	}

	dir := p.root()
	if def.Dir != "" {
		dir = p.probe.Path(def.Dir)
	}
	if def.Creates != "" {
		p.outputs[def.Name] = output{paths: []string{def.Creates}}
	}

	return dag.Task{
		Name:          def.Name,
		Prerequisites: def.DependsOn,
		Timeout:       def.Timeout,
		Description:   def.Description,
		Action: func(ctx context.Context) error {
			if def.Creates != "" && p.skip(def.Name, def.Creates) {
				return nil
			}
			_, err := p.runner.Run(ctx, process.ShellFor(p.goos, def.Run, dir))
			return err
		},
	}, nil
}
