package dag

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/mbedjs/errors"
)

// PipelineLoader loads pipeline definitions by name.
type PipelineLoader interface {
	Load(name string) (*Pipeline, error)
}

// FilePipelineLoader loads pipelines from YAML files.
type FilePipelineLoader struct {
	fs   afero.Fs
	dirs []string
}

// NewFilePipelineLoader creates a loader that searches dirs on fs for pipeline files.
func NewFilePipelineLoader(fs afero.Fs, dirs ...string) PipelineLoader {
	return &FilePipelineLoader{fs: fs, dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml in each directory.
func (l *FilePipelineLoader) Load(name string) (*Pipeline, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if ok, _ := afero.Exists(l.fs, path); !ok {
				continue
			}
			return loadPipelineFile(l.fs, path)
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("pipeline %q", name), fmt.Sprint(l.dirs))
}

func loadPipelineFile(fs afero.Fs, path string) (*Pipeline, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Config(fmt.Sprintf("parsing pipeline %s", path)).WithCause(err)
	}
	if p.Name == "" {
		p.Name = filepath.Base(path)
	}
	return &p, nil
}

// LoadPipeline loads a pipeline from an explicit file path.
func LoadPipeline(fs afero.Fs, path string) (*Pipeline, error) {
	if ok, _ := afero.Exists(fs, path); !ok {
		return nil, errors.NotFound("pipeline file", path)
	}
	return loadPipelineFile(fs, path)
}

// ResolvePipeline converts a pipeline and its includes into tasks.
// Includes are resolved depth-first and the first definition of a name wins.
func ResolvePipeline(p *Pipeline, factory TaskFactory, loader PipelineLoader) ([]Task, error) {
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	seen := make(map[string]bool)
	var out []Task
	if err := resolvePipeline(p, factory, loader, stack, resolved, seen, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolvePipeline(p *Pipeline, factory TaskFactory, loader PipelineLoader, stack, resolved, seen map[string]bool, out *[]Task) error {
	if stack[p.Name] {
		return errors.Config(fmt.Sprintf("circular include of pipeline %q", p.Name))
	}
	stack[p.Name] = true
	defer delete(stack, p.Name)

	for _, includeName := range p.Includes {
		if resolved[includeName] {
			continue
		}
		if loader == nil {
			return errors.Config(fmt.Sprintf("pipeline %q includes %q but no loader is configured", p.Name, includeName))
		}
		sub, err := loader.Load(includeName)
		if err != nil {
			return errors.Config(fmt.Sprintf("loading include %q", includeName)).WithCause(err)
		}
		if err := resolvePipeline(sub, factory, loader, stack, resolved, seen, out); err != nil {
			return err
		}
	}

	for _, def := range p.Tasks {
		if def.Name == "" {
			return errors.Config(fmt.Sprintf("pipeline %q has a task without a name", p.Name))
		}
		if seen[def.Name] {
			continue
		}
		task, err := factory(def)
		if err != nil {
			return err
		}
		seen[def.Name] = true
		*out = append(*out, task)
	}

	resolved[p.Name] = true
	return nil
}
