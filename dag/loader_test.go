package dag

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/kbukum/mbedjs/errors"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func shellFactory(def TaskDef) (Task, error) {
	if def.Run == "" {
		return Task{}, fmt.Errorf("task %q has no run command", def.Name)
	}
	return Task{
		Name:          def.Name,
		Prerequisites: def.DependsOn,
		Timeout:       def.Timeout,
		Action:        func(context.Context) error { return nil },
	}, nil
}

func TestLoadPipeline(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/proj/mbedjs.pipeline.yml", `
name: release
tasks:
  - name: flash
    depends_on: [build]
    run: cp out/K64F/app.bin /media/DAPLINK/
    creates: out/.flashed
    timeout: 2m
  - name: size
    depends_on: [build]
    run: arm-none-eabi-size out/K64F/app.elf
`)

	p, err := LoadPipeline(fs, "/proj/mbedjs.pipeline.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "release" || len(p.Tasks) != 2 {
		t.Fatalf("unexpected pipeline: %+v", p)
	}
	flash := p.Tasks[0]
	if flash.Creates != "out/.flashed" || flash.Timeout.Minutes() != 2 {
		t.Errorf("flash def = %+v", flash)
	}
	if diff := cmp.Diff([]string{"build"}, flash.DependsOn); diff != "" {
		t.Errorf("depends_on mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPipelineErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := LoadPipeline(fs, "/missing.yml"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: got %v", err)
	}
	writeFile(t, fs, "/bad.yml", "tasks: [unclosed")
	if _, err := LoadPipeline(fs, "/bad.yml"); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Errorf("bad yaml: got %v", err)
	}
}

func TestFilePipelineLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/pipes/checks.yaml", "name: checks\ntasks:\n  - name: lint\n    run: npm run lint\n")
	loader := NewFilePipelineLoader(fs, "/other", "/pipes")

	p, err := loader.Load("checks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "checks" {
		t.Errorf("name = %q", p.Name)
	}
	if _, err := loader.Load("nonexistent"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestResolvePipelineIncludes(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/pipes/checks.yml", `
name: checks
tasks:
  - name: lint
    run: npm run lint
  - name: flash
    run: overridden-later
`)
	loader := NewFilePipelineLoader(fs, "/pipes")

	p := &Pipeline{
		Name:     "release",
		Includes: []string{"checks", "checks"},
		Tasks: []TaskDef{
			{Name: "flash", DependsOn: []string{"lint"}, Run: "flash.sh"},
			{Name: "size", Run: "size.sh"},
		},
	}
	tasks, err := ResolvePipeline(p, shellFactory, loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, tk := range tasks {
		names = append(names, tk.Name)
	}
	if diff := cmp.Diff([]string{"lint", "flash", "size"}, names); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
	if len(tasks[1].Prerequisites) != 0 {
		t.Errorf("included definition of flash should win, got prereqs %v", tasks[1].Prerequisites)
	}
}

func TestResolvePipelineCircularInclude(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/a.yml", "name: a\nincludes: [b]\n")
	writeFile(t, fs, "/p/b.yml", "name: b\nincludes: [a]\n")
	loader := NewFilePipelineLoader(fs, "/p")

	root, err := loader.Load("a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ResolvePipeline(root, shellFactory, loader); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestResolvePipelineFactoryError(t *testing.T) {
	p := &Pipeline{Name: "x", Tasks: []TaskDef{{Name: "empty"}}}
	if _, err := ResolvePipeline(p, shellFactory, nil); err == nil {
		t.Fatal("expected factory error")
	}
	p = &Pipeline{Name: "x", Tasks: []TaskDef{{Run: "true"}}}
	if _, err := ResolvePipeline(p, shellFactory, nil); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected config error for nameless task, got %v", err)
	}
	p = &Pipeline{Name: "x", Includes: []string{"y"}}
	if _, err := ResolvePipeline(p, shellFactory, nil); !errors.HasCode(err, errors.ErrCodeConfig) {
		t.Fatalf("expected config error without loader, got %v", err)
	}
}
