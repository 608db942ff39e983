package dag

import "time"

// Pipeline is a YAML-defined set of extra tasks merged into the build graph.
//
//	name: release
//	includes: [checks]
//	tasks:
//	  - name: flash
//	    depends_on: [build]
//	    run: cp out/K64F/*.bin /media/DAPLINK/
//	    creates: out/.flashed
type Pipeline struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name"`
	// Includes lists sub-pipeline names to compose (recursive).
	Includes []string `yaml:"includes,omitempty"`
	// Tasks defines the pipeline's tasks.
	Tasks []TaskDef `yaml:"tasks"`
}

// TaskDef declares one shell task.
type TaskDef struct {
	Name string `yaml:"name"`
	// DependsOn lists prerequisite task names, which may be built-in tasks.
	DependsOn []string `yaml:"depends_on,omitempty"`
	// Run is the shell command line.
	Run string `yaml:"run"`
	// Dir is the working directory relative to the build root.
	Dir string `yaml:"dir,omitempty"`
	// Creates is a path under the build root; the task is skipped when it exists.
	Creates     string        `yaml:"creates,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Description string        `yaml:"description,omitempty"`
}

// TaskFactory turns a declaration into an executable task.
type TaskFactory func(def TaskDef) (Task, error)
