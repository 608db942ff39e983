package dag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/mbedjs/errors"
)

// Registry holds named tasks. Registration must complete before a run starts.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task. Empty and duplicate names are rejected.
func (r *Registry) Register(t Task) error {
	if t.Name == "" {
		return errors.Config("task name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.Name]; exists {
		return errors.Config(fmt.Sprintf("task %q registered twice", t.Name)).
			WithDetail("task", t.Name)
	}
	r.tasks[t.Name] = t
	return nil
}

// Get retrieves a task by name.
func (r *Registry) Get(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// List returns sorted names of all registered tasks.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closure returns the graph of targets and everything they transitively
// require. Unknown names are configuration errors.
func (r *Registry) Closure(targets ...string) (*Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []Task
	seen := make(map[string]bool)
	var visit func(name, referencedBy string) error
	visit = func(name, referencedBy string) error {
		if seen[name] {
			return nil
		}
		t, ok := r.tasks[name]
		if !ok {
			return errors.UnknownTask(name, referencedBy)
		}
		seen[name] = true
		tasks = append(tasks, t)
		for _, p := range t.Prerequisites {
			if err := visit(p, name); err != nil {
				return err
			}
		}
		return nil
	}

	for _, target := range targets {
		if err := visit(target, ""); err != nil {
			return nil, err
		}
	}
	return NewGraph(tasks...), nil
}
