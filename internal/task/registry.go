package task

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a task.
type Factory func() (Task, error)

// Registry maintains known task factories keyed by task name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a task factory. Returns an error if the name already exists.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("task: name is required")
	}
	if factory == nil {
		return fmt.Errorf("task: factory is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("task: %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Resolve constructs a task by name.
func (r *Registry) Resolve(name string) (Task, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("task: unknown name %s", name)
	}
	t, err := factory()
	if err != nil {
		return nil, fmt.Errorf("task: construct %s: %w", name, err)
	}
	info := t.Info()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if info.Name != name {
		return nil, fmt.Errorf("task: %s registered but factory built %s", name, info.Name)
	}
	return t, nil
}

// ResolveAll constructs every registered task in name order.
func (r *Registry) ResolveAll() ([]Task, error) {
	names := r.Names()
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		t, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Names returns a sorted list of registered task names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
