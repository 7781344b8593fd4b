package plugins

import (
	"fmt"

	"github.com/kingrea/shopsetup/internal/task"
)

// RegisterTaskPlugins discovers YAML and Go task definitions under dir and
// registers them. A name may only be declared once across all files and must
// not collide with a task already in the registry.
func RegisterTaskPlugins(reg *task.Registry, dir string) ([]DefinitionFile, error) {
	if reg == nil {
		return nil, nil
	}
	defs, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	seen := make(map[string]string)
	for _, file := range defs {
		name := file.Definition.Name
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("plugin: duplicate task name %s (%s and %s)", name, existing, file.Path)
		}
		seen[name] = file.Path
		if reg.Has(name) {
			return nil, fmt.Errorf("plugin: %s from %s collides with a registered task", name, file.Path)
		}
		if err := reg.Register(name, func() (task.Task, error) {
			return newSQLTask(file)
		}); err != nil {
			return nil, fmt.Errorf("plugin: register %s from %s: %w", name, file.Path, err)
		}
	}
	return defs, nil
}
