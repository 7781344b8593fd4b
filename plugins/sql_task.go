package plugins

import (
	"context"
	"fmt"

	"github.com/kingrea/shopsetup/internal/task"
)

// sqlTask runs the guarded statements of a TaskDefinition.
type sqlTask struct {
	*task.Base
	source string
}

func newSQLTask(file DefinitionFile) (*sqlTask, error) {
	def := file.Definition.Normalized()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	base := task.NewBase(def.Info())
	for engine, defs := range def.Engines {
		steps := make([]task.Step, 0, len(defs))
		for idx, stepDef := range defs {
			conds, err := stepDef.When.Conditions()
			if err != nil {
				return nil, fmt.Errorf("plugin %s: %s[%d]: %w", def.Name, engine, idx, err)
			}
			desc := stepDef.Description
			if desc == "" {
				desc = fmt.Sprintf("step %d", idx+1)
			}
			steps = append(steps, task.Step{Description: desc, When: conds, SQL: stepDef.SQL})
		}
		base.On(engine, func(ctx context.Context, ec *task.Context) (task.Result, error) {
			if def.Description != "" {
				ec.Log().Info("%s", def.Description)
			}
			return task.RunSteps(ctx, ec, steps...)
		})
	}
	return &sqlTask{Base: base, source: file.Path}, nil
}

// Source names the plugin file that declared the task.
func (t *sqlTask) Source() string {
	return t.source
}
