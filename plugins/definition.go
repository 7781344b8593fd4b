package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/task"
)

// TaskDefinition describes a declarative setup task loaded from YAML or a
// Go-scripted plugin.
//
// The struct mirrors the on-disk schema under .setup/tasks/*.yaml and is
// intentionally narrow so definitions can be validated before they are
// registered alongside the built-in tasks.
type TaskDefinition struct {
	Name        string                      `json:"name" yaml:"name"`
	Description string                      `json:"description,omitempty" yaml:"description,omitempty"`
	Pre         []string                    `json:"pre,omitempty" yaml:"pre,omitempty"`
	Post        []string                    `json:"post,omitempty" yaml:"post,omitempty"`
	Engines     map[string][]StepDefinition `json:"engines" yaml:"engines"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
// Engine keys are mapped onto canonical identifiers.
func (def TaskDefinition) Normalized() TaskDefinition {
	clone := TaskDefinition{
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Pre:         trimList(def.Pre),
		Post:        trimList(def.Post),
	}
	if len(def.Engines) > 0 {
		clone.Engines = make(map[string][]StepDefinition, len(def.Engines))
		for engine, steps := range def.Engines {
			key := schema.NormalizeEngine(engine)
			if key == "" {
				continue
			}
			normalized := make([]StepDefinition, len(steps))
			for i, step := range steps {
				normalized[i] = step.normalized()
			}
			clone.Engines[key] = append(clone.Engines[key], normalized...)
		}
	}
	return clone
}

// Validate ensures the definition is well-formed.
func (def TaskDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("plugin: name is required")
	}
	if err := normalized.Info().Validate(); err != nil {
		return fmt.Errorf("plugin %s: %w", normalized.Name, err)
	}
	if len(normalized.Engines) == 0 {
		return fmt.Errorf("plugin %s: at least one engine is required", normalized.Name)
	}
	for engine, steps := range normalized.Engines {
		if len(steps) == 0 {
			return fmt.Errorf("plugin %s: engine %s has no steps", normalized.Name, engine)
		}
		for idx, step := range steps {
			if err := step.Validate(); err != nil {
				return fmt.Errorf("plugin %s: %s[%d]: %w", normalized.Name, engine, idx, err)
			}
		}
	}
	return nil
}

// Info returns the task identity declared by the definition.
func (def TaskDefinition) Info() task.Info {
	return task.Info{
		Name:        def.Name,
		Description: def.Description,
		Pre:         append([]string{}, def.Pre...),
		Post:        append([]string{}, def.Post...),
	}
}

func (def TaskDefinition) empty() bool {
	return def.Name == "" && def.Description == "" && len(def.Pre) == 0 &&
		len(def.Post) == 0 && len(def.Engines) == 0
}

// StepDefinition is one guarded group of statements.
type StepDefinition struct {
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	When        WhenDefinition `json:"when" yaml:"when"`
	SQL         []string       `json:"sql" yaml:"sql"`
}

func (step StepDefinition) normalized() StepDefinition {
	return StepDefinition{
		Description: strings.TrimSpace(step.Description),
		When:        step.When.normalized(),
		SQL:         trimList(step.SQL),
	}
}

// Validate ensures the step is guarded and has statements.
func (step StepDefinition) Validate() error {
	normalized := step.normalized()
	if len(normalized.SQL) == 0 {
		return fmt.Errorf("sql is required")
	}
	if normalized.When.empty() {
		return fmt.Errorf("at least one when condition is required")
	}
	if _, err := normalized.When.Conditions(); err != nil {
		return err
	}
	return nil
}

// WhenDefinition lists the schema checks guarding a step. Every listed check
// must hold for the step to run. Table checks take "table"; column checks take
// "table.column".
type WhenDefinition struct {
	TableMissing      []string `json:"table_missing,omitempty" yaml:"table_missing,omitempty"`
	TableExists       []string `json:"table_exists,omitempty" yaml:"table_exists,omitempty"`
	ColumnMissing     []string `json:"column_missing,omitempty" yaml:"column_missing,omitempty"`
	ColumnExists      []string `json:"column_exists,omitempty" yaml:"column_exists,omitempty"`
	ColumnNotNullable []string `json:"column_not_nullable,omitempty" yaml:"column_not_nullable,omitempty"`
	ColumnNullable    []string `json:"column_nullable,omitempty" yaml:"column_nullable,omitempty"`
}

func (w WhenDefinition) normalized() WhenDefinition {
	return WhenDefinition{
		TableMissing:      trimList(w.TableMissing),
		TableExists:       trimList(w.TableExists),
		ColumnMissing:     trimList(w.ColumnMissing),
		ColumnExists:      trimList(w.ColumnExists),
		ColumnNotNullable: trimList(w.ColumnNotNullable),
		ColumnNullable:    trimList(w.ColumnNullable),
	}
}

func (w WhenDefinition) empty() bool {
	return len(w.TableMissing)+len(w.TableExists)+len(w.ColumnMissing)+
		len(w.ColumnExists)+len(w.ColumnNotNullable)+len(w.ColumnNullable) == 0
}

// Conditions converts the definition into schema checks, tables first.
func (w WhenDefinition) Conditions() ([]task.Condition, error) {
	var conds []task.Condition
	for _, table := range w.TableExists {
		conds = append(conds, task.TableExists(table))
	}
	for _, table := range w.TableMissing {
		conds = append(conds, task.TableMissing(table))
	}
	columnChecks := []struct {
		label string
		refs  []string
		build func(table, column string) task.Condition
	}{
		{"column_exists", w.ColumnExists, task.ColumnExists},
		{"column_missing", w.ColumnMissing, task.ColumnMissing},
		{"column_not_nullable", w.ColumnNotNullable, task.ColumnNotNullable},
		{"column_nullable", w.ColumnNullable, task.ColumnNullable},
	}
	for _, check := range columnChecks {
		for _, ref := range check.refs {
			table, column, err := splitColumnRef(ref)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", check.label, err)
			}
			conds = append(conds, check.build(table, column))
		}
	}
	return conds, nil
}

func splitColumnRef(ref string) (string, string, error) {
	table, column, ok := strings.Cut(ref, ".")
	table, column = strings.TrimSpace(table), strings.TrimSpace(column)
	if !ok || table == "" || column == "" {
		return "", "", fmt.Errorf("%q must be table.column", ref)
	}
	return table, column, nil
}

func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
