package task

import (
	"context"
	"fmt"

	"github.com/kingrea/shopsetup/internal/schema"
)

// Condition is a read-only check against the live schema.
type Condition func(ctx context.Context, in schema.Introspector) (bool, error)

// Step is one idempotent unit inside a routine: its statements run only when
// every condition holds at the moment the step is reached.
type Step struct {
	Description string
	When        []Condition
	SQL         []string
}

// RunSteps evaluates steps in declaration order. Each step is checked right
// before it runs, so a later step sees the effects of earlier ones. The
// result is Applied if any statement ran and Skipped otherwise.
func RunSteps(ctx context.Context, ec *Context, steps ...Step) (Result, error) {
	changed := 0
	for _, step := range steps {
		log := ec.Log()
		log.Info("Checking %s", step.Description)
		needed, err := allHold(ctx, ec.Schema, step.When)
		if err != nil {
			log.Error("%s: %v", step.Description, err)
			return Result{Outcome: OutcomeFailed, Message: step.Description}, fmt.Errorf("inspect %s: %w", step.Description, err)
		}
		if !needed {
			log.Info("%s: OK", step.Description)
			continue
		}
		for _, stmt := range step.SQL {
			if ec.Logger != nil {
				ec.Logger.DebugContext(ctx, "execute statement", "step", step.Description, "sql", stmt)
			}
			if err := ec.Exec.Execute(ctx, stmt); err != nil {
				log.Error("%s: %v", step.Description, err)
				return Result{Outcome: OutcomeFailed, Message: step.Description}, err
			}
		}
		log.Info("%s: changed", step.Description)
		changed++
	}
	if changed == 0 {
		return Skipped("already applied"), nil
	}
	return Applied("%d of %d steps applied", changed, len(steps)), nil
}

func allHold(ctx context.Context, in schema.Introspector, conds []Condition) (bool, error) {
	for _, cond := range conds {
		ok, err := cond(ctx, in)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// TableMissing holds when table does not exist.
func TableMissing(table string) Condition {
	return func(ctx context.Context, in schema.Introspector) (bool, error) {
		exists, err := in.TableExists(ctx, table)
		return !exists, err
	}
}

// TableExists holds when table exists.
func TableExists(table string) Condition {
	return func(ctx context.Context, in schema.Introspector) (bool, error) {
		return in.TableExists(ctx, table)
	}
}

// ColumnMissing holds when the column does not exist.
func ColumnMissing(table, column string) Condition {
	return func(ctx context.Context, in schema.Introspector) (bool, error) {
		exists, err := in.ColumnExists(ctx, table, column)
		return !exists, err
	}
}

// ColumnExists holds when the column exists.
func ColumnExists(table, column string) Condition {
	return func(ctx context.Context, in schema.Introspector) (bool, error) {
		return in.ColumnExists(ctx, table, column)
	}
}

// ColumnNotNullable holds when the column exists and rejects NULL.
func ColumnNotNullable(table, column string) Condition {
	return nullability(table, column, false)
}

// ColumnNullable holds when the column exists and accepts NULL.
func ColumnNullable(table, column string) Condition {
	return nullability(table, column, true)
}

func nullability(table, column string, want bool) Condition {
	return func(ctx context.Context, in schema.Introspector) (bool, error) {
		exists, err := in.ColumnExists(ctx, table, column)
		if err != nil || !exists {
			return false, err
		}
		nullable, err := in.ColumnNullable(ctx, table, column)
		if err != nil {
			return false, err
		}
		return nullable == want, nil
	}
}
