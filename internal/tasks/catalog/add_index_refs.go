// Package catalog holds upgrade tasks for legacy catalog index tables.
package catalog

import (
	"context"
	"fmt"

	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks/tables"
)

// AddIndexRefsName adds the price and text reference columns.
const AddIndexRefsName = "CatalogAddIndexPriceidTextid"

type columnRef struct {
	table  string
	column string
}

var addedRefs = []columnRef{
	{table: tables.CatalogIndexPrice, column: "priceid"},
	{table: tables.CatalogIndexText, column: "textid"},
}

var addColumnSQL = map[string]func(table, column string) string{
	schema.EngineMySQL: func(table, column string) string {
		return fmt.Sprintf("ALTER TABLE `%s` ADD `%s` INTEGER NOT NULL AFTER `siteid`", table, column)
	},
	schema.EnginePostgres: func(table, column string) string {
		return fmt.Sprintf(`ALTER TABLE "%s" ADD COLUMN "%s" INTEGER NOT NULL DEFAULT 0`, table, column)
	},
	schema.EngineSQLite: func(table, column string) string {
		return fmt.Sprintf(`ALTER TABLE "%s" ADD COLUMN "%s" INTEGER NOT NULL DEFAULT 0`, table, column)
	},
}

// AddIndexRefs adds priceid/textid to catalog index tables created before
// those columns existed.
type AddIndexRefs struct {
	*task.Base
}

// NewAddIndexRefs constructs the task.
func NewAddIndexRefs() *AddIndexRefs {
	base := task.NewBase(task.Info{
		Name:        AddIndexRefsName,
		Description: "Adds priceid and textid to the catalog index price and text tables",
		Post:        []string{tables.Name},
	})
	for engine, render := range addColumnSQL {
		base.On(engine, func(ctx context.Context, ec *task.Context) (task.Result, error) {
			ec.Log().Info("Adding reference ID columns to catalog index tables")
			steps := make([]task.Step, 0, len(addedRefs))
			for _, ref := range addedRefs {
				steps = append(steps, task.Step{
					Description: fmt.Sprintf("table %q and column %q", ref.table, ref.column),
					When: []task.Condition{
						task.TableExists(ref.table),
						task.ColumnMissing(ref.table, ref.column),
					},
					SQL: []string{render(ref.table, ref.column)},
				})
			}
			return task.RunSteps(ctx, ec, steps...)
		})
	}
	return &AddIndexRefs{Base: base}
}
