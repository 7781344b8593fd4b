package catalog

import (
	"context"
	"fmt"

	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks/tables"
)

// IndexRefsNullName allows NULL in the catalog index reference columns.
const IndexRefsNullName = "CatalogChangeIndexAttridPriceidTextidNull"

var nullableRefs = []columnRef{
	{table: tables.CatalogIndexAttribute, column: "attrid"},
	{table: tables.CatalogIndexPrice, column: "priceid"},
	{table: tables.CatalogIndexText, column: "textid"},
}

// SQLite cannot change a column's nullability in place, so there is no
// routine for it.
var dropNotNullSQL = map[string]func(table, column string) string{
	schema.EngineMySQL: func(table, column string) string {
		return fmt.Sprintf("ALTER TABLE `%s` MODIFY `%s` INTEGER NULL", table, column)
	},
	schema.EnginePostgres: func(table, column string) string {
		return fmt.Sprintf(`ALTER TABLE "%s" ALTER COLUMN "%s" DROP NOT NULL`, table, column)
	},
}

// IndexRefsNull changes attrid/priceid/textid to accept NULL.
type IndexRefsNull struct {
	*task.Base
}

// NewIndexRefsNull constructs the task.
func NewIndexRefsNull() *IndexRefsNull {
	base := task.NewBase(task.Info{
		Name:        IndexRefsNullName,
		Description: "Changes the attrid/priceid/textid columns of the catalog index tables to allow NULL",
		Pre:         []string{AddIndexRefsName},
		Post:        []string{tables.Name},
	})
	for engine, render := range dropNotNullSQL {
		base.On(engine, func(ctx context.Context, ec *task.Context) (task.Result, error) {
			ec.Log().Info("Changing reference ID columns of catalog index tables to NULL")
			steps := make([]task.Step, 0, len(nullableRefs))
			for _, ref := range nullableRefs {
				steps = append(steps, task.Step{
					Description: fmt.Sprintf("table %q and column %q", ref.table, ref.column),
					When: []task.Condition{
						task.TableExists(ref.table),
						task.ColumnNotNullable(ref.table, ref.column),
					},
					SQL: []string{render(ref.table, ref.column)},
				})
			}
			return task.RunSteps(ctx, ec, steps...)
		})
	}
	return &IndexRefsNull{Base: base}
}

// Register installs both catalog task factories.
func Register(reg *task.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(AddIndexRefsName, func() (task.Task, error) {
		return NewAddIndexRefs(), nil
	})
	reg.MustRegister(IndexRefsNullName, func() (task.Task, error) {
		return NewIndexRefsNull(), nil
	})
}
