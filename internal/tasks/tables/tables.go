// Package tables creates the catalog index tables in their current shape.
// Tasks that patch older layouts of these tables declare it as a
// post-dependency, so legacy tables are upgraded first and only tables that do
// not exist yet are created here.
package tables

import (
	"context"
	"fmt"

	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/task"
)

// Name is the task identifier.
const Name = "TablesCreateMShop"

// Table names owned by this task.
const (
	CatalogIndexAttribute = "mshop_catalog_index_attribute"
	CatalogIndexPrice     = "mshop_catalog_index_price"
	CatalogIndexText      = "mshop_catalog_index_text"
)

// Tables lists the created tables in creation order.
var Tables = []string{CatalogIndexAttribute, CatalogIndexPrice, CatalogIndexText}

type dialect struct {
	datetime string
	text     string
	suffix   string
	quote    func(string) string
}

var dialects = map[string]dialect{
	schema.EngineMySQL: {
		datetime: "DATETIME",
		text:     "TEXT",
		suffix:   " ENGINE=InnoDB CHARACTER SET = utf8",
		quote:    func(s string) string { return "`" + s + "`" },
	},
	schema.EnginePostgres: {
		datetime: "TIMESTAMP",
		text:     "TEXT",
		quote:    func(s string) string { return `"` + s + `"` },
	},
	schema.EngineSQLite: {
		datetime: "DATETIME",
		text:     "TEXT",
		quote:    func(s string) string { return `"` + s + `"` },
	},
}

// Task creates the catalog index tables.
type Task struct {
	*task.Base
}

// Register installs the task factory.
func Register(reg *task.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(Name, func() (task.Task, error) {
		return New(), nil
	})
}

// New constructs the task with a routine for every supported engine.
func New() *Task {
	base := task.NewBase(task.Info{
		Name:        Name,
		Description: "Creates the catalog index tables",
	})
	for engine, d := range dialects {
		base.On(engine, routine(d))
	}
	return &Task{Base: base}
}

func routine(d dialect) task.Routine {
	return func(ctx context.Context, ec *task.Context) (task.Result, error) {
		ec.Log().Info("Creating catalog index tables")
		steps := make([]task.Step, 0, len(Tables))
		for _, table := range Tables {
			steps = append(steps, task.Step{
				Description: fmt.Sprintf("table %q", table),
				When:        []task.Condition{task.TableMissing(table)},
				SQL:         []string{d.createTable(table)},
			})
		}
		return task.RunSteps(ctx, ec, steps...)
	}
}

func (d dialect) createTable(table string) string {
	q := d.quote
	common := func(refColumn string) string {
		return fmt.Sprintf("\t%s INTEGER NOT NULL,\n\t%s INTEGER NOT NULL,\n\t%s INTEGER NULL,\n\t%s VARCHAR(32) NOT NULL,\n\t%s VARCHAR(32) NOT NULL,\n",
			q("prodid"), q("siteid"), q(refColumn), q("listtype"), q("type"))
	}
	audit := fmt.Sprintf("\t%s %s NOT NULL,\n\t%s %s NOT NULL,\n\t%s VARCHAR(255) NOT NULL",
		q("mtime"), d.datetime, q("ctime"), d.datetime, q("editor"))

	var body string
	switch table {
	case CatalogIndexAttribute:
		body = common("attrid") +
			fmt.Sprintf("\t%s VARCHAR(255) NOT NULL,\n", q("code")) +
			audit
	case CatalogIndexPrice:
		body = common("priceid") +
			fmt.Sprintf("\t%s CHAR(3) NOT NULL,\n\t%s DECIMAL(12,2) NOT NULL,\n\t%s DECIMAL(12,2) NOT NULL,\n\t%s DECIMAL(12,2) NOT NULL,\n\t%s DECIMAL(5,2) NOT NULL,\n\t%s INTEGER NOT NULL,\n",
				q("currencyid"), q("value"), q("costs"), q("rebate"), q("taxrate"), q("quantity")) +
			audit
	case CatalogIndexText:
		body = common("textid") +
			fmt.Sprintf("\t%s VARCHAR(5) NULL,\n\t%s VARCHAR(32) NOT NULL,\n\t%s %s NOT NULL,\n",
				q("langid"), q("domain"), q("value"), d.text) +
			audit
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s", q(table), body, d.suffix)
}
