package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/schema/schematest"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks/tables"
)

func runTask(t *testing.T, tk task.Task, engine string, db *schematest.Schema) (task.Result, *logbook.Logbook) {
	t.Helper()
	routine, ok := tk.Routine(engine)
	if !ok {
		t.Fatalf("%s has no %s routine", tk.Info().Name, engine)
	}
	book := logbook.NewMemory()
	ec := task.NewContext(engine, db, book, nil).ForTask(tk.Info().Name)
	res, err := routine(context.Background(), ec)
	if err != nil {
		t.Fatalf("run %s: %v", tk.Info().Name, err)
	}
	return res, book
}

func TestIndexRefsNullSkipsWhenAlreadyNullable(t *testing.T) {
	db := schematest.New().
		AddTable(tables.CatalogIndexAttribute, schematest.Column{Name: "attrid", Type: "INTEGER", Nullable: true}).
		AddTable(tables.CatalogIndexPrice, schematest.Column{Name: "priceid", Type: "INTEGER", Nullable: true}).
		AddTable(tables.CatalogIndexText, schematest.Column{Name: "textid", Type: "INTEGER", Nullable: true})

	res, book := runTask(t, NewIndexRefsNull(), "mysql", db)
	if res.Outcome != task.OutcomeSkipped {
		t.Fatalf("expected skipped, got %+v", res)
	}
	if len(db.Statements()) != 0 {
		t.Fatalf("no statements expected, got %v", db.Statements())
	}
	oks := 0
	for _, entry := range book.Entries() {
		if strings.HasSuffix(entry.Message, ": OK") {
			oks++
		}
	}
	if oks != 3 {
		t.Fatalf("expected 3 OK status lines, got %d", oks)
	}
}

func TestIndexRefsNullAppliesWhenNotNullable(t *testing.T) {
	for _, engine := range []string{"mysql", "pgsql"} {
		t.Run(engine, func(t *testing.T) {
			ctx := context.Background()
			db := schematest.New().
				AddTable(tables.CatalogIndexPrice,
					schematest.Column{Name: "prodid", Type: "INTEGER"},
					schematest.Column{Name: "priceid", Type: "INTEGER"})

			res, _ := runTask(t, NewIndexRefsNull(), engine, db)
			if res.Outcome != task.OutcomeApplied {
				t.Fatalf("expected applied, got %+v", res)
			}
			nullable, err := db.ColumnNullable(ctx, tables.CatalogIndexPrice, "priceid")
			if err != nil || !nullable {
				t.Fatalf("expected priceid nullable, got %v %v", nullable, err)
			}
			if len(db.Statements()) != 1 {
				t.Fatalf("expected a single statement, got %v", db.Statements())
			}

			res, _ = runTask(t, NewIndexRefsNull(), engine, db)
			if res.Outcome != task.OutcomeSkipped {
				t.Fatalf("second run should skip, got %+v", res)
			}
		})
	}
}

func TestIndexRefsNullHasNoSQLiteRoutine(t *testing.T) {
	if _, ok := NewIndexRefsNull().Routine("sqlite"); ok {
		t.Fatalf("sqlite routine should not exist")
	}
}

func TestAddIndexRefsOnlyTouchesExistingTables(t *testing.T) {
	ctx := context.Background()
	db := schematest.New().
		AddTable(tables.CatalogIndexPrice,
			schematest.Column{Name: "prodid", Type: "INTEGER"},
			schematest.Column{Name: "siteid", Type: "INTEGER"})

	res, _ := runTask(t, NewAddIndexRefs(), "mysql", db)
	if res.Outcome != task.OutcomeApplied {
		t.Fatalf("expected applied, got %+v", res)
	}
	if ok, _ := db.ColumnExists(ctx, tables.CatalogIndexPrice, "priceid"); !ok {
		t.Fatalf("priceid was not added")
	}
	if ok, _ := db.TableExists(ctx, tables.CatalogIndexText); ok {
		t.Fatalf("text table must not be created by this task")
	}
	want := "ALTER TABLE `mshop_catalog_index_price` ADD `priceid` INTEGER NOT NULL AFTER `siteid`"
	if got := db.Statements(); len(got) != 1 || got[0] != want {
		t.Fatalf("unexpected statements: %v", got)
	}
}

func TestRegisterDeclaresOrdering(t *testing.T) {
	reg := task.NewRegistry()
	Register(reg)
	tk, err := reg.Resolve(IndexRefsNullName)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	info := tk.Info()
	if len(info.Pre) != 1 || info.Pre[0] != AddIndexRefsName {
		t.Fatalf("unexpected pre: %v", info.Pre)
	}
	if len(info.Post) != 1 || info.Post[0] != tables.Name {
		t.Fatalf("unexpected post: %v", info.Post)
	}
}
