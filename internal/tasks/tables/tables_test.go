package tables

import (
	"context"
	"strings"
	"testing"

	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/schema/schematest"
	"github.com/kingrea/shopsetup/internal/task"
)

func TestCreatesMissingTablesOnly(t *testing.T) {
	ctx := context.Background()
	db := schematest.New().AddTable(CatalogIndexPrice, schematest.Column{Name: "prodid", Type: "INTEGER"})
	routine, ok := New().Routine("mysql")
	if !ok {
		t.Fatalf("missing mysql routine")
	}
	ec := task.NewContext("mysql", db, logbook.NewMemory(), nil).ForTask(Name)
	res, err := routine(ctx, ec)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != task.OutcomeApplied {
		t.Fatalf("expected applied, got %+v", res)
	}
	stmts := db.Statements()
	if len(stmts) != 2 {
		t.Fatalf("expected two CREATE statements, got %d", len(stmts))
	}
	for _, stmt := range stmts {
		if strings.Contains(stmt, CatalogIndexPrice) {
			t.Fatalf("existing table must not be recreated: %s", stmt)
		}
	}
	nullable, err := db.ColumnNullable(ctx, CatalogIndexText, "textid")
	if err != nil || !nullable {
		t.Fatalf("textid should be nullable, got %v %v", nullable, err)
	}
	nullable, err = db.ColumnNullable(ctx, CatalogIndexText, "value")
	if err != nil || nullable {
		t.Fatalf("value should be NOT NULL, got %v %v", nullable, err)
	}

	res, err = routine(ctx, ec)
	if err != nil || res.Outcome != task.OutcomeSkipped {
		t.Fatalf("second run should skip, got %+v %v", res, err)
	}
}

func TestDialectsRenderEngineSpecificDDL(t *testing.T) {
	cases := map[string][]string{
		"mysql":  {"`mshop_catalog_index_price`", "DATETIME", "ENGINE=InnoDB"},
		"pgsql":  {`"mshop_catalog_index_price"`, "TIMESTAMP"},
		"sqlite": {`"mshop_catalog_index_price"`, "DATETIME"},
	}
	for engine, fragments := range cases {
		ddl := dialects[engine].createTable(CatalogIndexPrice)
		for _, fragment := range fragments {
			if !strings.Contains(ddl, fragment) {
				t.Fatalf("%s DDL missing %q:\n%s", engine, fragment, ddl)
			}
		}
	}
	if got := New().Engines(); len(got) != 3 {
		t.Fatalf("expected three engines, got %v", got)
	}
}
