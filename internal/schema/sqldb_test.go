package schema

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite3", filepath.Join(t.TempDir(), "setup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIntrospection(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	require.Equal(t, EngineSQLite, db.Engine())

	exists, err := db.TableExists(ctx, "mshop_catalog_index_price")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, db.Execute(ctx, `CREATE TABLE mshop_catalog_index_price (
		prodid INTEGER NOT NULL,
		priceid INTEGER NULL,
		currencyid CHAR(3) NOT NULL DEFAULT 'EUR'
	)`))

	exists, err = db.TableExists(ctx, "mshop_catalog_index_price")
	require.NoError(t, err)
	assert.True(t, exists)

	has, err := db.ColumnExists(ctx, "mshop_catalog_index_price", "priceid")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = db.ColumnExists(ctx, "mshop_catalog_index_price", "textid")
	require.NoError(t, err)
	assert.False(t, has)

	nullable, err := db.ColumnNullable(ctx, "mshop_catalog_index_price", "prodid")
	require.NoError(t, err)
	assert.False(t, nullable)

	nullable, err = db.ColumnNullable(ctx, "mshop_catalog_index_price", "priceid")
	require.NoError(t, err)
	assert.True(t, nullable)

	details, err := db.ColumnDetails(ctx, "mshop_catalog_index_price", "currencyid")
	require.NoError(t, err)
	assert.Equal(t, "char(3)", details.DataType)
	require.NotNil(t, details.Default)
	assert.Equal(t, "'EUR'", *details.Default)
}

func TestColumnDetailsMissingTable(t *testing.T) {
	db := openSQLite(t)
	_, err := db.ColumnDetails(context.Background(), "missing", "id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestExecuteWrapsStatementErrors(t *testing.T) {
	db := openSQLite(t)
	err := db.Execute(context.Background(), "ALTER TABLE missing ADD COLUMN id INTEGER")
	require.Error(t, err)
	var stmtErr *StatementError
	require.True(t, errors.As(err, &stmtErr))
	assert.Contains(t, stmtErr.Statement, "ALTER TABLE missing")
}

func TestOpenRejectsUnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported engine")
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), EngineMySQL, "  ")
	require.Error(t, err)
}

func TestWrapDoesNotCloseBorrowedHandle(t *testing.T) {
	owned := openSQLite(t)
	borrowed, err := Wrap(owned.Handle(), "sqlite")
	require.NoError(t, err)
	require.NoError(t, borrowed.Close())
	require.NoError(t, owned.Handle().Ping())
}

func TestNormalizeEngine(t *testing.T) {
	cases := map[string]string{
		"Postgres":   EnginePostgres,
		"postgresql": EnginePostgres,
		"pgsql":      EnginePostgres,
		"sqlite3":    EngineSQLite,
		" MySQL ":    EngineMySQL,
		"mariadb":    EngineMySQL,
		"oracle":     "oracle",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeEngine(in), in)
	}
}

func TestDryRunRecordsStatements(t *testing.T) {
	ctx := context.Background()
	dry := NewDryRun()
	require.NoError(t, dry.Execute(ctx, "  CREATE TABLE a (id INTEGER)  "))
	require.NoError(t, dry.Execute(ctx, "ALTER TABLE a ADD b INTEGER"))
	require.Error(t, dry.Execute(ctx, " "))
	assert.Equal(t, []string{"CREATE TABLE a (id INTEGER)", "ALTER TABLE a ADD b INTEGER"}, dry.Statements())
}
