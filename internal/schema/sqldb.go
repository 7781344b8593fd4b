package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB implements Database on top of a database/sql handle. The handle is
// borrowed: Close only closes it when the DB was created through Open.
type DB struct {
	db      *sql.DB
	dialect dialect
	owned   bool
}

// Open connects to the database for the given engine and verifies the
// connection. The returned DB owns the connection pool.
func Open(ctx context.Context, engine, dsn string) (*DB, error) {
	engine = NormalizeEngine(engine)
	d, ok := dialects[engine]
	if !ok {
		return nil, fmt.Errorf("schema: unsupported engine %q", engine)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("schema: dsn is required for engine %s", engine)
	}
	handle, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("schema: open %s: %w", engine, err)
	}
	// Tasks share one connection for the whole run.
	handle.SetMaxOpenConns(1)
	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("schema: ping %s: %w", engine, err)
	}
	return &DB{db: handle, dialect: d, owned: true}, nil
}

// Wrap adapts an existing handle. The caller keeps ownership of db.
func Wrap(db *sql.DB, engine string) (*DB, error) {
	if db == nil {
		return nil, fmt.Errorf("schema: db handle is required")
	}
	engine = NormalizeEngine(engine)
	d, ok := dialects[engine]
	if !ok {
		return nil, fmt.Errorf("schema: unsupported engine %q", engine)
	}
	return &DB{db: db, dialect: d}, nil
}

// Engine returns the canonical engine identifier.
func (d *DB) Engine() string {
	return d.dialect.engine
}

// Handle exposes the underlying database/sql handle.
func (d *DB) Handle() *sql.DB {
	return d.db
}

// Close releases the connection pool if this DB owns it.
func (d *DB) Close() error {
	if d == nil || d.db == nil || !d.owned {
		return nil
	}
	return d.db.Close()
}

// Execute implements Executor.
func (d *DB) Execute(ctx context.Context, statement string) error {
	if strings.TrimSpace(statement) == "" {
		return fmt.Errorf("schema: empty statement")
	}
	if _, err := d.db.ExecContext(ctx, statement); err != nil {
		return &StatementError{Statement: statement, Err: err}
	}
	return nil
}

// TableExists implements Introspector.
func (d *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, d.dialect.tableExists, table).Scan(&count); err != nil {
		return false, fmt.Errorf("schema: table %s: %w", table, err)
	}
	return count > 0, nil
}

// ColumnExists implements Introspector.
func (d *DB) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	_, err := d.ColumnDetails(ctx, table, column)
	if errors.Is(err, ErrColumnNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ColumnNullable implements Introspector.
func (d *DB) ColumnNullable(ctx context.Context, table, column string) (bool, error) {
	details, err := d.ColumnDetails(ctx, table, column)
	if err != nil {
		return false, err
	}
	return details.Nullable, nil
}

// ColumnDetails implements Introspector.
func (d *DB) ColumnDetails(ctx context.Context, table, column string) (ColumnDetails, error) {
	if d.dialect.pragma {
		return d.sqliteColumn(ctx, table, column)
	}
	var (
		dataType   string
		isNullable string
		def        sql.NullString
	)
	err := d.db.QueryRowContext(ctx, d.dialect.columnDetails, table, column).Scan(&dataType, &isNullable, &def)
	if errors.Is(err, sql.ErrNoRows) {
		return ColumnDetails{}, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, table, column)
	}
	if err != nil {
		return ColumnDetails{}, fmt.Errorf("schema: column %s.%s: %w", table, column, err)
	}
	details := ColumnDetails{
		Table:    table,
		Name:     column,
		DataType: strings.ToLower(dataType),
		Nullable: strings.EqualFold(isNullable, "YES"),
	}
	if def.Valid {
		value := def.String
		details.Default = &value
	}
	return details, nil
}

// sqliteColumn reads PRAGMA table_info, which cannot take bind parameters.
func (d *DB) sqliteColumn(ctx context.Context, table, column string) (ColumnDetails, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(table)))
	if err != nil {
		return ColumnDetails{}, fmt.Errorf("schema: table info %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid      int
			name     string
			dataType string
			notNull  int
			def      sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &def, &pk); err != nil {
			return ColumnDetails{}, fmt.Errorf("schema: scan table info %s: %w", table, err)
		}
		if !strings.EqualFold(name, column) {
			continue
		}
		details := ColumnDetails{
			Table:    table,
			Name:     name,
			DataType: strings.ToLower(dataType),
			Nullable: notNull == 0,
		}
		if def.Valid {
			value := def.String
			details.Default = &value
		}
		return details, nil
	}
	if err := rows.Err(); err != nil {
		return ColumnDetails{}, fmt.Errorf("schema: table info %s: %w", table, err)
	}
	return ColumnDetails{}, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, table, column)
}

type dialect struct {
	engine        string
	driver        string
	tableExists   string
	columnDetails string
	pragma        bool
}

var dialects = map[string]dialect{
	EngineMySQL: {
		engine:      EngineMySQL,
		driver:      "mysql",
		tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
		columnDetails: `SELECT data_type, is_nullable, column_default FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`,
	},
	EnginePostgres: {
		engine:      EnginePostgres,
		driver:      "pgx",
		tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`,
		columnDetails: `SELECT data_type, is_nullable, column_default FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`,
	},
	EngineSQLite: {
		engine:      EngineSQLite,
		driver:      "sqlite",
		tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		pragma:      true,
	},
}

func quoteSQLite(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
