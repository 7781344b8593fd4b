// Package schema exposes the two database collaborators setup tasks rely on:
// an Introspector that answers questions about the live schema and an
// Executor that runs dialect-specific statements. Nothing in this package
// caches schema state; every call reflects the database at call time.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine identifiers understood by the built-in tasks and Open.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "pgsql"
	EngineSQLite   = "sqlite"
)

// ErrColumnNotFound is returned by ColumnDetails/ColumnNullable when the
// requested table or column does not exist.
var ErrColumnNotFound = errors.New("schema: column not found")

// ColumnDetails describes a single column as reported by the database.
type ColumnDetails struct {
	Table    string
	Name     string
	DataType string
	Nullable bool
	Default  *string
}

// Introspector reports on the live schema. Implementations must not cache
// results across calls.
type Introspector interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	ColumnNullable(ctx context.Context, table, column string) (bool, error)
	ColumnDetails(ctx context.Context, table, column string) (ColumnDetails, error)
}

// Executor runs a single statement against the active connection.
type Executor interface {
	Execute(ctx context.Context, statement string) error
}

// Database is the common shape of a live connection: it can both be inspected
// and mutated.
type Database interface {
	Introspector
	Executor
}

// NormalizeEngine lowercases an engine identifier and maps common aliases
// ("postgres", "postgresql", "sqlite3") onto the canonical identifiers.
func NormalizeEngine(engine string) string {
	switch value := strings.ToLower(strings.TrimSpace(engine)); value {
	case "postgres", "postgresql", "pg", "pgx":
		return EnginePostgres
	case "sqlite3":
		return EngineSQLite
	case "mariadb":
		return EngineMySQL
	default:
		return value
	}
}

// StatementError wraps a failed statement with its text so callers can report
// exactly what was attempted.
type StatementError struct {
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("schema: execute %q: %v", compact(e.Statement), e.Err)
}

func (e *StatementError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func compact(statement string) string {
	return strings.Join(strings.Fields(statement), " ")
}
