// Package schematest provides an in-memory schema that understands the small
// DDL subset used by setup tasks. It implements schema.Database so tasks and
// the scheduler can be exercised without a live server.
package schematest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kingrea/shopsetup/internal/schema"
)

// Column seeds a table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Schema is an in-memory database schema.
type Schema struct {
	mu         sync.Mutex
	tables     map[string]*table
	statements []string
	failures   []failure
}

type table struct {
	name    string
	columns []*Column
}

type failure struct {
	fragment string
	err      error
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{tables: map[string]*table{}}
}

// AddTable seeds a table, replacing any existing one with the same name.
func (s *Schema) AddTable(name string, columns ...Column) *Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &table{name: unquote(name)}
	for _, col := range columns {
		c := col
		c.Name = unquote(c.Name)
		c.Type = strings.ToLower(c.Type)
		t.columns = append(t.columns, &c)
	}
	s.tables[key(name)] = t
	return s
}

// FailOn makes every statement containing fragment fail with err.
func (s *Schema) FailOn(fragment string, err error) *Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{fragment: strings.ToLower(fragment), err: err})
	return s
}

// Statements returns every successfully executed statement in order.
func (s *Schema) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.statements))
	copy(out, s.statements)
	return out
}

// Snapshot renders the schema deterministically (tables sorted by name,
// columns in declaration order).
func (s *Schema) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		t := s.tables[name]
		fmt.Fprintf(&b, "%s\n", t.name)
		for _, col := range t.columns {
			null := "NOT NULL"
			if col.Nullable {
				null = "NULL"
			}
			fmt.Fprintf(&b, "  %s %s %s\n", col.Name, col.Type, null)
		}
	}
	return b.String()
}

// TableExists implements schema.Introspector.
func (s *Schema) TableExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[key(name)]
	return ok, nil
}

// ColumnExists implements schema.Introspector.
func (s *Schema) ColumnExists(_ context.Context, tableName, column string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(tableName, column)
	return ok, nil
}

// ColumnNullable implements schema.Introspector.
func (s *Schema) ColumnNullable(ctx context.Context, tableName, column string) (bool, error) {
	details, err := s.ColumnDetails(ctx, tableName, column)
	if err != nil {
		return false, err
	}
	return details.Nullable, nil
}

// ColumnDetails implements schema.Introspector.
func (s *Schema) ColumnDetails(_ context.Context, tableName, column string) (schema.ColumnDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.lookup(tableName, column)
	if !ok {
		return schema.ColumnDetails{}, fmt.Errorf("%w: %s.%s", schema.ErrColumnNotFound, tableName, column)
	}
	return schema.ColumnDetails{
		Table:    unquote(tableName),
		Name:     col.Name,
		DataType: col.Type,
		Nullable: col.Nullable,
	}, nil
}

var (
	createRe    = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(IF\s+NOT\s+EXISTS\s+)?(\S+?)\s*\((.*)\)[^)]*$`)
	addRe       = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(\S+)\s+ADD\s+(?:COLUMN\s+)?(\S+)\s+(.+)$`)
	modifyRe    = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(\S+)\s+MODIFY\s+(?:COLUMN\s+)?(\S+)\s+(.+)$`)
	alterNullRe = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(\S+)\s+ALTER\s+(?:COLUMN\s+)?(\S+)\s+(DROP|SET)\s+NOT\s+NULL$`)
)

// Execute implements schema.Executor.
func (s *Schema) Execute(_ context.Context, statement string) error {
	stmt := strings.TrimSuffix(strings.TrimSpace(statement), ";")
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(stmt)
	for _, f := range s.failures {
		if strings.Contains(lower, f.fragment) {
			return &schema.StatementError{Statement: stmt, Err: f.err}
		}
	}
	var err error
	switch {
	case createRe.MatchString(stmt):
		err = s.create(createRe.FindStringSubmatch(stmt))
	case alterNullRe.MatchString(stmt):
		m := alterNullRe.FindStringSubmatch(stmt)
		err = s.setNullable(m[1], m[2], strings.EqualFold(m[3], "DROP"))
	case modifyRe.MatchString(stmt):
		m := modifyRe.FindStringSubmatch(stmt)
		err = s.modify(m[1], m[2], m[3])
	case addRe.MatchString(stmt):
		m := addRe.FindStringSubmatch(stmt)
		err = s.add(m[1], m[2], m[3])
	default:
		err = fmt.Errorf("unsupported statement")
	}
	if err != nil {
		return &schema.StatementError{Statement: stmt, Err: err}
	}
	s.statements = append(s.statements, stmt)
	return nil
}

func (s *Schema) create(m []string) error {
	name := m[2]
	if _, exists := s.tables[key(name)]; exists {
		if strings.TrimSpace(m[1]) != "" {
			return nil
		}
		return fmt.Errorf("table %s already exists", unquote(name))
	}
	t := &table{name: unquote(name)}
	for _, def := range splitTopLevel(m[3]) {
		col, ok := parseColumn(def)
		if !ok {
			continue
		}
		t.columns = append(t.columns, col)
	}
	s.tables[key(name)] = t
	return nil
}

func (s *Schema) add(tableName, column, spec string) error {
	t, ok := s.tables[key(tableName)]
	if !ok {
		return fmt.Errorf("table %s does not exist", unquote(tableName))
	}
	if _, exists := s.lookup(tableName, column); exists {
		return fmt.Errorf("duplicate column %s", unquote(column))
	}
	col, ok := parseColumn(column + " " + spec)
	if !ok {
		return fmt.Errorf("invalid column definition %q", spec)
	}
	t.columns = append(t.columns, col)
	return nil
}

func (s *Schema) modify(tableName, column, spec string) error {
	col, ok := s.lookup(tableName, column)
	if !ok {
		return fmt.Errorf("unknown column %s.%s", unquote(tableName), unquote(column))
	}
	parsed, ok := parseColumn(column + " " + spec)
	if !ok {
		return fmt.Errorf("invalid column definition %q", spec)
	}
	col.Type = parsed.Type
	col.Nullable = parsed.Nullable
	return nil
}

func (s *Schema) setNullable(tableName, column string, nullable bool) error {
	col, ok := s.lookup(tableName, column)
	if !ok {
		return fmt.Errorf("unknown column %s.%s", unquote(tableName), unquote(column))
	}
	col.Nullable = nullable
	return nil
}

func (s *Schema) lookup(tableName, column string) (*Column, bool) {
	t, ok := s.tables[key(tableName)]
	if !ok {
		return nil, false
	}
	want := strings.ToLower(unquote(column))
	for _, col := range t.columns {
		if strings.ToLower(col.Name) == want {
			return col, true
		}
	}
	return nil, false
}

var constraintKeywords = map[string]struct{}{
	"PRIMARY": {}, "CONSTRAINT": {}, "UNIQUE": {}, "KEY": {}, "INDEX": {}, "FOREIGN": {}, "CHECK": {},
}

func parseColumn(def string) (*Column, bool) {
	fields := strings.Fields(strings.TrimSpace(def))
	if len(fields) < 2 {
		return nil, false
	}
	if _, isConstraint := constraintKeywords[strings.ToUpper(fields[0])]; isConstraint {
		return nil, false
	}
	upper := strings.ToUpper(def)
	nullable := !strings.Contains(upper, "NOT NULL") && !strings.Contains(upper, "PRIMARY KEY")
	return &Column{
		Name:     unquote(fields[0]),
		Type:     strings.ToLower(fields[1]),
		Nullable: nullable,
	}, true
}

func splitTopLevel(body string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, body[start:])
}

func unquote(identifier string) string {
	return strings.Trim(strings.TrimSpace(identifier), "\"`")
}

func key(identifier string) string {
	return strings.ToLower(unquote(identifier))
}
