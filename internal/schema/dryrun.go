package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DryRun is an Executor that records statements instead of running them.
// Introspection still goes to the live database, so a dry run reports what a
// real run would apply from the current state.
type DryRun struct {
	mu         sync.Mutex
	statements []string
}

// NewDryRun returns an empty recorder.
func NewDryRun() *DryRun {
	return &DryRun{}
}

// Execute implements Executor.
func (d *DryRun) Execute(_ context.Context, statement string) error {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return fmt.Errorf("schema: empty statement")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statements = append(d.statements, trimmed)
	return nil
}

// Statements returns the recorded statements in execution order.
func (d *DryRun) Statements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.statements))
	copy(out, d.statements)
	return out
}
