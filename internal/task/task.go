// Package task defines the contract every schema setup task implements: an
// identity block with its ordering constraints, and one routine per database
// engine that inspects the live schema before changing it.
package task

import (
	"context"
	"fmt"
	"strings"
)

// Info describes a task's identity and ordering constraints.
type Info struct {
	// Name is the unique key used as the graph node.
	Name        string
	Description string
	// Pre lists tasks that must run before this one.
	Pre []string
	// Post lists tasks that must run after this one.
	Post []string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("task: name is required")
	}
	if strings.TrimSpace(i.Name) != i.Name {
		return fmt.Errorf("task: name %q has surrounding whitespace", i.Name)
	}
	for _, dep := range i.Pre {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("task: empty pre-dependency on %s", i.Name)
		}
	}
	for _, dep := range i.Post {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("task: empty post-dependency on %s", i.Name)
		}
	}
	return nil
}

// Outcome enumerates per-task run results.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeApplied Outcome = "applied"
	OutcomeFailed  Outcome = "failed"
)

// Result captures what a routine did.
type Result struct {
	Outcome Outcome
	Message string
}

// Applied reports a completed change.
func Applied(format string, args ...any) Result {
	return Result{Outcome: OutcomeApplied, Message: fmt.Sprintf(format, args...)}
}

// Skipped reports that the target state already held.
func Skipped(format string, args ...any) Result {
	return Result{Outcome: OutcomeSkipped, Message: fmt.Sprintf(format, args...)}
}

// Routine is the engine-specific body of a task. It must check the live
// schema before emitting any statement and be safe to call on an already
// migrated schema. A non-nil error marks the task failed.
type Routine func(ctx context.Context, ec *Context) (Result, error)

// Task is implemented by every setup unit.
type Task interface {
	Info() Info
	// Routine returns the body for engine. ok is false when the task has
	// nothing to do on that engine.
	Routine(engine string) (Routine, bool)
}
