package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrUnknownDependency indicates a task names a dependency that was not discovered.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrCyclicDependency indicates the declared ordering cannot be satisfied.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrDuplicateTask indicates two discovered tasks share a name.
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrUnknownTask indicates a requested target is not in the graph.
	ErrUnknownTask = errors.New("unknown task")
)

// UnknownDependencyError reports a dangling pre- or post-dependency.
// Wraps ErrUnknownDependency for errors.Is() compatibility.
type UnknownDependencyError struct {
	Task    string // Task that declared the dependency
	Missing string // Name that is not in the discovered set
}

func (e *UnknownDependencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: task %q depends on %q which was not found", ErrUnknownDependency.Error(), e.Task, e.Missing)
}

func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// CyclicDependencyError lists the tasks forming a cycle in encounter order.
// Wraps ErrCyclicDependency for errors.Is() compatibility.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Cycle) == 0 {
		return ErrCyclicDependency.Error()
	}
	path := append(append([]string{}, e.Cycle...), e.Cycle[0])
	return fmt.Sprintf("%s: %s", ErrCyclicDependency.Error(), strings.Join(path, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// DuplicateTaskError reports a name registered twice in the input set.
// Wraps ErrDuplicateTask for errors.Is() compatibility.
type DuplicateTaskError struct {
	Task string
}

func (e *DuplicateTaskError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q", ErrDuplicateTask.Error(), e.Task)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrDuplicateTask }
