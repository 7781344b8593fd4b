package scheduler

import (
	"errors"
	"fmt"
)

// ErrTaskExecution marks a run halted by a failing routine.
var ErrTaskExecution = errors.New("task execution failed")

// TaskExecutionError carries the failing task, the engine it ran on and the
// routine's error. errors.Is(err, ErrTaskExecution) holds and Unwrap returns
// the routine's error.
type TaskExecutionError struct {
	Task   string
	Engine string
	Err    error
}

func (e *TaskExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s on %s: %v", ErrTaskExecution.Error(), e.Task, e.Engine, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrTaskExecution.
func (e *TaskExecutionError) Is(target error) bool {
	return target == ErrTaskExecution
}
