package task

import (
	"log/slog"

	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/logging"
	"github.com/kingrea/shopsetup/internal/schema"
)

// Context carries shared runtime dependencies into every routine. The caller
// owns the connection behind Schema and Exec; nothing here closes it.
type Context struct {
	Engine string
	Schema schema.Introspector
	Exec   schema.Executor
	Status *logbook.Logbook
	Logger *slog.Logger
	// Task is the name of the task currently running. Set by the scheduler.
	Task string
}

// NewContext builds a Context over a live database.
func NewContext(engine string, db schema.Database, status *logbook.Logbook, logger *slog.Logger) *Context {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Context{
		Engine: schema.NormalizeEngine(engine),
		Schema: db,
		Exec:   db,
		Status: status,
		Logger: logger,
	}
}

// WithExecutor swaps the statement executor, e.g. for a dry run.
func (ec *Context) WithExecutor(exec schema.Executor) *Context {
	clone := *ec
	clone.Exec = exec
	return &clone
}

// ForTask returns a copy scoped to the named task.
func (ec *Context) ForTask(name string) *Context {
	clone := *ec
	clone.Task = name
	if clone.Logger != nil {
		clone.Logger = clone.Logger.With("task", name)
	}
	return &clone
}

// Log returns the status writer for the current task.
func (ec *Context) Log() *logbook.TaskLog {
	return ec.Status.ForTask(ec.Task)
}
