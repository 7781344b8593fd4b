package tasks

import (
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks/catalog"
	"github.com/kingrea/shopsetup/internal/tasks/tables"
)

// RegisterBuiltins installs all of the built-in task factories into the
// provided registry.
func RegisterBuiltins(reg *task.Registry) {
	if reg == nil {
		return
	}
	tables.Register(reg)
	catalog.Register(reg)
}
