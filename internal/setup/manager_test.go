package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/shopsetup/internal/graph"
	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/scheduler"
	"github.com/kingrea/shopsetup/internal/schema/schematest"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks"
	"github.com/kingrea/shopsetup/internal/tasks/catalog"
	"github.com/kingrea/shopsetup/internal/tasks/tables"
)

func counting(name string, calls *int, pre ...string) task.Factory {
	return func() (task.Task, error) {
		return task.NewBase(task.Info{Name: name, Pre: pre}).On("mysql", func(context.Context, *task.Context) (task.Result, error) {
			*calls++
			return task.Applied("ok"), nil
		}), nil
	}
}

func TestPlanWithTargets(t *testing.T) {
	reg := task.NewRegistry()
	tasks.RegisterBuiltins(reg)
	m, err := NewManager(reg)
	require.NoError(t, err)

	plan, err := m.Plan(catalog.IndexRefsNullName)
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.AddIndexRefsName, catalog.IndexRefsNullName}, plan.Order)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, catalog.AddIndexRefsName, plan.Tasks[0].Info().Name)
	assert.Equal(t, 3, plan.Graph.Len())

	_, err = m.Plan("Missing")
	assert.ErrorIs(t, err, graph.ErrUnknownTask)
}

func TestRunRejectsCycleWithoutExecuting(t *testing.T) {
	calls := 0
	reg := task.NewRegistry()
	reg.MustRegister("X", counting("X", &calls, "Y"))
	reg.MustRegister("Y", counting("Y", &calls, "X"))
	m, err := NewManager(reg)
	require.NoError(t, err)

	report, err := m.Run(context.Background(), task.NewContext("mysql", schematest.New(), logbook.NewMemory(), nil))
	require.Error(t, err)
	var cycErr *graph.CyclicDependencyError
	require.True(t, errors.As(err, &cycErr))
	assert.ElementsMatch(t, []string{"X", "Y"}, cycErr.Cycle)
	assert.Zero(t, calls)
	assert.Empty(t, report.Records)
}

func TestRunRejectsUnknownDependencyWithoutExecuting(t *testing.T) {
	calls := 0
	reg := task.NewRegistry()
	reg.MustRegister("A", counting("A", &calls))
	reg.MustRegister("B", counting("B", &calls, "Ghost"))
	m, err := NewManager(reg)
	require.NoError(t, err)

	_, err = m.Run(context.Background(), task.NewContext("mysql", schematest.New(), logbook.NewMemory(), nil))
	assert.ErrorIs(t, err, graph.ErrUnknownDependency)
	assert.Zero(t, calls)
}

func TestDryRunLeavesSchemaUntouched(t *testing.T) {
	reg := task.NewRegistry()
	tasks.RegisterBuiltins(reg)
	obs := &countingObserver{}
	m, err := NewManager(reg, WithSchedulerOptions(scheduler.WithObserver(obs)))
	require.NoError(t, err)

	db := schematest.New()
	ec := task.NewContext("mysql", db, logbook.NewMemory(), nil)
	report, stmts, err := m.DryRun(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, stmts, len(tables.Tables))
	assert.Empty(t, db.Statements())
	assert.Empty(t, db.Snapshot())
	assert.Equal(t, 3, obs.finished)
}

type countingObserver struct{ finished int }

func (o *countingObserver) TaskStarted(string)            {}
func (o *countingObserver) TaskFinished(scheduler.Record) { o.finished++ }
