package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/schema/schematest"
	"github.com/kingrea/shopsetup/internal/task"
)

type recordingObserver struct {
	started  []string
	finished []Record
}

func (o *recordingObserver) TaskStarted(name string) { o.started = append(o.started, name) }
func (o *recordingObserver) TaskFinished(rec Record) { o.finished = append(o.finished, rec) }

func fixedTask(name string, engines map[string]task.Routine) task.Task {
	b := task.NewBase(task.Info{Name: name})
	for engine, routine := range engines {
		b.On(engine, routine)
	}
	return b
}

func returning(res task.Result, err error, calls *[]string, name string) task.Routine {
	return func(context.Context, *task.Context) (task.Result, error) {
		*calls = append(*calls, name)
		return res, err
	}
}

func newContext() *task.Context {
	return task.NewContext("mysql", schematest.New(), logbook.NewMemory(), nil)
}

func TestRunRecordsOutcomesInOrder(t *testing.T) {
	var calls []string
	tasks := []task.Task{
		fixedTask("A", map[string]task.Routine{"mysql": returning(task.Applied("created"), nil, &calls, "A")}),
		fixedTask("B", map[string]task.Routine{"mysql": returning(task.Skipped("already applied"), nil, &calls, "B")}),
		fixedTask("C", map[string]task.Routine{"pgsql": returning(task.Applied("x"), nil, &calls, "C")}),
		fixedTask("D", map[string]task.Routine{"mysql": returning(task.Result{}, nil, &calls, "D")}),
	}
	obs := &recordingObserver{}
	report, err := Run(context.Background(), tasks, []string{"A", "B", "C", "D"}, newContext(), WithObserver(obs), WithRunID("run-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "D"}, calls)
	assert.Equal(t, "run-1", report.RunID)
	assert.True(t, report.Succeeded())
	require.Len(t, report.Records, 4)
	assert.Equal(t, task.OutcomeApplied, report.Records[0].Outcome)
	assert.Equal(t, task.OutcomeSkipped, report.Records[1].Outcome)
	assert.Equal(t, task.OutcomeSkipped, report.Records[2].Outcome)
	assert.Equal(t, "unsupported engine mysql", report.Records[2].Detail)
	assert.Equal(t, task.OutcomeApplied, report.Records[3].Outcome)
	assert.Equal(t, Summary{Total: 4, Applied: 2, Skipped: 2}, report.Summary)
	assert.Equal(t, []string{"A", "B", "C", "D"}, obs.started)
	assert.Len(t, obs.finished, 4)
}

func TestRunHaltsOnFirstFailure(t *testing.T) {
	var calls []string
	boom := errors.New("syntax error near MODIFY")
	tasks := []task.Task{
		fixedTask("A", map[string]task.Routine{"mysql": returning(task.Applied("ok"), nil, &calls, "A")}),
		fixedTask("B", map[string]task.Routine{"mysql": returning(task.Result{}, boom, &calls, "B")}),
		fixedTask("C", map[string]task.Routine{"mysql": returning(task.Applied("ok"), nil, &calls, "C")}),
	}
	ec := newContext()
	report, err := Run(context.Background(), tasks, []string{"A", "B", "C"}, ec)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrTaskExecution)
	assert.ErrorIs(t, err, boom)
	var execErr *TaskExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "B", execErr.Task)
	assert.Equal(t, "mysql", execErr.Engine)

	assert.Equal(t, []string{"A", "B"}, calls)
	assert.False(t, report.Succeeded())
	assert.Equal(t, Summary{Total: 3, Applied: 1, Failed: 1, Pending: 1, HaltedAt: "B"}, report.Summary)
	rec, ok := report.Record("A")
	require.True(t, ok)
	assert.Equal(t, task.OutcomeApplied, rec.Outcome)
	_, ok = report.Record("C")
	assert.False(t, ok)
	assert.Contains(t, report.Error, "syntax error near MODIFY")

	entries := ec.Status.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, logbook.LevelError, entries[len(entries)-1].Level)
}

func TestRunTreatsFailedResultAsFailure(t *testing.T) {
	var calls []string
	tasks := []task.Task{
		fixedTask("A", map[string]task.Routine{"mysql": returning(task.Result{Outcome: task.OutcomeFailed, Message: "bad"}, nil, &calls, "A")}),
	}
	report, err := Run(context.Background(), tasks, []string{"A"}, newContext())
	assert.ErrorIs(t, err, ErrTaskExecution)
	assert.Equal(t, 1, report.Summary.Failed)
}

func TestRunStopsBetweenTasksWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls []string
	tasks := []task.Task{
		fixedTask("A", map[string]task.Routine{"mysql": func(context.Context, *task.Context) (task.Result, error) {
			calls = append(calls, "A")
			cancel()
			return task.Applied("ok"), nil
		}}),
		fixedTask("B", map[string]task.Routine{"mysql": returning(task.Applied("ok"), nil, &calls, "B")}),
	}
	report, err := Run(ctx, tasks, []string{"A", "B"}, newContext())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTaskExecution)
	assert.Equal(t, []string{"A"}, calls)
	assert.Equal(t, "B", report.Summary.HaltedAt)
	assert.Equal(t, 1, report.Summary.Pending)
	assert.Equal(t, 1, report.Summary.Applied)
}

func TestRunLetsCancelledTaskFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db := schematest.New()
	ec := task.NewContext("mysql", db, logbook.NewMemory(), nil)
	var calls []string
	tasks := []task.Task{
		fixedTask("A", map[string]task.Routine{"mysql": func(rctx context.Context, ec *task.Context) (task.Result, error) {
			calls = append(calls, "A")
			cancel()
			if err := rctx.Err(); err != nil {
				return task.Result{}, err
			}
			return task.RunSteps(rctx, ec, task.Step{
				Description: "t",
				When:        []task.Condition{task.TableMissing("t")},
				SQL:         []string{"CREATE TABLE t (id INTEGER NOT NULL)"},
			})
		}}),
		fixedTask("B", map[string]task.Routine{"mysql": returning(task.Applied("ok"), nil, &calls, "B")}),
	}

	report, err := Run(ctx, tasks, []string{"A", "B"}, ec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTaskExecution)
	assert.Equal(t, []string{"A"}, calls)
	require.Len(t, report.Records, 1)
	assert.Equal(t, task.OutcomeApplied, report.Records[0].Outcome)
	assert.Equal(t, "B", report.Summary.HaltedAt)
	assert.Equal(t, 1, report.Summary.Pending)

	exists, err := db.TableExists(context.Background(), "t")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunRejectsUnknownOrderEntry(t *testing.T) {
	report, err := Run(context.Background(), nil, []string{"Ghost"}, newContext())
	require.Error(t, err)
	assert.Empty(t, report.Records)
	assert.Equal(t, 1, report.Summary.Pending)
}

func TestRunMeasuresDurationsWithClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	var calls []string
	tasks := []task.Task{fixedTask("A", map[string]task.Routine{"mysql": returning(task.Applied("ok"), nil, &calls, "A")})}
	report, err := Run(context.Background(), tasks, []string{"A"}, newContext(), WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, time.Second, report.Records[0].Duration)
	assert.True(t, report.FinishedAt.After(report.StartedAt))
}
