package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/shopsetup/internal/logging"
	"github.com/kingrea/shopsetup/internal/task"
)

// Observer receives progress callbacks. Calls happen on the scheduler's
// goroutine, in order.
type Observer interface {
	TaskStarted(name string)
	TaskFinished(rec Record)
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithObserver adds a progress observer.
func WithObserver(obs Observer) Option {
	return func(s *Scheduler) {
		if obs != nil {
			s.observers = append(s.observers, obs)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger used for run-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Scheduler) {
		s.runID = id
	}
}

// Scheduler executes tasks sequentially.
type Scheduler struct {
	observers []Observer
	clock     func() time.Time
	logger    *slog.Logger
	runID     string
}

// New builds a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{clock: time.Now, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every task named in order, one at a time. A routine error
// halts the run: later tasks stay pending and the returned error is a
// *TaskExecutionError. Cancelling ctx stops the run before the next task
// starts; routines receive a context that keeps ctx's values but is never
// cancelled, so a task already running finishes.
func Run(ctx context.Context, tasks []task.Task, order []string, ec *task.Context, opts ...Option) (Report, error) {
	return New(opts...).Run(ctx, tasks, order, ec)
}

// Run is the method form of the package-level Run.
func (s *Scheduler) Run(ctx context.Context, tasks []task.Task, order []string, ec *task.Context) (Report, error) {
	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := Report{
		RunID:     runID,
		Engine:    ec.Engine,
		StartedAt: s.clock(),
		Summary:   Summary{Total: len(order)},
	}

	byName := make(map[string]task.Task, len(tasks))
	for _, t := range tasks {
		byName[t.Info().Name] = t
	}
	for _, name := range order {
		if _, ok := byName[name]; !ok {
			err := fmt.Errorf("scheduler: ordered task %q was not provided", name)
			return s.finish(report, name, err), err
		}
	}

	logger := s.logger.With("run", runID, "engine", ec.Engine)
	logger.InfoContext(ctx, "run started", "tasks", len(order))
	ec.Status.Info("Run %s started on %s with %d tasks", runID, ec.Engine, len(order))

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "run cancelled", "next", name, "error", err)
			ec.Status.Warn("Run cancelled before %s", name)
			cancelErr := fmt.Errorf("scheduler: cancelled before %s: %w", name, err)
			return s.finish(report, name, cancelErr), cancelErr
		}

		rec, err := s.runTask(ctx, byName[name], ec)
		report.add(rec)
		s.notifyFinished(rec)
		logger.InfoContext(ctx, "task finished",
			"task", name, "outcome", string(rec.Outcome), "detail", rec.Detail, "duration", rec.Duration)

		if err != nil {
			execErr := &TaskExecutionError{Task: name, Engine: ec.Engine, Err: err}
			logger.ErrorContext(ctx, "run halted", "task", name, "error", err)
			ec.Status.Error("Run halted at %s: %v", name, err)
			return s.finish(report, name, execErr), execErr
		}
	}

	report = s.finish(report, "", nil)
	logger.InfoContext(ctx, "run finished",
		"applied", report.Summary.Applied, "skipped", report.Summary.Skipped)
	ec.Status.Info("Run %s finished: %d applied, %d skipped", runID, report.Summary.Applied, report.Summary.Skipped)
	return report, nil
}

func (s *Scheduler) runTask(ctx context.Context, t task.Task, ec *task.Context) (Record, error) {
	name := t.Info().Name
	s.notifyStarted(name)
	started := s.clock()
	rec := Record{Task: name, Started: started}

	routine, ok := t.Routine(ec.Engine)
	if !ok {
		rec.Outcome = task.OutcomeSkipped
		rec.Detail = "unsupported engine " + ec.Engine
		ec.Status.ForTask(name).Info("No routine for %s, skipped", ec.Engine)
		rec.Duration = s.clock().Sub(started)
		return rec, nil
	}

	// A started routine runs to completion; cancellation is only honoured
	// between tasks.
	res, err := routine(context.WithoutCancel(ctx), ec.ForTask(name))
	rec.Duration = s.clock().Sub(started)
	rec.Detail = res.Message
	switch {
	case err != nil:
		rec.Outcome = task.OutcomeFailed
		if rec.Detail == "" {
			rec.Detail = err.Error()
		} else {
			rec.Detail = rec.Detail + ": " + err.Error()
		}
		return rec, err
	case res.Outcome == task.OutcomeFailed:
		rec.Outcome = task.OutcomeFailed
		return rec, fmt.Errorf("routine reported failure: %s", res.Message)
	case res.Outcome == "":
		rec.Outcome = task.OutcomeApplied
	default:
		rec.Outcome = res.Outcome
	}
	return rec, nil
}

func (s *Scheduler) finish(report Report, haltedAt string, err error) Report {
	report.FinishedAt = s.clock()
	report.Summary.HaltedAt = haltedAt
	report.Summary.Pending = report.Summary.Total - len(report.Records)
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

func (s *Scheduler) notifyStarted(name string) {
	for _, obs := range s.observers {
		obs.TaskStarted(name)
	}
}

func (s *Scheduler) notifyFinished(rec Record) {
	for _, obs := range s.observers {
		obs.TaskFinished(rec)
	}
}
