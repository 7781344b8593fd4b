// Package setup wires discovery, graph validation and the scheduler together.
// A Manager owns the task registry for a process; callers plan or run against
// it with an execution context that holds their database connection.
package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kingrea/shopsetup/internal/graph"
	"github.com/kingrea/shopsetup/internal/logging"
	"github.com/kingrea/shopsetup/internal/scheduler"
	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/task"
)

// Plan is a validated execution order.
type Plan struct {
	Order []string
	// Tasks holds the constructed tasks in Order.
	Tasks []task.Task
	Graph *graph.Graph
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSchedulerOptions forwards options to every scheduler run.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(m *Manager) {
		m.schedOpts = append(m.schedOpts, opts...)
	}
}

// Manager plans and runs registered tasks.
type Manager struct {
	registry  *task.Registry
	logger    *slog.Logger
	schedOpts []scheduler.Option
}

// NewManager builds a Manager over reg.
func NewManager(reg *task.Registry, opts ...Option) (*Manager, error) {
	if reg == nil {
		return nil, fmt.Errorf("setup: registry is required")
	}
	m := &Manager{registry: reg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AddObserver attaches obs to subsequent runs.
func (m *Manager) AddObserver(obs scheduler.Observer) {
	m.schedOpts = append(m.schedOpts, scheduler.WithObserver(obs))
}

// Plan constructs every registered task, validates the dependency graph and
// returns the order for targets (all tasks when none are given).
func (m *Manager) Plan(targets ...string) (Plan, error) {
	all, err := m.registry.ResolveAll()
	if err != nil {
		return Plan{}, fmt.Errorf("setup: discover tasks: %w", err)
	}
	infos := make([]task.Info, len(all))
	byName := make(map[string]task.Task, len(all))
	for i, t := range all {
		infos[i] = t.Info()
		byName[infos[i].Name] = t
	}
	g, err := graph.Build(infos)
	if err != nil {
		return Plan{}, fmt.Errorf("setup: %w", err)
	}
	order, err := g.Queue(targets...)
	if err != nil {
		return Plan{}, fmt.Errorf("setup: %w", err)
	}
	tasks := make([]task.Task, len(order))
	for i, name := range order {
		tasks[i] = byName[name]
	}
	m.logger.Debug("plan built", "tasks", len(order), "targets", targets)
	return Plan{Order: order, Tasks: tasks, Graph: g}, nil
}

// Run plans and executes. Graph errors are returned before any task runs.
func (m *Manager) Run(ctx context.Context, ec *task.Context, targets ...string) (scheduler.Report, error) {
	plan, err := m.Plan(targets...)
	if err != nil {
		m.logger.Error("plan rejected", "error", err)
		ec.Status.Error("Plan rejected: %v", err)
		return scheduler.Report{Engine: ec.Engine, Error: err.Error()}, err
	}
	opts := append([]scheduler.Option{scheduler.WithLogger(m.logger)}, m.schedOpts...)
	return scheduler.Run(ctx, plan.Tasks, plan.Order, ec, opts...)
}

// DryRun executes against ec's introspector while recording statements
// instead of running them. It returns the report and the statements a real
// run would execute from the current schema state.
func (m *Manager) DryRun(ctx context.Context, ec *task.Context, targets ...string) (scheduler.Report, []string, error) {
	recorder := schema.NewDryRun()
	report, err := m.Run(ctx, ec.WithExecutor(recorder), targets...)
	report.DryRun = true
	return report, recorder.Statements(), err
}
