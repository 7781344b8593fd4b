package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/shopsetup/internal/config"
	"github.com/kingrea/shopsetup/internal/logbook"
	"github.com/kingrea/shopsetup/internal/logging"
	"github.com/kingrea/shopsetup/internal/metrics"
	"github.com/kingrea/shopsetup/internal/scheduler"
	"github.com/kingrea/shopsetup/internal/schema"
	"github.com/kingrea/shopsetup/internal/setup"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tui"
)

type runOptions struct {
	*rootOptions
	engine      string
	dsn         string
	dryRun      bool
	useTUI      bool
	metricsFile string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Apply setup tasks to the configured database",
		Long: `Apply every registered task, or only the named targets plus the tasks
they depend on. The run stops at the first failing task; fix the cause and
run again, already applied tasks are detected and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVar(&opts.engine, "engine", "", "database engine: mysql, pgsql or sqlite (overrides config and "+config.EnvEngine+")")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "database connection string (overrides config and "+config.EnvDSN+")")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "inspect the schema and print statements without executing them")
	cmd.Flags().BoolVar(&opts.useTUI, "tui", false, "show live progress in a terminal UI")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics for this run to a textfile")
	return cmd
}

func (o *runOptions) run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := o.loadConfig()
	if err != nil {
		return o.fail(err)
	}
	if err := config.InitSetupDir(cfg.ProjectDir); err != nil {
		return o.fail(fmt.Errorf("init %s: %w", config.SetupDir, err))
	}
	if err := cfg.Override(o.engine, o.dsn); err != nil {
		return o.fail(err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return o.fail(err)
	}
	defer logger.Close()

	status, err := logbook.New(filepath.Join(cfg.LogsDir(), "status.log"), logbook.WithLogger(logger.Logger))
	if err != nil {
		return o.fail(err)
	}
	defer status.Close()

	recorder := metrics.NewRecorder()
	manager, err := newManager(cfg,
		setup.WithLogger(logger.Logger),
		setup.WithSchedulerOptions(scheduler.WithObserver(recorder)),
	)
	if err != nil {
		return o.fail(err)
	}
	targets := args
	if len(targets) == 0 {
		targets = cfg.Targets()
	}

	db, err := schema.Open(ctx, cfg.Engine(), cfg.DSN())
	if err != nil {
		return o.fail(err)
	}
	defer db.Close()
	ec := task.NewContext(db.Engine(), db, status, logger.Logger)

	var (
		report scheduler.Report
		stmts  []string
		runErr error
	)
	if o.useTUI {
		report, stmts, runErr = o.runWithTUI(ctx, manager, ec, targets)
	} else {
		report, stmts, runErr = o.execute(ctx, manager, ec, targets)
	}

	printReport(o.out, report)
	if o.dryRun {
		printStatements(o.out, stmts)
	}
	fmt.Fprintf(o.out, "Status log: %s\n", status.Path())
	recorder.ObserveRun(report)
	if o.metricsFile != "" {
		if err := recorder.WriteTextfile(o.metricsFile); err != nil {
			logger.Warn("metrics export failed", "error", err)
		}
	}
	if report.RunID != "" && !o.dryRun {
		if err := setup.NewRepository(cfg.ReportsDir()).Save(report); err != nil {
			logger.Warn("report not saved", "error", err)
		}
	}
	if runErr != nil {
		return o.fail(runErr)
	}
	return nil
}

func (o *runOptions) execute(ctx context.Context, m *setup.Manager, ec *task.Context, targets []string) (scheduler.Report, []string, error) {
	if o.dryRun {
		return m.DryRun(ctx, ec, targets...)
	}
	report, err := m.Run(ctx, ec, targets...)
	return report, nil, err
}

// runWithTUI plans first so the view can list every task, then runs the
// scheduler in the background while the program renders progress. Quitting
// the view cancels the run before its next task.
func (o *runOptions) runWithTUI(ctx context.Context, m *setup.Manager, ec *task.Context, targets []string) (scheduler.Report, []string, error) {
	plan, err := m.Plan(targets...)
	if err != nil {
		return scheduler.Report{Engine: ec.Engine, Error: err.Error()}, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := fmt.Sprintf("setup run on %s", ec.Engine)
	if o.dryRun {
		title += " (dry run)"
	}
	program := tea.NewProgram(tui.NewRunModel(title, plan.Order), tea.WithOutput(o.out))
	observer := tui.NewObserver(program)
	m.AddObserver(observer)

	type result struct {
		report scheduler.Report
		stmts  []string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, stmts, err := o.execute(ctx, m, ec, targets)
		observer.Finish(report, err)
		done <- result{report, stmts, err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		res := <-done
		return res.report, res.stmts, errors.Join(res.err, fmt.Errorf("tui: %w", err))
	}
	cancel()
	res := <-done
	return res.report, res.stmts, res.err
}
