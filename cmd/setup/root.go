package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/shopsetup/internal/config"
	"github.com/kingrea/shopsetup/internal/setup"
	"github.com/kingrea/shopsetup/internal/task"
	"github.com/kingrea/shopsetup/internal/tasks"
	"github.com/kingrea/shopsetup/plugins"
)

type rootOptions struct {
	project string
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Apply dependency-ordered, idempotent schema setup tasks",
		Long: `setup discovers the built-in and plugin schema tasks, validates their
pre- and post-dependencies, and applies them one at a time in a deterministic
order. Every task inspects the live schema first, so re-running is safe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.PersistentFlags().StringVar(&opts.project, "project", "", "project directory holding .setup/ (default: current directory)")

	cmd.AddCommand(
		newRunCmd(opts),
		newPlanCmd(opts),
		newTasksCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

func (o *rootOptions) projectDir() (string, error) {
	if o.project != "" {
		return filepath.Abs(o.project)
	}
	return os.Getwd()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	dir, err := o.projectDir()
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	return config.Load(dir)
}

// buildRegistry installs the built-in tasks followed by plugin tasks from the
// configured directory.
func buildRegistry(cfg *config.Config) (*task.Registry, error) {
	reg := task.NewRegistry()
	tasks.RegisterBuiltins(reg)
	if _, err := plugins.RegisterTaskPlugins(reg, cfg.TasksDir()); err != nil {
		return nil, err
	}
	return reg, nil
}

func (o *rootOptions) fail(err error) error {
	fmt.Fprintf(o.errOut, "Error: %v\n", err)
	return err
}

func newManager(cfg *config.Config, opts ...setup.Option) (*setup.Manager, error) {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return setup.NewManager(reg, opts...)
}
