package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type engineLister interface {
	Engines() []string
}

// sourced is implemented by plugin tasks.
type sourced interface {
	Source() string
}

func newTasksCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered tasks with their dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.listTasks()
		},
	}
}

func (o *rootOptions) listTasks() error {
	cfg, err := o.loadConfig()
	if err != nil {
		return o.fail(err)
	}
	reg, err := buildRegistry(cfg)
	if err != nil {
		return o.fail(err)
	}
	all, err := reg.ResolveAll()
	if err != nil {
		return o.fail(err)
	}

	tw := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRE\tPOST\tENGINES\tSOURCE")
	for _, t := range all {
		info := t.Info()
		engines := "-"
		if l, ok := t.(engineLister); ok {
			engines = joinOrDash(l.Engines())
		}
		source := "builtin"
		if src, ok := t.(sourced); ok {
			source = src.Source()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", info.Name, joinOrDash(info.Pre), joinOrDash(info.Post), engines, source)
	}
	return tw.Flush()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
