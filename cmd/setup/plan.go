package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [targets...]",
		Short: "Print the execution order without touching a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.plan(args)
		},
	}
}

func (o *rootOptions) plan(args []string) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return o.fail(err)
	}
	m, err := newManager(cfg)
	if err != nil {
		return o.fail(err)
	}
	targets := args
	if len(targets) == 0 {
		targets = cfg.Targets()
	}
	plan, err := m.Plan(targets...)
	if err != nil {
		return o.fail(err)
	}

	tw := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	for i, name := range plan.Order {
		after := "-"
		if deps := plan.Graph.Dependencies(name); len(deps) > 0 {
			after = strings.Join(deps, ", ")
		}
		fmt.Fprintf(tw, "%d\t%s\tafter: %s\n", i+1, name, after)
	}
	return tw.Flush()
}
