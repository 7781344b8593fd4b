package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/shopsetup/internal/setup"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last saved run report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.status()
		},
	}
}

func (o *rootOptions) status() error {
	cfg, err := o.loadConfig()
	if err != nil {
		return o.fail(err)
	}
	report, err := setup.NewRepository(cfg.ReportsDir()).Latest()
	if errors.Is(err, setup.ErrReportNotFound) {
		fmt.Fprintln(o.out, "No runs recorded yet.")
		return nil
	}
	if err != nil {
		return o.fail(err)
	}
	printReport(o.out, report)
	fmt.Fprintf(o.out, "Finished %s\n", report.FinishedAt.Format("2006-01-02 15:04:05"))
	return nil
}
