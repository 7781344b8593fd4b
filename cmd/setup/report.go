package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kingrea/shopsetup/internal/scheduler"
)

func printReport(w io.Writer, report scheduler.Report) {
	if report.RunID == "" && len(report.Records) == 0 {
		return
	}
	header := fmt.Sprintf("Run %s on %s", report.RunID, report.Engine)
	if report.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintln(w, header)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, rec := range report.Records {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", rec.Outcome, rec.Task, rec.Duration.Round(time.Millisecond), rec.Detail)
	}
	tw.Flush()

	s := report.Summary
	fmt.Fprintf(w, "%d applied, %d skipped, %d failed, %d pending\n", s.Applied, s.Skipped, s.Failed, s.Pending)
	if s.HaltedAt != "" {
		fmt.Fprintf(w, "Halted at %s: %s\n", s.HaltedAt, report.Error)
	}
}

func printStatements(w io.Writer, stmts []string) {
	if len(stmts) == 0 {
		fmt.Fprintln(w, "No statements would be executed.")
		return
	}
	fmt.Fprintln(w, "Statements:")
	for _, stmt := range stmts {
		fmt.Fprintf(w, "%s;\n", stmt)
	}
}
