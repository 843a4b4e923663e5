package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"mediaconv/internal/conversion"
)

var summaryStatuses = []conversion.Status{
	conversion.StatusSucceeded,
	conversion.StatusFailed,
	conversion.StatusSkipped,
	conversion.StatusCanceled,
}

func printSummary(out io.Writer, summary conversion.Summary, colorize bool) {
	if summary.DryRun {
		printDryRun(out, summary)
		return
	}

	fmt.Fprintf(out, "Run %s: %d matched, %d planned, %s elapsed\n",
		summary.ID, summary.Matched, summary.Planned, summary.Finished.Sub(summary.Started).Round(time.Second))
	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(out, "Nothing to convert")
		return
	}

	rows := make([][]string, 0, len(summaryStatuses))
	for _, status := range summaryStatuses {
		count := summary.Count(status)
		if count == 0 {
			continue
		}
		rows = append(rows, []string{statusLabel(status, colorize), strconv.Itoa(count)})
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	var problems [][]string
	for _, outcome := range summary.Outcomes {
		if outcome.Status == conversion.StatusSucceeded {
			continue
		}
		detail := outcome.Reason
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		problems = append(problems, []string{
			strconv.Itoa(outcome.Job.Index),
			outcome.Job.Source,
			statusLabel(outcome.Status, colorize),
			detail,
		})
	}
	if len(problems) > 0 {
		fmt.Fprintln(out, renderTable([]string{"#", "Source", "Status", "Detail"}, problems,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
	}
}

func printDryRun(out io.Writer, summary conversion.Summary) {
	if len(summary.Jobs) == 0 {
		fmt.Fprintln(out, "Dry run: nothing to convert")
		return
	}
	rows := make([][]string, 0, len(summary.Jobs))
	for _, job := range summary.Jobs {
		rows = append(rows, []string{strconv.Itoa(job.Index), job.Source, filepath.Base(job.Target)})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Source", "Target"}, rows, []columnAlignment{alignRight}))
	fmt.Fprintf(out, "Dry run: %d of %d matches would be converted\n", len(summary.Jobs), summary.Matched)
}
