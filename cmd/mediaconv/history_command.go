package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediaconv/internal/conversion"
	"mediaconv/internal/journal"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs, or the outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("journal is disabled (set journal.enabled = true)")
			}
			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entries, err := store.RunOutcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Run %s (%s) started %s in %s\n", run.ID, run.Engine, formatHistoryTime(run.Started), run.Root)
				if len(entries) == 0 {
					fmt.Fprintln(out, "No outcomes recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					detail := entry.Reason
					if entry.Error != "" {
						detail = entry.Error
					}
					if entry.Status == conversion.StatusSucceeded {
						detail = "source removed: " + yesNo(entry.SourceRemoved)
					}
					rows = append(rows, []string{
						strconv.Itoa(entry.Index),
						entry.Source,
						statusLabel(entry.Status, colorize),
						formatElapsed(entry.Started, entry.Finished),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Source", "Status", "Took", "Detail"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := "incomplete"
				if run.Complete() {
					finished = formatElapsed(run.Started, run.Finished)
				}
				rows = append(rows, []string{
					shortID(run.ID),
					formatHistoryTime(run.Started),
					run.Engine,
					strconv.Itoa(run.Planned),
					strconv.Itoa(run.Succeeded),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Canceled),
					finished,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Engine", "Planned", "Succeeded", "Failed", "Skipped", "Canceled", "Took"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatHistoryTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(historyTimeLayout)
}

func formatElapsed(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "-"
	}
	return end.Sub(start).Round(time.Second).String()
}
