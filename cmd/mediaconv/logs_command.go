package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediaconv/internal/logging"
	"mediaconv/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		runID  string
		errs   bool
		level  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.CombinedLogPath(cfg)
			if errs {
				path = logging.ErrorLogPath(cfg)
			}
			match := logs.All(logs.RunMatcher(runID), logs.LevelMatcher(level))

			recent, offset, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = logs.Follow(followCtx, path, offset, 0, match, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of trailing records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing records as they are written")
	cmd.Flags().StringVar(&runID, "run", "", "Only show records of the run with this id (prefix)")
	cmd.Flags().BoolVar(&errs, "errors", false, "Read error.log instead of combined.log")
	cmd.Flags().StringVar(&level, "level", "", "Only show records at or above this level")
	return cmd
}
