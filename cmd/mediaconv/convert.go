package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediaconv/internal/config"
	"mediaconv/internal/conversion"
	"mediaconv/internal/discovery"
	"mediaconv/internal/journal"
	"mediaconv/internal/logging"
	"mediaconv/internal/notifications"
	"mediaconv/internal/preflight"
	"mediaconv/internal/runlock"
)

type convertFlags struct {
	dryRun      bool
	concurrency int
}

func runConvert(cmd *cobra.Command, ctx *commandContext, flags convertFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		if flags.concurrency < 1 {
			return fmt.Errorf("--concurrency must be positive, got %d", flags.concurrency)
		}
		cfg.Conversion.Concurrency = flags.concurrency
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "mediaconv")

	if !flags.dryRun {
		lock, err := runlock.Acquire(cfg.LockPath())
		if err != nil {
			logging.ErrorWithContext(logger, "run lock unavailable", "run_locked",
				logging.String("lock", cfg.LockPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "wait for the other run to finish"),
			)
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release run lock failed", logging.Error(err))
			}
		}()

		if err := preflight.Verify(cfg); err != nil {
			logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `mediaconv check` for details"),
			)
			return err
		}
	}

	encoder, err := conversion.NewEncoder(cfg, logger)
	if err != nil {
		return err
	}
	invoker := conversion.NewInvoker(encoder, conversion.Settings{
		Overwrite:    cfg.Conversion.Overwrite,
		DeleteSource: cfg.Conversion.DeleteSource,
		JobTimeout:   time.Duration(cfg.Conversion.JobTimeout) * time.Second,
	}, logging.NewComponentLogger(logger, "convert"))

	var recorder conversion.Recorder
	if cfg.Journal.Enabled && !flags.dryRun {
		if store := openJournal(cfg, logger); store != nil {
			defer store.Close()
			recorder = store
		}
	}

	runner := conversion.NewRunner(invoker, runOptions(cfg, flags.dryRun), recorder, logger)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notifications.NewService(cfg)
	summary, err := runner.Run(runCtx)
	if err != nil {
		if !flags.dryRun {
			notify(logger, func(ctx context.Context) error { return notifier.NotifyRunFailed(ctx, cfg.Paths.RootDir, err) })
		}
		return err
	}
	if !flags.dryRun {
		notify(logger, func(ctx context.Context) error { return notifier.NotifyRunCompleted(ctx, summary) })
	}

	out := cmd.OutOrStdout()
	printSummary(out, summary, shouldColorize(out))

	if runCtx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", context.Canceled)
	}
	if summary.Failed() {
		return fmt.Errorf("%d of %d conversions failed", summary.Count(conversion.StatusFailed), len(summary.Outcomes))
	}
	return nil
}

func runOptions(cfg *config.Config, dryRun bool) conversion.RunOptions {
	return conversion.RunOptions{
		Root: cfg.Paths.RootDir,
		Walk: discovery.WalkOptions{
			Exclude:       cfg.Scan.Exclude,
			IncludeHidden: cfg.Scan.IncludeHidden,
		},
		SourceExt:       cfg.Scan.SourceExt,
		TargetExt:       cfg.Conversion.TargetExt,
		CaseInsensitive: cfg.Scan.CaseInsensitive,
		Concurrency:     cfg.Conversion.Concurrency,
		MaxJobs:         cfg.Conversion.MaxJobs,
		DryRun:          dryRun,
	}
}

// openJournal returns nil when the journal cannot be opened; the run
// proceeds without history.
func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Store {
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
			logging.String("path", cfg.Journal.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will not be recorded"),
		)
		return nil
	}
	return store
}

// notify runs send detached from the run context so an interrupted run still
// reports. Delivery failures are logged only.
func notify(logger *slog.Logger, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run result not delivered to ntfy"),
		)
	}
}
