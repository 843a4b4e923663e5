package conversion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"mediaconv/internal/logging"
	"mediaconv/internal/services"
)

// Settings control how the Invoker treats files around the encoder.
type Settings struct {
	// Overwrite replaces an existing target instead of skipping the job.
	Overwrite bool
	// DeleteSource removes the source after a successful conversion.
	DeleteSource bool
	// JobTimeout bounds one conversion. Zero means no limit.
	JobTimeout time.Duration
}

// Invoker runs single jobs through an Encoder.
type Invoker struct {
	encoder  Encoder
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
	remove   func(string) error
}

// NewInvoker constructs an Invoker.
func NewInvoker(encoder Encoder, settings Settings, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Invoker{
		encoder:  encoder,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		remove:   os.Remove,
	}
}

// Encoder returns the engine this invoker drives.
func (inv *Invoker) Encoder() Encoder {
	return inv.encoder
}

// Convert runs job to completion. onProgress may be nil.
func (inv *Invoker) Convert(ctx context.Context, job Job, onProgress func(Progress)) Outcome {
	ctx = services.WithSource(services.WithJob(ctx, job.Index, job.Total), job.Source)
	logger := logging.WithContext(ctx, inv.logger)
	outcome := Outcome{Job: job, Started: inv.now()}

	before, err := os.Lstat(job.Target)
	targetExisted := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return inv.finish(logger, outcome, StatusFailed, services.Wrap(services.ErrTransient, "conversion", "stat target", job.Target, err))
	}
	if targetExisted && !inv.settings.Overwrite {
		outcome.Reason = "target already exists"
		return inv.finish(logger, outcome, StatusSkipped, nil)
	}
	if err := ctx.Err(); err != nil {
		return inv.finish(logger, outcome, StatusCanceled, err)
	}

	logger.Info("conversion started",
		logging.String(logging.FieldTarget, job.Target),
		logging.String("engine", inv.encoder.Name()),
	)

	jobCtx := ctx
	cancel := func() {}
	if inv.settings.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, inv.settings.JobTimeout)
	}
	encodeErr := inv.encoder.Encode(jobCtx, job, onProgress)
	timedOut := errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	if encodeErr == nil {
		if info, err := os.Stat(job.Target); err != nil || !info.Mode().IsRegular() {
			encodeErr = services.Wrap(services.ErrExternalTool, inv.encoder.Name(), "verify output", fmt.Sprintf("%s missing after successful exit", job.Target), err)
		}
	}

	if encodeErr != nil {
		inv.removePartial(logger, job.Target, targetExisted, before)
		switch {
		case timedOut:
			return inv.finish(logger, outcome, StatusCanceled, services.Wrap(services.ErrTimeout, "conversion", "encode", fmt.Sprintf("exceeded %s", inv.settings.JobTimeout), encodeErr))
		case ctx.Err() != nil:
			return inv.finish(logger, outcome, StatusCanceled, encodeErr)
		default:
			return inv.finish(logger, outcome, StatusFailed, encodeErr)
		}
	}

	if inv.settings.DeleteSource {
		if err := inv.remove(job.Source); err != nil {
			logging.WarnWithContext(logger, "source not removed after conversion", "source_remove_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the source directory"),
				logging.String(logging.FieldImpact, "source and converted file both remain"),
			)
		} else {
			outcome.SourceRemoved = true
		}
	}
	return inv.finish(logger, outcome, StatusSucceeded, nil)
}

// removePartial deletes a target this job created or modified.
func (inv *Invoker) removePartial(logger *slog.Logger, target string, existed bool, before fs.FileInfo) {
	after, err := os.Lstat(target)
	if err != nil {
		return
	}
	if existed && os.SameFile(before, after) && after.ModTime().Equal(before.ModTime()) && after.Size() == before.Size() {
		return
	}
	if err := inv.remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "partial target not removed", "partial_remove_failed",
			logging.String(logging.FieldTarget, target),
			logging.Error(err),
			logging.String(logging.FieldImpact, "incomplete output left beside the source"),
		)
	}
}

func (inv *Invoker) finish(logger *slog.Logger, outcome Outcome, status Status, err error) Outcome {
	outcome.Status = status
	outcome.Err = err
	outcome.Finished = inv.now()

	attrs := []logging.Attr{
		logging.String(logging.FieldTarget, outcome.Job.Target),
		logging.String("status", string(status)),
		logging.Duration("elapsed", outcome.Duration().Round(time.Millisecond)),
	}
	switch status {
	case StatusSucceeded:
		attrs = append(attrs, logging.Bool("source_removed", outcome.SourceRemoved))
		logger.Info(outcome.Message(), logging.Args(attrs...)...)
	case StatusSkipped:
		logger.Info(outcome.Message(), logging.Args(attrs...)...)
	case StatusCanceled:
		logging.WarnWithContext(logger, outcome.Message(), services.Classify(err), append(attrs,
			logging.Error(err),
			logging.String(logging.FieldImpact, "source kept; rerun to convert it"),
		)...)
	default:
		logging.ErrorWithContext(logger, outcome.Message(), "conversion_failed", append(attrs,
			logging.Error(err),
			logging.String("error_kind", services.Classify(err)),
			logging.String(logging.FieldErrorHint, "source kept; see combined.log for encoder output"),
		)...)
	}
	return outcome
}
