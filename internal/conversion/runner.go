package conversion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/discovery"
	"mediaconv/internal/logging"
	"mediaconv/internal/services"
)

// RunOptions select and bound the jobs of one run.
type RunOptions struct {
	Root            string
	Walk            discovery.WalkOptions
	SourceExt       string
	TargetExt       string
	CaseInsensitive bool
	// Concurrency is the most conversions active at once.
	Concurrency int
	// MaxJobs caps the number of jobs started. Zero converts every match.
	MaxJobs int
	DryRun  bool
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID      string
	Root    string
	Engine  string
	Started time.Time
	Matched int
	Planned int
	DryRun  bool
}

// Recorder persists run history. Failures are logged and never fail a run.
type Recorder interface {
	BeginRun(ctx context.Context, info RunInfo) error
	RecordOutcome(ctx context.Context, runID string, outcome Outcome) error
	FinishRun(ctx context.Context, summary Summary) error
}

// Summary is the result of a run.
type Summary struct {
	RunInfo
	Finished time.Time
	Jobs     []Job
	Outcomes []Outcome
}

// Count returns the number of outcomes with status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any job failed.
func (s Summary) Failed() bool {
	return s.Count(StatusFailed) > 0
}

// Runner executes a whole batch.
type Runner struct {
	invoker  *Invoker
	opts     RunOptions
	logger   *slog.Logger
	recorder Recorder
	newID    func() string
	now      func() time.Time
}

// NewRunner constructs a Runner. recorder may be nil.
func NewRunner(invoker *Invoker, opts RunOptions, recorder Recorder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		invoker:  invoker,
		opts:     opts,
		logger:   logger,
		recorder: recorder,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Plan walks the root and returns the matched job list, capped to MaxJobs,
// along with the number of matches before the cap.
func (r *Runner) Plan() ([]Job, int, error) {
	paths, err := discovery.Walk(r.opts.Root, r.opts.Walk)
	if err != nil {
		return nil, 0, err
	}
	var matched []string
	if r.opts.CaseInsensitive {
		matched = discovery.FilterFold(paths, r.opts.SourceExt)
	} else {
		matched = discovery.Filter(paths, r.opts.SourceExt)
	}
	selected := matched
	if r.opts.MaxJobs > 0 && len(selected) > r.opts.MaxJobs {
		selected = selected[:r.opts.MaxJobs]
	}
	return NewJobs(selected, r.opts.TargetExt), len(matched), nil
}

// Run plans and converts every job. The error is non-nil only when the run
// could not start; per-job failures are reported in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	info := RunInfo{
		ID:      r.newID(),
		Root:    r.opts.Root,
		Engine:  r.invoker.Encoder().Name(),
		Started: r.now(),
		DryRun:  r.opts.DryRun,
	}
	ctx = services.WithRunID(ctx, info.ID)
	logger := logging.WithContext(ctx, r.logger)

	jobs, matched, err := r.Plan()
	if err != nil {
		logging.ErrorWithContext(logger, "scan failed", "scan_failed",
			logging.String("root", r.opts.Root),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the root exists and every subdirectory is readable"),
		)
		return Summary{RunInfo: info}, err
	}
	info.Matched = matched
	info.Planned = len(jobs)
	summary := Summary{RunInfo: info, Jobs: jobs}

	logger.Info("scan complete",
		logging.String("root", r.opts.Root),
		logging.Int("matched", matched),
		logging.Int("planned", len(jobs)),
		logging.Int("concurrency", r.limit(len(jobs))),
	)

	if r.opts.DryRun {
		for _, job := range jobs {
			logger.Info("would convert",
				logging.String(logging.FieldSource, job.Source),
				logging.String(logging.FieldTarget, job.Target),
			)
		}
		summary.Finished = r.now()
		return summary, nil
	}

	r.record(logger, "begin run", func() error { return r.recorder.BeginRun(context.WithoutCancel(ctx), info) })
	summary.Outcomes = r.dispatch(ctx, logger, jobs)
	summary.Finished = r.now()
	r.record(logger, "finish run", func() error { return r.recorder.FinishRun(context.WithoutCancel(ctx), summary) })

	logger.Info("run complete",
		logging.Int("succeeded", summary.Count(StatusSucceeded)),
		logging.Int("failed", summary.Count(StatusFailed)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Int("canceled", summary.Count(StatusCanceled)),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started).Round(time.Millisecond)),
	)
	return summary, nil
}

func (r *Runner) limit(jobs int) int {
	limit := r.opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	return min(limit, jobs)
}

// dispatch converts jobs with at most limit conversions active. Jobs not yet
// started when ctx ends are reported as canceled.
func (r *Runner) dispatch(ctx context.Context, logger *slog.Logger, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	limit := r.limit(len(jobs))
	if limit <= 1 {
		for i, job := range jobs {
			if ctx.Err() != nil {
				outcomes[i] = r.notStarted(job, ctx.Err())
			} else {
				sampler := logging.NewProgressSampler(10)
				outcomes[i] = r.invoker.Convert(ctx, job, func(p Progress) { r.logProgress(ctx, job, sampler, p) })
			}
			r.recordOutcome(ctx, logger, outcomes[i])
		}
		return outcomes
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, job := range jobs {
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			outcomes[i] = r.notStarted(job, ctx.Err())
			r.recordOutcome(ctx, logger, outcomes[i])
			continue
		}
		pending := r.invoker.Start(ctx, job)
		wg.Add(1)
		go func(i int, pending *Pending) {
			defer wg.Done()
			defer func() { <-sem }()
			sampler := logging.NewProgressSampler(10)
			for p := range pending.Progress() {
				r.logProgress(ctx, pending.Job(), sampler, p)
			}
			outcomes[i] = pending.Wait()
			r.recordOutcome(ctx, logger, outcomes[i])
		}(i, pending)
	}
	wg.Wait()
	return outcomes
}

func (r *Runner) notStarted(job Job, err error) Outcome {
	return Outcome{Job: job, Status: StatusCanceled, Err: err, Finished: r.now(), Reason: "run interrupted before start"}
}

func (r *Runner) logProgress(ctx context.Context, job Job, sampler *logging.ProgressSampler, p Progress) {
	if !sampler.ShouldLog(p.Percent, p.Stage) {
		return
	}
	ctx = services.WithSource(services.WithJob(ctx, job.Index, job.Total), job.Source)
	attrs := []logging.Attr{logging.String("stage", p.Stage)}
	if p.Percent >= 0 {
		attrs = append(attrs, logging.Float64("percent", float64(int(p.Percent*10))/10))
	}
	if p.Encoded > 0 {
		attrs = append(attrs, logging.Duration("encoded", p.Encoded.Round(time.Second)))
	}
	if p.Speed > 0 {
		attrs = append(attrs, logging.Float64("speed", p.Speed))
	}
	if p.Message != "" {
		attrs = append(attrs, logging.String("detail", p.Message))
	}
	logging.WithContext(ctx, r.logger).Info("conversion progress", logging.Args(attrs...)...)
}

func (r *Runner) recordOutcome(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	r.record(logger, "record outcome", func() error {
		runID, _ := services.RunIDFromContext(ctx)
		return r.recorder.RecordOutcome(context.WithoutCancel(ctx), runID, outcome)
	})
}

func (r *Runner) record(logger *slog.Logger, operation string, fn func() error) {
	if r.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
			logging.String("operation", operation),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history incomplete; conversions unaffected"),
		)
	}
}
