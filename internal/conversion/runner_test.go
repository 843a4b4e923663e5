package conversion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mediaconv/internal/discovery"
	"mediaconv/internal/services"
)

func newTestRunner(root string, enc Encoder, opts RunOptions, rec Recorder) *Runner {
	opts.Root = root
	if opts.SourceExt == "" {
		opts.SourceExt = ".avi"
	}
	if opts.TargetExt == "" {
		opts.TargetExt = ".mp4"
	}
	inv := NewInvoker(enc, Settings{DeleteSource: true}, nil)
	return NewRunner(inv, opts, rec, nil)
}

func TestRunnerConvertsEveryMatchWithBoundedConcurrency(t *testing.T) {
	root := t.TempDir()
	var names []string
	for i := 0; i < 7; i++ {
		names = append(names, fmt.Sprintf("dir%d/clip%d.avi", i%3, i))
	}
	names = append(names, "notes.txt", "done.mp4")
	writeSources(t, root, names...)

	enc := &fakeEncoder{delay: 40 * time.Millisecond}
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 2}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Matched != 7 || summary.Planned != 7 {
		t.Fatalf("unexpected counts matched=%d planned=%d", summary.Matched, summary.Planned)
	}
	if got := summary.Count(StatusSucceeded); got != 7 {
		t.Fatalf("expected all 7 jobs to succeed, got %d (%+v)", got, summary.Outcomes)
	}
	if peak := enc.maxActive.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent conversions, saw %d", peak)
	}
	if enc.maxActive.Load() < 2 {
		t.Fatal("expected the pool to run conversions concurrently")
	}
	for _, outcome := range summary.Outcomes {
		if exists(t, outcome.Job.Source) || !exists(t, outcome.Job.Target) {
			t.Fatalf("unexpected filesystem state for %s", outcome.Job.Source)
		}
	}
	if summary.Failed() {
		t.Fatal("summary should not report failures")
	}
}

func TestRunnerConcurrencyNeverExceedsJobCount(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi")
	enc := &fakeEncoder{}
	r := newTestRunner(root, enc, RunOptions{Concurrency: 8}, nil)
	if got := r.limit(1); got != 1 {
		t.Fatalf("limit(1) = %d, want 1", got)
	}
	if got := r.limit(20); got != 8 {
		t.Fatalf("limit(20) = %d, want 8", got)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if enc.startedCount() != 1 {
		t.Fatalf("expected single job, got %d", enc.startedCount())
	}
}

func TestRunnerSequentialKeepsOrder(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "b.avi", "a.avi", "c/d.avi")
	enc := &fakeEncoder{}
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 1}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.avi"),
		filepath.Join(root, "b.avi"),
		filepath.Join(root, "c", "d.avi"),
	}
	for i, source := range enc.started {
		if source != want[i] {
			t.Fatalf("job %d source = %q, want %q", i, source, want[i])
		}
	}
	if enc.maxActive.Load() != 1 {
		t.Fatalf("sequential run should never overlap, saw %d", enc.maxActive.Load())
	}
	if summary.Outcomes[2].Job.Index != 3 || summary.Outcomes[2].Job.Total != 3 {
		t.Fatalf("unexpected job numbering %+v", summary.Outcomes[2].Job)
	}
}

func TestRunnerMaxJobsCapsStartedJobs(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "1.avi", "2.avi", "3.avi", "4.avi", "5.avi")
	enc := &fakeEncoder{}
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 2, MaxJobs: 3}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if enc.startedCount() != 3 || len(summary.Outcomes) != 3 {
		t.Fatalf("expected exactly 3 jobs, started %d outcomes %d", enc.startedCount(), len(summary.Outcomes))
	}
	if summary.Matched != 5 || summary.Planned != 3 {
		t.Fatalf("unexpected counts %+v", summary.RunInfo)
	}
	if !exists(t, filepath.Join(root, "4.avi")) {
		t.Fatal("files beyond max_jobs must be untouched")
	}
}

func TestRunnerFailureDoesNotStopOthers(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi", "bad.avi", "c.avi")
	enc := &fakeEncoder{failOn: map[string]bool{"bad.avi": true}}
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 2}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Count(StatusSucceeded) != 2 || summary.Count(StatusFailed) != 1 || !summary.Failed() {
		t.Fatalf("unexpected outcomes %+v", summary.Outcomes)
	}
	if !exists(t, filepath.Join(root, "bad.avi")) || exists(t, filepath.Join(root, "bad.mp4")) {
		t.Fatal("failed job must keep its source and leave no partial target")
	}
}

func TestRunnerCaseInsensitiveAndExclusions(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "LOUD.AVI", "quiet.avi", ".@__thumb/thumb.avi", ".hidden.avi")
	enc := &fakeEncoder{}
	opts := RunOptions{
		Concurrency:     1,
		CaseInsensitive: true,
		Walk:            discovery.WalkOptions{Exclude: []string{".@__thumb"}},
	}
	summary, err := newTestRunner(root, enc, opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Count(StatusSucceeded) != 2 {
		t.Fatalf("expected 2 conversions, got %+v", summary.Outcomes)
	}
	if !exists(t, filepath.Join(root, "LOUD.mp4")) {
		t.Fatal("expected upper-case source to be converted")
	}
}

func TestRunnerDryRunConvertsNothing(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi", "b.avi")
	enc := &fakeEncoder{}
	rec := &fakeRecorder{}
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 2, DryRun: true}, rec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if enc.startedCount() != 0 || len(summary.Outcomes) != 0 || len(summary.Jobs) != 2 {
		t.Fatalf("dry run should only plan: %+v", summary)
	}
	if len(rec.begun) != 0 {
		t.Fatal("dry run should not be journaled")
	}
}

func TestRunnerRecordsRun(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi", "b.avi")
	rec := &fakeRecorder{}
	r := newTestRunner(root, &fakeEncoder{}, RunOptions{Concurrency: 2}, rec)
	r.newID = func() string { return "run-123" }

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.ID != "run-123" || summary.Engine != "fake" {
		t.Fatalf("unexpected run info %+v", summary.RunInfo)
	}
	if len(rec.begun) != 1 || rec.begun[0].Planned != 2 {
		t.Fatalf("unexpected begin records %+v", rec.begun)
	}
	if len(rec.outcomes["run-123"]) != 2 {
		t.Fatalf("expected 2 outcomes recorded, got %+v", rec.outcomes)
	}
	if len(rec.finished) != 1 || len(rec.finished[0].Outcomes) != 2 {
		t.Fatalf("unexpected finish records %+v", rec.finished)
	}
}

func TestRunnerJournalErrorsDoNotFailRun(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi")
	rec := &fakeRecorder{err: errors.New("database is locked")}
	summary, err := newTestRunner(root, &fakeEncoder{}, RunOptions{Concurrency: 1}, rec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Count(StatusSucceeded) != 1 {
		t.Fatalf("journal failures must not affect conversions: %+v", summary.Outcomes)
	}
}

func TestRunnerCanceledMarksRemainingJobs(t *testing.T) {
	root := t.TempDir()
	writeSources(t, root, "a.avi", "b.avi", "c.avi", "d.avi")
	ctx, cancel := context.WithCancel(context.Background())
	enc := encoderFunc(func(ctx context.Context, job Job, _ func(Progress)) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	summary, err := newTestRunner(root, enc, RunOptions{Concurrency: 2}, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Count(StatusCanceled) != 4 {
		t.Fatalf("expected every job canceled, got %+v", summary.Outcomes)
	}
	for _, outcome := range summary.Outcomes {
		if !exists(t, outcome.Job.Source) {
			t.Fatalf("canceled job removed source %s", outcome.Job.Source)
		}
	}
}

func TestRunnerScanFailure(t *testing.T) {
	r := newTestRunner(filepath.Join(t.TempDir(), "missing"), &fakeEncoder{}, RunOptions{Concurrency: 2}, nil)
	if _, err := r.Run(context.Background()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
