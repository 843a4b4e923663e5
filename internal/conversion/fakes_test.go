package conversion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEncoder writes targets directly and tracks concurrency.
type fakeEncoder struct {
	delay     time.Duration
	failOn    map[string]bool
	noOutput  bool
	progress  []Progress
	active    atomic.Int32
	maxActive atomic.Int32

	mu      sync.Mutex
	started []string
}

func (f *fakeEncoder) Name() string { return "fake" }

func (f *fakeEncoder) Encode(ctx context.Context, job Job, progress func(Progress)) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxActive.Load()
		if n <= prev || f.maxActive.CompareAndSwap(prev, n) {
			break
		}
	}
	f.mu.Lock()
	f.started = append(f.started, job.Source)
	f.mu.Unlock()

	for _, p := range f.progress {
		if progress != nil {
			progress(p)
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			_ = os.WriteFile(job.Target, []byte("partial"), 0o644)
			return ctx.Err()
		}
	}
	if f.failOn[filepath.Base(job.Source)] {
		_ = os.WriteFile(job.Target, []byte("partial"), 0o644)
		return errors.New("exit status 1")
	}
	if f.noOutput {
		return nil
	}
	return os.WriteFile(job.Target, []byte("encoded"), 0o644)
}

func (f *fakeEncoder) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

type fakeRecorder struct {
	mu       sync.Mutex
	begun    []RunInfo
	outcomes map[string][]Outcome
	finished []Summary
	err      error
}

func (r *fakeRecorder) BeginRun(_ context.Context, info RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, info)
	return r.err
}

func (r *fakeRecorder) RecordOutcome(_ context.Context, runID string, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string][]Outcome)
	}
	r.outcomes[runID] = append(r.outcomes[runID], outcome)
	return r.err
}

func (r *fakeRecorder) FinishRun(_ context.Context, summary Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, summary)
	return r.err
}

func writeSources(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("source"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}
