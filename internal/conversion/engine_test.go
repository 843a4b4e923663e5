package conversion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediaconv/internal/config"
	"mediaconv/internal/services"
	"mediaconv/internal/services/drapto"
	"mediaconv/internal/testsupport"
)

func TestNewEncoderSelectsEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}
	if enc.Name() != "ffmpeg" {
		t.Fatalf("expected ffmpeg engine, got %q", enc.Name())
	}

	cfg.Conversion.Engine = config.EngineDrapto
	enc, err = NewEncoder(cfg, nil)
	if err != nil || enc.Name() != "drapto" {
		t.Fatalf("expected drapto engine, got %v %v", enc, err)
	}

	cfg.Conversion.Engine = "handbrake"
	if _, err := NewEncoder(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestFFmpegEngineWithStubBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedEncoder(testsupport.EncoderSucceeds), testsupport.WithConcurrency(2))
	sources := testsupport.WriteTree(t, cfg.Paths.RootDir, "a/clip.avi", "b/other.avi")

	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}
	inv := NewInvoker(enc, Settings{DeleteSource: true}, nil)
	r := NewRunner(inv, RunOptions{
		Root:        cfg.Paths.RootDir,
		SourceExt:   cfg.Scan.SourceExt,
		TargetExt:   cfg.Conversion.TargetExt,
		Concurrency: cfg.Conversion.Concurrency,
	}, nil, nil)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Count(StatusSucceeded) != 2 {
		t.Fatalf("expected both conversions to succeed: %+v", summary.Outcomes)
	}
	for _, source := range sources {
		if testsupport.Exists(t, source) {
			t.Fatalf("source %s should be removed", source)
		}
		if !testsupport.Exists(t, TargetPath(source, ".mp4")) {
			t.Fatalf("target for %s missing", source)
		}
	}
}

func TestFFmpegEngineFailureWithStubBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedEncoder(testsupport.EncoderFails))
	source := testsupport.WriteTree(t, cfg.Paths.RootDir, "clip.avi")[0]

	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}
	job := NewJobs([]string{source}, ".mp4")[0]
	outcome := NewInvoker(enc, Settings{DeleteSource: true}, nil).Convert(context.Background(), job, nil)
	if outcome.Status != StatusFailed || !errors.Is(outcome.Err, services.ErrExternalTool) {
		t.Fatalf("expected external tool failure, got %+v", outcome)
	}
	if !testsupport.Exists(t, source) || testsupport.Exists(t, job.Target) {
		t.Fatal("expected source kept and partial target removed")
	}
}

func TestFFmpegEngineProbesDuration(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedEncoder(testsupport.EncoderSucceeds))
	source := testsupport.WriteTree(t, cfg.Paths.RootDir, "clip.avi")[0]
	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}

	var seen []Progress
	job := NewJobs([]string{source}, ".mp4")[0]
	if err := enc.Encode(context.Background(), job, func(p Progress) { seen = append(seen, p) }); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 progress blocks, got %+v", seen)
	}
	if seen[0].Percent != 50 || seen[0].Stage != "encoding" {
		t.Fatalf("expected 50%% from probed 10s duration, got %+v", seen[0])
	}
	if seen[1].Percent != 100 || seen[1].Stage != "finalizing" {
		t.Fatalf("unexpected final block %+v", seen[1])
	}
}

type fakeDraptoClient struct {
	gotInput  string
	gotOutput string
	err       error
}

func (f *fakeDraptoClient) Encode(ctx context.Context, input, outputDir string, progress func(drapto.ProgressUpdate)) (string, error) {
	f.gotInput, f.gotOutput = input, outputDir
	if f.err != nil {
		return "", f.err
	}
	if progress != nil {
		progress(drapto.ProgressUpdate{Percent: 40, Stage: "encoding", Speed: 1.2})
	}
	out := drapto.OutputPath(input, outputDir)
	return out, os.WriteFile(out, []byte("av1"), 0o644)
}

func TestDraptoEngine(t *testing.T) {
	dir := t.TempDir()
	source := writeSources(t, dir, "clip.avi")[0]
	job := NewJobs([]string{source}, ".mkv")[0]
	client := &fakeDraptoClient{}

	var seen []Progress
	if err := NewDraptoEncoder(client).Encode(context.Background(), job, func(p Progress) { seen = append(seen, p) }); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if client.gotOutput != dir || client.gotInput != source {
		t.Fatalf("unexpected client call %+v", client)
	}
	if len(seen) != 1 || seen[0].Percent != 40 || seen[0].Speed != 1.2 {
		t.Fatalf("unexpected progress %+v", seen)
	}
	if !exists(t, filepath.Join(dir, "clip.mkv")) {
		t.Fatal("expected mkv output")
	}
}

func TestDraptoEngineRejectsNonMKVTarget(t *testing.T) {
	dir := t.TempDir()
	source := writeSources(t, dir, "clip.avi")[0]
	job := NewJobs([]string{source}, ".mp4")[0]
	client := &fakeDraptoClient{}
	err := NewDraptoEncoder(client).Encode(context.Background(), job, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if client.gotInput != "" {
		t.Fatal("client must not run for a mismatched target")
	}
}
