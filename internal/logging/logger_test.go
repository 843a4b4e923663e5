package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaconv/internal/config"
	"mediaconv/internal/services"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"VERBOSE": LevelVerbose,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestConsoleHeaderIncludesComponentAndJob(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJob(context.Background(), 2, 5)
	ctx = services.WithSource(ctx, "/media/clip.avi")
	jobLogger := WithContext(ctx, NewComponentLogger(logger, "convert"))
	jobLogger.Info("conversion started", String(FieldTarget, "/media/clip.mp4"))

	out := buf.String()
	if !strings.Contains(out, "INFO [convert] Job 2/5 – conversion started") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "    - source: /media/clip.avi") {
		t.Fatalf("expected source field, got %q", out)
	}
	if !strings.Contains(out, "    - target: /media/clip.mp4") {
		t.Fatalf("expected target field, got %q", out)
	}
	if strings.Contains(out, "job_index") {
		t.Fatalf("job fields should be folded into header: %q", out)
	}
}

func TestConsoleHidesExtraInfoFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	attrs := make([]any, 0, infoAttrLimit+2)
	for i := 0; i < infoAttrLimit+2; i++ {
		attrs = append(attrs, slog.Int(string(rune('a'+i)), i))
	}
	logger.Info("many", attrs...)
	if !strings.Contains(buf.String(), "+ 2 more fields hidden") {
		t.Fatalf("expected hidden field summary, got %q", buf.String())
	}
}

func TestVerboseLevelFiltering(t *testing.T) {
	var infoBuf, verboseBuf bytes.Buffer
	infoLogger, err := New(Options{Level: "info", Console: &infoBuf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	verboseLogger, err := New(Options{Level: "verbose", Console: &verboseBuf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	Verbose(context.Background(), infoLogger, "frame=10")
	Verbose(context.Background(), verboseLogger, "frame=10")

	if infoBuf.Len() != 0 {
		t.Fatalf("info logger should drop verbose records, got %q", infoBuf.String())
	}
	if !strings.Contains(verboseBuf.String(), "VERBOSE – frame=10") {
		t.Fatalf("expected verbose record, got %q", verboseBuf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml", Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesCombinedAndErrorLogs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Environment = config.EnvironmentProduction
	cfg.Logging.FileFormat = "json"
	cfg.Logging.Level = "info"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("scan complete", Int("matches", 3))
	ErrorWithContext(logger, "conversion failed", "conversion_failed", Error(errors.New("exit status 1")))

	combined, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "combined.log"))
	if err != nil {
		t.Fatalf("read combined.log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(combined)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 combined records, got %d: %s", len(lines), combined)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode combined record: %v", err)
	}
	if first["level"] != "info" || first["msg"] != "scan complete" {
		t.Fatalf("unexpected record: %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", first)
	}

	errorLog, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "error.log"))
	if err != nil {
		t.Fatalf("read error.log: %v", err)
	}
	if strings.Contains(string(errorLog), "scan complete") {
		t.Fatalf("error.log should only contain errors: %s", errorLog)
	}
	if !strings.Contains(string(errorLog), `"event_type":"conversion_failed"`) {
		t.Fatalf("expected error record with event type: %s", errorLog)
	}
	if !strings.Contains(string(errorLog), `"error_hint"`) {
		t.Fatalf("expected default error hint: %s", errorLog)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	WarnWithContext(logger, "source not removed", "source_remove_failed", String(FieldImpact, "source kept"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[FieldImpact] != "source kept" {
		t.Fatalf("explicit impact should win, got %v", record[FieldImpact])
	}
	if record[FieldEventType] != "source_remove_failed" || record[FieldErrorHint] == nil {
		t.Fatalf("expected injected fields, got %v", record)
	}
}
