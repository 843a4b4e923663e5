package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediaconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// a media root, a log directory and a journal inside it. Logging is set to
// production so tests never write to the console.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "media")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Journal.Path = filepath.Join(base, "logs", "journal.db")
	cfgVal.Logging.Environment = config.EnvironmentProduction
	if err := os.MkdirAll(cfgVal.Paths.RootDir, 0o755); err != nil {
		t.Fatalf("mkdir media root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithConcurrency overrides the number of simultaneous conversions.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.Concurrency = n
	}
}

// WithJournal toggles the SQLite journal.
func WithJournal(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = enabled
	}
}

// EncoderMode selects the behaviour of the stub ffmpeg script.
type EncoderMode string

const (
	// EncoderSucceeds writes the target file and exits zero.
	EncoderSucceeds EncoderMode = "success"
	// EncoderFails writes a partial target, prints an error and exits one.
	EncoderFails EncoderMode = "fail"
)

// WithStubbedEncoder writes stub ffmpeg and ffprobe scripts into the test's
// bin directory and points the config at them.
func WithStubbedEncoder(mode EncoderMode) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Conversion.FFmpegBinary = WriteStubBinary(b.t, binDir, "ffmpeg", ffmpegScript(mode))
		b.cfg.Conversion.FFprobeBinary = WriteStubBinary(b.t, binDir, "ffprobe", ffprobeScript)
	}
}

const ffprobeScript = `#!/bin/sh
echo '{"streams":[{"index":0,"codec_type":"video"}],"format":{"duration":"10.000000"}}'
`

func ffmpegScript(mode EncoderMode) string {
	if mode == EncoderFails {
		return `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
for last; do :; done
printf 'partial' > "$last"
echo "Invalid data found when processing input" >&2
exit 1
`
	}
	return `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
for last; do :; done
echo "out_time_us=5000000"
echo "progress=continue"
printf 'encoded' > "$last"
echo "out_time_us=10000000"
echo "progress=end"
exit 0
`
}

// WriteStubBinary writes an executable script named name into dir and
// returns its path.
func WriteStubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
