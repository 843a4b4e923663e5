package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediaconv/internal/config"
)

// LevelVerbose sits between info and debug. Encoder chatter (stderr lines,
// raw progress) is logged here.
const LevelVerbose = slog.Level(-2)

const (
	combinedLogName = "combined.log"
	errorLogName    = "error.log"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format applies to the console sink: "console" or "json".
	Format string
	// FileFormat applies to OutputPaths and ErrorOutputPaths.
	FileFormat string
	// Console receives every record at Level. Nil disables console output.
	Console io.Writer
	// OutputPaths receive every record at Level.
	OutputPaths []string
	// ErrorOutputPaths receive error records only.
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	addSource := opts.Development || level <= slog.LevelDebug

	var handlers []slog.Handler
	if opts.Console != nil {
		handler, err := newHandler(opts.Format, opts.Console, levelVar, addSource)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, handler)
	}

	if len(opts.OutputPaths) > 0 {
		writer, err := openWriters(opts.OutputPaths)
		if err != nil {
			return nil, err
		}
		handler, err := newHandler(fileFormat(opts), writer, levelVar, addSource)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, handler)
	}

	if len(opts.ErrorOutputPaths) > 0 {
		writer, err := openWriters(opts.ErrorOutputPaths)
		if err != nil {
			return nil, err
		}
		errorLevel := new(slog.LevelVar)
		errorLevel.Set(slog.LevelError)
		handler, err := newHandler(fileFormat(opts), writer, errorLevel, true)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, handler)
	}

	return slog.New(newFanoutHandler(handlers...)), nil
}

// NewFromConfig creates the application logger: combined.log and error.log in
// the log directory, plus the console unless the environment is production.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: os.Stdout})
	}

	opts := Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FileFormat: cfg.Logging.FileFormat,
	}
	if !cfg.Production() {
		opts.Console = os.Stdout
	}
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		opts.OutputPaths = []string{CombinedLogPath(cfg)}
		opts.ErrorOutputPaths = []string{ErrorLogPath(cfg)}
	}
	return New(opts)
}

// CombinedLogPath is the file receiving every record at the configured level.
func CombinedLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, combinedLogName)
}

// ErrorLogPath is the file receiving error records only.
func ErrorLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, errorLogName)
}

func fileFormat(opts Options) string {
	if strings.TrimSpace(opts.FileFormat) != "" {
		return opts.FileFormat
	}
	return "json"
}

func newHandler(format string, w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newPrettyHandler(w, lvl, addSource), nil
	case "json":
		return newJSONHandler(w, lvl, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "silly":
		return slog.LevelDebug
	case "verbose":
		return LevelVerbose
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer

	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return io.Discard, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	case level >= LevelVerbose:
		return "VERBOSE"
	default:
		return "DEBUG"
	}
}
