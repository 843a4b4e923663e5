package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeConversion()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var programDir string
	needsProgramDir := strings.TrimSpace(c.Paths.RootDir) == "" || strings.TrimSpace(c.Paths.LogDir) == ""
	if needsProgramDir {
		dir, err := ProgramDir()
		if err != nil {
			return fmt.Errorf("paths: %w", err)
		}
		programDir = dir
	}

	var err error
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		c.Paths.RootDir = filepath.Dir(programDir)
	}
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(programDir, defaultLogDirName)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	c.Scan.SourceExt = normalizeExt(c.Scan.SourceExt)
	if c.Scan.SourceExt == "" {
		c.Scan.SourceExt = defaultSourceExt
	}
	patterns := make([]string, 0, len(c.Scan.Exclude))
	seen := make(map[string]struct{}, len(c.Scan.Exclude))
	for _, pattern := range c.Scan.Exclude {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		patterns = append(patterns, trimmed)
	}
	c.Scan.Exclude = patterns
}

func (c *Config) normalizeConversion() {
	c.Conversion.Engine = strings.ToLower(strings.TrimSpace(c.Conversion.Engine))
	if c.Conversion.Engine == "" {
		c.Conversion.Engine = defaultEngine
	}
	// Encoders name their output in lower case.
	c.Conversion.TargetExt = strings.ToLower(normalizeExt(c.Conversion.TargetExt))
	if c.Conversion.TargetExt == "" {
		c.Conversion.TargetExt = defaultTargetExt
	}
	c.Conversion.VideoCodec = strings.TrimSpace(c.Conversion.VideoCodec)
	if c.Conversion.VideoCodec == "" {
		c.Conversion.VideoCodec = defaultVideoCodec
	}
	c.Conversion.FFmpegBinary = strings.TrimSpace(c.Conversion.FFmpegBinary)
	if c.Conversion.FFmpegBinary == "" {
		c.Conversion.FFmpegBinary = defaultFFmpegBinary
	}
	c.Conversion.FFprobeBinary = strings.TrimSpace(c.Conversion.FFprobeBinary)
	if c.Conversion.FFprobeBinary == "" {
		c.Conversion.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeJournal() error {
	if !c.Journal.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = filepath.Join(c.Paths.LogDir, defaultJournalName)
	}
	var err error
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = normalizeLogFormat(c.Logging.Format, defaultLogFormat)
	c.Logging.FileFormat = normalizeLogFormat(c.Logging.FileFormat, defaultLogFileFormat)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Environment = strings.ToLower(strings.TrimSpace(c.Logging.Environment))
	if c.Logging.Environment == "" {
		if value, ok := os.LookupEnv(EnvironmentVariable); ok {
			c.Logging.Environment = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if c.Logging.Environment != EnvironmentProduction {
		c.Logging.Environment = EnvironmentDevelopment
	}
}

func normalizeLogFormat(value, fallback string) string {
	switch format := strings.ToLower(strings.TrimSpace(value)); format {
	case "console", "json":
		return format
	default:
		return fallback
	}
}

// normalizeExt trims whitespace and guarantees a single leading dot.
func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}
