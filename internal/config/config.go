package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// executablePath resolves the running binary; tests override it.
var executablePath = os.Executable

// Paths contains the directories the converter reads from and writes to.
type Paths struct {
	RootDir string `toml:"root_dir"`
	LogDir  string `toml:"log_dir"`
}

// Scan controls which files the tree walk selects.
type Scan struct {
	SourceExt       string   `toml:"source_ext"`
	Exclude         []string `toml:"exclude"`
	IncludeHidden   bool     `toml:"include_hidden"`
	CaseInsensitive bool     `toml:"case_insensitive"`
}

// Conversion contains encoder and batch settings.
type Conversion struct {
	Engine        string `toml:"engine"`
	TargetExt     string `toml:"target_ext"`
	VideoCodec    string `toml:"video_codec"`
	Threads       int    `toml:"threads"`
	Concurrency   int    `toml:"concurrency"`
	MaxJobs       int    `toml:"max_jobs"`
	Overwrite     bool   `toml:"overwrite"`
	DeleteSource  bool   `toml:"delete_source"`
	JobTimeout    int    `toml:"job_timeout"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format      string `toml:"format"`
	FileFormat  string `toml:"file_format"`
	Level       string `toml:"level"`
	Environment string `toml:"environment"`
}

// Journal contains configuration for the SQLite run history.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications configures the optional ntfy message sent when a run ends.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnlyFailures   bool   `toml:"only_failures"`
}

// Config encapsulates all configuration values for mediaconv.
//
// Configuration sections by subsystem:
//   - Paths: conversion root and log directory
//   - Scan: source extension, exclusions, hidden-file handling
//   - Conversion: engine, codec, threads, concurrency, overwrite policy
//   - Logging: console/file formats, level, environment
//   - Journal: optional run history database
//   - Notifications: ntfy topic for end-of-run messages
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Conversion    Conversion    `toml:"conversion"`
	Logging       Logging       `toml:"logging"`
	Journal       Journal       `toml:"journal"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultUserConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultUserConfigPath)
	if err != nil {
		return "", false, err
	}

	if dir, err := ProgramDir(); err == nil {
		besideBinary := filepath.Join(dir, "mediaconv.toml")
		if info, err := os.Stat(besideBinary); err == nil && !info.IsDir() {
			return besideBinary, true, nil
		}
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// ProgramDir returns the directory holding the running executable with
// symlinks resolved.
func ProgramDir() (string, error) {
	exe, err := executablePath()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates the log directory and the journal's parent.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Journal.Path), 0o755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	return nil
}

// Production reports whether console logging should be suppressed.
func (c *Config) Production() bool {
	return c.Logging.Environment == EnvironmentProduction
}

// LockPath returns the run lock location inside the log directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "mediaconv.lock")
}

// FFmpegBinary returns the ffmpeg executable used by the ffmpeg engine.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.Conversion.FFmpegBinary); binary != "" {
		return binary
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used to read source durations.
func (c *Config) FFprobeBinary() string {
	if binary := strings.TrimSpace(c.Conversion.FFprobeBinary); binary != "" {
		return binary
	}
	return defaultFFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
