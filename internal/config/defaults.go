package config

const (
	defaultUserConfigPath = "~/.config/mediaconv/config.toml"
	defaultSourceExt      = ".avi"
	defaultTargetExt      = ".mp4"
	defaultThumbExclude   = ".@__thumb"
	defaultEngine         = EngineFFmpeg
	defaultVideoCodec     = "libx264"
	defaultThreads        = 1
	defaultConcurrency    = 2
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultLogFormat      = "console"
	defaultLogFileFormat  = "json"
	defaultLogLevel       = "info"
	defaultLogDirName     = "logs"
	defaultJournalName    = "journal.db"
	defaultNtfyTimeout    = 10

	// EnvironmentVariable selects production or development logging.
	EnvironmentVariable = "MEDIACONV_ENV"
	// EnvironmentProduction suppresses console log output.
	EnvironmentProduction = "production"
	// EnvironmentDevelopment logs to files and the console.
	EnvironmentDevelopment = "development"

	// EngineFFmpeg runs the ffmpeg binary as a subprocess.
	EngineFFmpeg = "ffmpeg"
	// EngineDrapto encodes through the drapto library.
	EngineDrapto = "drapto"
)

// Default returns a Config populated with repository defaults. Empty path
// fields are resolved relative to the executable during normalization.
func Default() Config {
	return Config{
		Scan: Scan{
			SourceExt: defaultSourceExt,
			Exclude:   []string{defaultThumbExclude},
		},
		Conversion: Conversion{
			Engine:        defaultEngine,
			TargetExt:     defaultTargetExt,
			VideoCodec:    defaultVideoCodec,
			Threads:       defaultThreads,
			Concurrency:   defaultConcurrency,
			DeleteSource:  true,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			FileFormat: defaultLogFileFormat,
			Level:      defaultLogLevel,
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
