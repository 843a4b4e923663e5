package conversion

import (
	"context"
	"log/slog"
	"time"

	"mediaconv/internal/logging"
	"mediaconv/internal/media/ffprobe"
	"mediaconv/internal/services/ffmpeg"
)

var probeSource = ffprobe.Inspect

type ffmpegRunner interface {
	Convert(ctx context.Context, req ffmpeg.Request, fn func(ffmpeg.ProgressUpdate)) error
}

// FFmpegSettings are the per-run encoder arguments.
type FFmpegSettings struct {
	VideoCodec string
	Threads    int
	Overwrite  bool
	// FFprobeBinary is used to read the source duration. Empty disables
	// probing and progress percentages stay unknown.
	FFprobeBinary string
}

// FFmpegEncoder converts with the ffmpeg binary.
type FFmpegEncoder struct {
	runner   ffmpegRunner
	settings FFmpegSettings
	logger   *slog.Logger
}

// NewFFmpegEncoder wraps an ffmpeg client.
func NewFFmpegEncoder(runner ffmpegRunner, settings FFmpegSettings, logger *slog.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpegEncoder{runner: runner, settings: settings, logger: logger}
}

func (e *FFmpegEncoder) Name() string { return "ffmpeg" }

func (e *FFmpegEncoder) Encode(ctx context.Context, job Job, progress func(Progress)) error {
	req := ffmpeg.Request{
		Input:      job.Source,
		Output:     job.Target,
		VideoCodec: e.settings.VideoCodec,
		Threads:    e.settings.Threads,
		Overwrite:  e.settings.Overwrite,
		Duration:   e.sourceDuration(ctx, job.Source),
	}
	return e.runner.Convert(ctx, req, func(u ffmpeg.ProgressUpdate) {
		if progress == nil {
			return
		}
		stage := "encoding"
		if u.Done {
			stage = "finalizing"
		}
		progress(Progress{
			Percent: u.Percent,
			Stage:   stage,
			Encoded: u.OutTime,
			Speed:   u.Speed,
		})
	})
}

func (e *FFmpegEncoder) sourceDuration(ctx context.Context, source string) time.Duration {
	if e.settings.FFprobeBinary == "" {
		return 0
	}
	result, err := probeSource(ctx, e.settings.FFprobeBinary, source)
	if err != nil {
		logging.Verbose(ctx, e.logger, "source duration unavailable", logging.String(logging.FieldSource, source), logging.Error(err))
		return 0
	}
	return result.Duration()
}
