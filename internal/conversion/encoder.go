package conversion

import (
	"context"
	"fmt"
	"log/slog"

	"mediaconv/internal/config"
	"mediaconv/internal/logging"
	"mediaconv/internal/services"
	"mediaconv/internal/services/drapto"
	"mediaconv/internal/services/ffmpeg"
)

// Encoder produces job.Target from job.Source. A nil error means the
// encoder exited successfully.
type Encoder interface {
	Name() string
	Encode(ctx context.Context, job Job, progress func(Progress)) error
}

// NewEncoder builds the engine selected by cfg.Conversion.Engine.
func NewEncoder(cfg *config.Config, logger *slog.Logger) (Encoder, error) {
	switch cfg.Conversion.Engine {
	case config.EngineFFmpeg, "":
		cli := ffmpeg.NewCLI(
			ffmpeg.WithBinary(cfg.FFmpegBinary()),
			ffmpeg.WithLogger(logging.NewComponentLogger(logger, "ffmpeg")),
		)
		return NewFFmpegEncoder(cli, FFmpegSettings{
			VideoCodec:    cfg.Conversion.VideoCodec,
			Threads:       cfg.Conversion.Threads,
			Overwrite:     cfg.Conversion.Overwrite,
			FFprobeBinary: cfg.FFprobeBinary(),
		}, logger), nil
	case config.EngineDrapto:
		return NewDraptoEncoder(drapto.NewLibrary()), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "conversion", "select engine", fmt.Sprintf("unsupported engine %q", cfg.Conversion.Engine), nil)
	}
}
