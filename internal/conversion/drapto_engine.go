package conversion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mediaconv/internal/services"
	"mediaconv/internal/services/drapto"
)

// DraptoEncoder converts to AV1 Matroska through the Drapto library. The
// target must carry the .mkv extension because Drapto picks its own name.
type DraptoEncoder struct {
	client drapto.Client
}

// NewDraptoEncoder wraps a Drapto client.
func NewDraptoEncoder(client drapto.Client) *DraptoEncoder {
	return &DraptoEncoder{client: client}
}

func (e *DraptoEncoder) Name() string { return "drapto" }

func (e *DraptoEncoder) Encode(ctx context.Context, job Job, progress func(Progress)) error {
	outputDir := filepath.Dir(job.Target)
	if expected := drapto.OutputPath(job.Source, outputDir); expected != job.Target {
		return services.Wrap(services.ErrConfiguration, "drapto", "encode", fmt.Sprintf("drapto writes %s, not %s", expected, job.Target), nil)
	}
	// The invoker has already decided an existing target may be replaced.
	if err := os.Remove(job.Target); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrTransient, "drapto", "remove existing target", job.Target, err)
	}

	var fn func(drapto.ProgressUpdate)
	if progress != nil {
		fn = func(u drapto.ProgressUpdate) {
			progress(Progress{
				Percent: u.Percent,
				Stage:   u.Stage,
				Speed:   u.Speed,
				Message: u.Message,
			})
		}
	}
	written, err := e.client.Encode(ctx, job.Source, outputDir, fn)
	if err != nil {
		return err
	}
	if written != job.Target {
		return services.Wrap(services.ErrExternalTool, "drapto", "encode", fmt.Sprintf("unexpected output %s", written), nil)
	}
	return nil
}
