package drapto

import (
	"context"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"mediaconv/internal/services"
)

// Client defines Drapto encoding behaviour.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error)
}

// Library implements Client using the Drapto Go library directly.
type Library struct {
	options []draptolib.Option
}

// NewLibrary constructs a Library client. Responsive mode is always enabled so
// concurrent encodes leave the host usable.
func NewLibrary(opts ...draptolib.Option) *Library {
	return &Library{options: append([]draptolib.Option{draptolib.WithResponsive()}, opts...)}
}

// Encode encodes inputPath into outputDir and returns the written path.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", services.Wrap(services.ErrValidation, "drapto", "encode", "input path required", nil)
	}
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return "", services.Wrap(services.ErrValidation, "drapto", "encode", "output directory required", nil)
	}

	encoder, err := draptolib.New(l.options...)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "drapto", "init", "", err)
	}

	var rep draptolib.Reporter
	if progress != nil {
		rep = newProgressReporter(progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrExternalTool, "drapto", "encode", filepath.Base(inputPath), err)
	}
	return OutputPath(inputPath, outputDir), nil
}

// OutputPath returns where Drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(outputDir, stem+".mkv")
}

var _ Client = (*Library)(nil)
