package drapto

import (
	"fmt"
	"strings"
	"time"

	draptolib "github.com/five82/drapto"
)

// progressReporter adapts the Drapto Reporter interface to a ProgressUpdate
// callback. Events without a useful mapping are dropped.
type progressReporter struct {
	callback func(ProgressUpdate)
	now      func() time.Time
}

func newProgressReporter(callback func(ProgressUpdate)) *progressReporter {
	return &progressReporter{callback: callback, now: time.Now}
}

func (r *progressReporter) emit(update ProgressUpdate) {
	if r.callback == nil {
		return
	}
	update.Timestamp = r.now()
	r.callback(update)
}

func (r *progressReporter) Hardware(draptolib.HardwareSummary) {}

func (r *progressReporter) Initialization(s draptolib.InitializationSummary) {
	r.emit(ProgressUpdate{
		Type:    EventTypeInitialization,
		Percent: -1,
		Stage:   "analysis",
		Message: strings.TrimSpace(fmt.Sprintf("%v %v", s.Resolution, s.DynamicRange)),
	})
}

func (r *progressReporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.emit(ProgressUpdate{
		Type:    EventTypeStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
		ETA:     eta,
	})
}

func (r *progressReporter) CropResult(draptolib.CropSummary) {}

func (r *progressReporter) EncodingConfig(draptolib.EncodingConfigSummary) {}

func (r *progressReporter) EncodingStarted(totalFrames uint64) {
	r.emit(ProgressUpdate{
		Type:        EventTypeEncodingStarted,
		Percent:     0,
		Stage:       "encoding",
		TotalFrames: totalFrames,
	})
}

func (r *progressReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(ProgressUpdate{
		Type:         EventTypeEncodingProgress,
		Percent:      float64(s.Percent),
		Stage:        "encoding",
		Speed:        float64(s.Speed),
		FPS:          float64(s.FPS),
		ETA:          s.ETA,
		CurrentFrame: uint64(s.CurrentFrame),
		TotalFrames:  uint64(s.TotalFrames),
	})
}

func (r *progressReporter) ValidationComplete(s draptolib.ValidationSummary) {
	r.emit(ProgressUpdate{
		Type:             EventTypeValidation,
		Percent:          -1,
		Stage:            "validation",
		ValidationPassed: s.Passed,
	})
}

func (r *progressReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit(ProgressUpdate{
		Type:         EventTypeEncodingComplete,
		Percent:      100,
		Stage:        "complete",
		OutputPath:   s.OutputPath,
		OriginalSize: uint64(s.OriginalSize),
		EncodedSize:  uint64(s.EncodedSize),
	})
}

func (r *progressReporter) Warning(message string) {
	r.emit(ProgressUpdate{Type: EventTypeWarning, Percent: -1, Message: message})
}

func (r *progressReporter) Error(e draptolib.ReporterError) {
	message := strings.TrimSpace(e.Title + ": " + e.Message)
	if e.Suggestion != "" {
		message += " (" + e.Suggestion + ")"
	}
	r.emit(ProgressUpdate{Type: EventTypeError, Percent: -1, Message: message})
}

func (r *progressReporter) OperationComplete(message string) {
	r.emit(ProgressUpdate{Type: EventTypeOperationComplete, Percent: -1, Message: message})
}

func (r *progressReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *progressReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *progressReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*progressReporter)(nil)
