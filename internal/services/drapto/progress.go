package drapto

import "time"

// EventType tags the Reporter callback a ProgressUpdate came from.
type EventType string

const (
	EventTypeInitialization    EventType = "initialization"
	EventTypeStageProgress     EventType = "stage_progress"
	EventTypeEncodingStarted   EventType = "encoding_started"
	EventTypeEncodingProgress  EventType = "encoding_progress"
	EventTypeValidation        EventType = "validation"
	EventTypeEncodingComplete  EventType = "encoding_complete"
	EventTypeWarning           EventType = "warning"
	EventTypeError             EventType = "error"
	EventTypeOperationComplete EventType = "operation_complete"
)

// ProgressUpdate captures one Drapto progress event.
type ProgressUpdate struct {
	Type      EventType
	Timestamp time.Time
	// Percent is 0-100, or negative when the event carries no percentage.
	Percent float64
	Stage   string
	Message string
	Speed   float64
	FPS     float64
	ETA     time.Duration
	// Frames encoded so far and expected in total, when known.
	CurrentFrame uint64
	TotalFrames  uint64
	// OutputPath, OriginalSize and EncodedSize are set on EncodingComplete.
	OutputPath   string
	OriginalSize uint64
	EncodedSize  uint64
	// ValidationPassed is set on Validation events.
	ValidationPassed bool
}
