package conversion

import (
	"fmt"
	"path/filepath"
	"time"
)

// Status is the terminal state of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCanceled  Status = "canceled"
)

// Outcome records how a job ended.
type Outcome struct {
	Job           Job
	Status        Status
	Err           error
	Started       time.Time
	Finished      time.Time
	SourceRemoved bool
	// Reason explains a skip.
	Reason string
}

// Duration is the wall time the job took, or zero if it never started.
func (o Outcome) Duration() time.Duration {
	if o.Started.IsZero() || o.Finished.IsZero() {
		return 0
	}
	return o.Finished.Sub(o.Started)
}

// Message is the one-line report for the outcome.
func (o Outcome) Message() string {
	name := filepath.Base(o.Job.Source)
	switch o.Status {
	case StatusSucceeded:
		return fmt.Sprintf("Successfully converted %s to %s", name, filepath.Base(o.Job.Target))
	case StatusSkipped:
		return fmt.Sprintf("Skipped %s: %s", name, o.Reason)
	case StatusCanceled:
		return fmt.Sprintf("Canceled conversion of %s", name)
	default:
		return fmt.Sprintf("Failed to convert %s: %v", name, o.Err)
	}
}
