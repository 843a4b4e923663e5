package conversion

import "time"

// Progress is an engine-neutral progress report for one job.
type Progress struct {
	// Percent is 0-100, or negative when unknown.
	Percent float64
	Stage   string
	// Encoded is the media time written so far.
	Encoded time.Duration
	Speed   float64
	Message string
}
