package drapto

import (
	"testing"
	"time"

	draptolib "github.com/five82/drapto"
)

func TestReporterTranslatesEvents(t *testing.T) {
	var updates []ProgressUpdate
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rep := newProgressReporter(func(u ProgressUpdate) { updates = append(updates, u) })
	rep.now = func() time.Time { return fixed }

	eta := 90 * time.Second
	rep.Hardware(draptolib.HardwareSummary{Hostname: "host"})
	rep.StageProgress(draptolib.StageProgress{Percent: 12, Stage: "crop", Message: "detecting", ETA: &eta})
	rep.EncodingStarted(2400)
	rep.EncodingProgress(draptolib.ProgressSnapshot{Percent: 50, Speed: 1.5, FPS: 36, ETA: time.Minute, TotalFrames: 2400, CurrentFrame: 1200})
	rep.Warning("audio downmixed")
	rep.Error(draptolib.ReporterError{Title: "Encode", Message: "svt failed", Suggestion: "check input"})

	if len(updates) != 5 {
		t.Fatalf("expected 5 updates (hardware dropped), got %d", len(updates))
	}
	if updates[0].Type != EventTypeStageProgress || updates[0].Percent != 12 || updates[0].ETA != eta || updates[0].Stage != "crop" {
		t.Fatalf("unexpected stage update: %+v", updates[0])
	}
	if updates[1].Type != EventTypeEncodingStarted || updates[1].TotalFrames != 2400 {
		t.Fatalf("unexpected start update: %+v", updates[1])
	}
	enc := updates[2]
	if enc.Stage != "encoding" || enc.Percent != 50 || enc.Speed != 1.5 || enc.CurrentFrame != 1200 {
		t.Fatalf("unexpected encoding update: %+v", enc)
	}
	if updates[3].Type != EventTypeWarning || updates[3].Percent >= 0 {
		t.Fatalf("warnings should carry unknown percent: %+v", updates[3])
	}
	if updates[4].Message != "Encode: svt failed (check input)" {
		t.Fatalf("unexpected error message %q", updates[4].Message)
	}
	for _, u := range updates {
		if !u.Timestamp.Equal(fixed) {
			t.Fatalf("expected stamped timestamp, got %v", u.Timestamp)
		}
	}
}

func TestReporterStageProgressWithoutETA(t *testing.T) {
	var got ProgressUpdate
	rep := newProgressReporter(func(u ProgressUpdate) { got = u })
	rep.StageProgress(draptolib.StageProgress{Percent: 5, Stage: "analysis"})
	if got.ETA != 0 {
		t.Fatalf("expected zero ETA, got %v", got.ETA)
	}
}

func TestReporterNilCallback(t *testing.T) {
	rep := newProgressReporter(nil)
	rep.OperationComplete("done")
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/media/a/clip.avi", "/media/a"); got != "/media/a/clip.mkv" {
		t.Fatalf("OutputPath = %q", got)
	}
	if got := OutputPath("/media/.avi", "/out"); got != "/out/.avi.mkv" {
		t.Fatalf("OutputPath for dotfile = %q", got)
	}
}
