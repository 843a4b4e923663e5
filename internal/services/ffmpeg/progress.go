package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// ProgressUpdate is one block of ffmpeg's progress report.
type ProgressUpdate struct {
	// Percent is 0-100 when the source duration is known, otherwise negative.
	Percent float64
	OutTime time.Duration
	Frame   int64
	FPS     float64
	Speed   float64
	// Done is set on the final "progress=end" block.
	Done bool
}

// ParseProgress reads key=value lines from r and calls fn once per block, a
// block being terminated by a "progress=" line. duration sizes Percent; zero
// leaves it unknown until the end block, which always reports 100.
func ParseProgress(r io.Reader, duration time.Duration, fn func(ProgressUpdate)) error {
	scanner := bufio.NewScanner(r)
	var current ProgressUpdate
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports microseconds under both keys.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "out_time":
			if current.OutTime == 0 {
				if d, ok := parseClock(value); ok {
					current.OutTime = d
				}
			}
		case "frame":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.Frame = n
			}
		case "fps":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				current.FPS = f
			}
		case "speed":
			if f, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
				current.Speed = f
			}
		case "progress":
			current.Done = value == "end"
			current.Percent = percentOf(current.OutTime, duration, current.Done)
			if fn != nil {
				fn(current)
			}
			current = ProgressUpdate{}
		}
	}
	return scanner.Err()
}

func percentOf(outTime, duration time.Duration, done bool) float64 {
	if done {
		return 100
	}
	if duration <= 0 {
		return -1
	}
	pct := float64(outTime) / float64(duration) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// parseClock parses ffmpeg's HH:MM:SS.micro timestamps.
func parseClock(value string) (time.Duration, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)), true
}
