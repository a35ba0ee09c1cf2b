package domain

import (
	"fmt"
	"time"
)

// VisibleElapsed is the duration a surface should display at instant now.
// Running: closed intervals plus the open one measured from StartedAt.
// Paused: closed intervals exactly, independent of now. The caller supplies
// one clock read so the computation cannot tear.
func (s Session) VisibleElapsed(now time.Time) time.Duration {
	if !s.Running {
		return s.Elapsed
	}
	return s.Elapsed + now.Sub(s.StartedAt)
}

// FormatClock renders a duration as zero-padded HH:MM:SS with unbounded
// hours (26h is "26:00:00", never wrapped into days). Negative input clamps
// to zero; callers are expected not to pass it.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
