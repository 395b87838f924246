package domain

import (
	"fmt"
	"time"
)

// FormatDuration renders a whole number of seconds as a compact label:
// "1h 2m 5s" from one hour, "2m 5s" from one minute, otherwise "45s".
// Negative input is treated as zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// DurationSeconds returns the whole seconds elapsed between start and end, rounded down.
// An end before start yields zero.
func DurationSeconds(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}
