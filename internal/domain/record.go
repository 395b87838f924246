package domain

import (
	"math"
	"time"
)

// MinSessionDuration is the shortest session worth reporting.
// Anything shorter is discarded on the client and rejected by the server.
const MinSessionDuration = 30 * time.Second

// SessionRecord is the payload a closed reading session is delivered as.
// The awaited request and the teardown beacon carry exactly this shape.
type SessionRecord struct {
	BookID            string    `json:"bookId"`
	BookType          BookType  `json:"bookType"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	DurationSeconds   int64     `json:"durationSeconds"`
	DurationFormatted string    `json:"durationFormatted"`
	StartProgress     *float64  `json:"startProgress,omitempty"`
	EndProgress       *float64  `json:"endProgress,omitempty"`
	ProgressDelta     *float64  `json:"progressDelta,omitempty"`
	StartLocation     string    `json:"startLocation,omitempty"`
	EndLocation       string    `json:"endLocation,omitempty"`
}

// NewSessionRecord builds a record from the raw session endpoints.
// Duration, its label and the progress delta are derived here and nowhere else.
func NewSessionRecord(bookID string, bookType BookType, start, end time.Time, startLocation, endLocation string, startProgress, endProgress *float64) SessionRecord {
	if end.Before(start) {
		end = start
	}

	duration := DurationSeconds(start, end)
	rec := SessionRecord{
		BookID:            bookID,
		BookType:          bookType,
		StartTime:         start.UTC(),
		EndTime:           end.UTC(),
		DurationSeconds:   duration,
		DurationFormatted: FormatDuration(duration),
		StartLocation:     startLocation,
		EndLocation:       endLocation,
		StartProgress:     NormalizeProgress(startProgress),
		EndProgress:       NormalizeProgress(endProgress),
	}

	if rec.StartProgress != nil && rec.EndProgress != nil {
		delta := roundTenth(*rec.EndProgress - *rec.StartProgress)
		rec.ProgressDelta = &delta
	}

	return rec
}

// Duration returns the session length as a time.Duration.
func (r SessionRecord) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// NormalizeProgress clamps a percentage to [0,100] with one decimal of precision.
// Nil and NaN stay absent.
func NormalizeProgress(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) {
		return nil
	}
	v := math.Min(100, math.Max(0, *p))
	v = roundTenth(v)
	return &v
}

// Progress returns a pointer to p, for optional progress fields.
func Progress(p float64) *float64 {
	return &p
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
