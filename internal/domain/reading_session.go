package domain

import "time"

// DeliveryMethod records which path a session record arrived through.
type DeliveryMethod string

const (
	// DeliveryRequest is the ordinary awaited create call made on a normal close.
	DeliveryRequest DeliveryMethod = "request"
	// DeliveryBeacon is the fire-and-forget transmission made while the client is tearing down.
	DeliveryBeacon DeliveryMethod = "beacon"
)

// ReadingSession is a stored reading session: one continuous interval a user spent
// reading one book, as reported by a reader client.
type ReadingSession struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	DeviceID          string         `json:"device_id,omitempty"`
	BookID            string         `json:"book_id"`
	BookType          BookType       `json:"book_type"`
	StartedAt         time.Time      `json:"started_at"`
	EndedAt           time.Time      `json:"ended_at"`
	DurationSeconds   int64          `json:"duration_seconds"`
	DurationFormatted string         `json:"duration_formatted"`
	StartProgress     *float64       `json:"start_progress,omitempty"`
	EndProgress       *float64       `json:"end_progress,omitempty"`
	ProgressDelta     *float64       `json:"progress_delta,omitempty"`
	StartLocation     string         `json:"start_location,omitempty"`
	EndLocation       string         `json:"end_location,omitempty"`
	Delivery          DeliveryMethod `json:"delivery"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewReadingSession stores a delivered record on behalf of a user.
func NewReadingSession(id, userID, deviceID string, rec SessionRecord, delivery DeliveryMethod) *ReadingSession {
	return &ReadingSession{
		ID:                id,
		UserID:            userID,
		DeviceID:          deviceID,
		BookID:            rec.BookID,
		BookType:          rec.BookType,
		StartedAt:         rec.StartTime,
		EndedAt:           rec.EndTime,
		DurationSeconds:   rec.DurationSeconds,
		DurationFormatted: rec.DurationFormatted,
		StartProgress:     rec.StartProgress,
		EndProgress:       rec.EndProgress,
		ProgressDelta:     rec.ProgressDelta,
		StartLocation:     rec.StartLocation,
		EndLocation:       rec.EndLocation,
		Delivery:          delivery,
		CreatedAt:         time.Now().UTC(),
	}
}

// Record returns the session in its wire shape.
func (s *ReadingSession) Record() SessionRecord {
	return SessionRecord{
		BookID:            s.BookID,
		BookType:          s.BookType,
		StartTime:         s.StartedAt,
		EndTime:           s.EndedAt,
		DurationSeconds:   s.DurationSeconds,
		DurationFormatted: s.DurationFormatted,
		StartProgress:     s.StartProgress,
		EndProgress:       s.EndProgress,
		ProgressDelta:     s.ProgressDelta,
		StartLocation:     s.StartLocation,
		EndLocation:       s.EndLocation,
	}
}

// ReadingSummary aggregates a user's stored sessions.
type ReadingSummary struct {
	TotalSessions     int                       `json:"total_sessions"`
	TotalSeconds      int64                     `json:"total_seconds"`
	TotalFormatted    string                    `json:"total_formatted"`
	ByBookType        map[BookType]ReadingTotal `json:"by_book_type"`
	Books             []BookReadingTotal        `json:"books"`
	LastSessionEndsAt *time.Time                `json:"last_session_ended_at,omitempty"`
}

// ReadingTotal is a session count and accumulated time.
type ReadingTotal struct {
	Sessions       int    `json:"sessions"`
	Seconds        int64  `json:"seconds"`
	FormattedTotal string `json:"formatted_total"`
}

// BookReadingTotal is the accumulated reading time for one book.
type BookReadingTotal struct {
	BookID   string   `json:"book_id"`
	BookType BookType `json:"book_type"`
	ReadingTotal
	LastProgress *float64 `json:"last_progress,omitempty"`
}
