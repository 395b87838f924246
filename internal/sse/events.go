// Package sse streams reading-session events to connected clients over Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventReadingSessionRecorded is sent when a reading session is stored, whichever path it came through.
	EventReadingSessionRecorded EventType = "reading_session.recorded"

	// EventHeartbeat keeps idle connections open through proxies.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's clients. Empty broadcasts to everyone.
	UserID string `json:"-"`
}

// ReadingSessionEventData is the payload of reading_session.recorded.
type ReadingSessionEventData struct {
	Session *domain.ReadingSession `json:"session"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewReadingSessionRecordedEvent creates a reading_session.recorded event addressed to the session's owner.
func NewReadingSessionRecordedEvent(session *domain.ReadingSession) Event {
	return Event{
		Type:      EventReadingSessionRecorded,
		Data:      ReadingSessionEventData{Session: session},
		UserID:    session.UserID,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
