// Package store defines the persistence contract for reading sessions.
// The sqlite subpackage is the implementation the server runs on.
package store

import (
	"context"

	"github.com/listenupapp/readtrack/internal/domain"
)

// List limits applied when a caller does not ask for a specific page size.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// EventEmitter is the interface for emitting SSE events.
// Services use this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter { return NoopEmitter{} }

// SessionFilter narrows a session listing.
type SessionFilter struct {
	BookID   string
	BookType domain.BookType
	Limit    int
}

// Normalize clamps Limit into [1, MaxListLimit], using DefaultListLimit when unset.
func (f SessionFilter) Normalize() SessionFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f
}

// ReadingSessionStore persists delivered reading sessions.
type ReadingSessionStore interface {
	CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error
	GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error)
	ListReadingSessions(ctx context.Context, userID string, filter SessionFilter) ([]*domain.ReadingSession, error)
	ReadingSummary(ctx context.Context, userID string) (*domain.ReadingSummary, error)
	Ping(ctx context.Context) error
}
