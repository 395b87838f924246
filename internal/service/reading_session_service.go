// Package service holds the readtrack business logic between the API and the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/id"
	"github.com/listenupapp/readtrack/internal/sse"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/validation"
)

// maxClockSkew is how far in the future a client's end time may lie before the record is refused.
const maxClockSkew = 5 * time.Minute

// RecordSessionRequest is a closed session as a reader client reports it.
// Duration, its label and the progress delta are accepted but recomputed from the timestamps.
type RecordSessionRequest struct {
	BookID            string    `json:"bookId" validate:"required,max=256"`
	BookType          string    `json:"bookType" validate:"required,booktype"`
	StartTime         time.Time `json:"startTime" validate:"required"`
	EndTime           time.Time `json:"endTime" validate:"required,gtefield=StartTime"`
	DurationSeconds   int64     `json:"durationSeconds,omitempty"`
	DurationFormatted string    `json:"durationFormatted,omitempty"`
	StartProgress     *float64  `json:"startProgress,omitempty" validate:"omitempty,progress"`
	EndProgress       *float64  `json:"endProgress,omitempty" validate:"omitempty,progress"`
	ProgressDelta     *float64  `json:"progressDelta,omitempty"`
	StartLocation     string    `json:"startLocation,omitempty" validate:"max=1024"`
	EndLocation       string    `json:"endLocation,omitempty" validate:"max=1024"`
}

// ListSessionsRequest filters a history listing.
type ListSessionsRequest struct {
	BookID   string `json:"book_id" validate:"max=256"`
	BookType string `json:"book_type"` // case-insensitive
	Limit    int    `json:"limit" validate:"gte=0,lte=500"`
}

// ReadingSessionConfig tunes server-side acceptance rules.
type ReadingSessionConfig struct {
	MinDuration time.Duration
}

// ReadingSessionService stores delivered reading sessions and answers history queries.
type ReadingSessionService struct {
	store       store.ReadingSessionStore
	events      store.EventEmitter
	validator   *validation.Validator
	logger      *slog.Logger
	minDuration time.Duration
	now         func() time.Time
}

// NewReadingSessionService creates a new reading session service.
func NewReadingSessionService(st store.ReadingSessionStore, events store.EventEmitter, cfg ReadingSessionConfig, logger *slog.Logger) *ReadingSessionService {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = domain.MinSessionDuration
	}
	if events == nil {
		events = store.NewNoopEmitter()
	}
	return &ReadingSessionService{
		store:       st,
		events:      events,
		validator:   validation.New(),
		logger:      logger,
		minDuration: cfg.MinDuration,
		now:         time.Now,
	}
}

// RecordSession validates and stores one session for userID, then notifies the user's
// other connected clients. Records shorter than the minimum are refused with SESSION_TOO_SHORT.
func (s *ReadingSessionService) RecordSession(ctx context.Context, userID, deviceID string, req RecordSessionRequest, delivery domain.DeliveryMethod) (*domain.ReadingSession, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.EndTime.After(s.now().Add(maxClockSkew)) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"endTime": "must not be in the future",
		})
	}

	rec := domain.NewSessionRecord(req.BookID, domain.BookType(req.BookType), req.StartTime, req.EndTime,
		req.StartLocation, req.EndLocation, req.StartProgress, req.EndProgress)

	if rec.Duration() < s.minDuration {
		return nil, domainerrors.SessionTooShortf("session lasted %s, minimum is %s",
			rec.DurationFormatted, domain.FormatDuration(int64(s.minDuration/time.Second)))
	}

	if req.DurationSeconds != 0 && req.DurationSeconds != rec.DurationSeconds {
		s.logger.Debug("client duration disagrees with timestamps",
			"book_id", rec.BookID,
			"client_seconds", req.DurationSeconds,
			"computed_seconds", rec.DurationSeconds,
		)
	}

	sessionID, err := id.Generate(id.PrefixReadingSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	session := domain.NewReadingSession(sessionID, userID, deviceID, rec, delivery)
	session.CreatedAt = s.now().UTC()

	if err := s.store.CreateReadingSession(ctx, session); err != nil {
		s.logger.Error("failed to store reading session",
			"user_id", userID,
			"book_id", rec.BookID,
			"error", err)
		return nil, fmt.Errorf("store reading session: %w", err)
	}

	s.events.Emit(sse.NewReadingSessionRecordedEvent(session))

	s.logger.Info("reading session recorded",
		"session_id", session.ID,
		"user_id", userID,
		"book_id", session.BookID,
		"book_type", session.BookType,
		"duration", session.DurationFormatted,
		"delivery", delivery,
	)

	return session, nil
}

// GetSession returns one of userID's sessions. Another user's session is reported as not found.
func (s *ReadingSessionService) GetSession(ctx context.Context, userID, sessionID string) (*domain.ReadingSession, error) {
	session, err := s.store.GetReadingSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("reading session %s not found", sessionID)
		}
		return nil, fmt.Errorf("get reading session: %w", err)
	}
	if session.UserID != userID {
		return nil, domainerrors.NotFoundf("reading session %s not found", sessionID)
	}
	return session, nil
}

// ListSessions returns userID's sessions, newest first.
func (s *ReadingSessionService) ListSessions(ctx context.Context, userID string, req ListSessionsRequest) ([]*domain.ReadingSession, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var bookType domain.BookType
	if req.BookType != "" {
		parsed, err := domain.ParseBookType(req.BookType)
		if err != nil {
			return nil, domainerrors.Validationf("book_type: %v", err)
		}
		bookType = parsed
	}

	sessions, err := s.store.ListReadingSessions(ctx, userID, store.SessionFilter{
		BookID:   req.BookID,
		BookType: bookType,
		Limit:    req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reading sessions: %w", err)
	}
	return sessions, nil
}

// GetSummary returns userID's reading totals.
func (s *ReadingSessionService) GetSummary(ctx context.Context, userID string) (*domain.ReadingSummary, error) {
	summary, err := s.store.ReadingSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	return summary, nil
}
