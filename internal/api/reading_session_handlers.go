package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/service"
)

func (s *Server) registerReadingSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createReadingSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/reading-sessions",
		Summary:       "Record reading session",
		Description:   "Stores a closed reading session. Duration and progress delta are recomputed from the timestamps; sessions under the minimum duration are rejected",
		Tags:          []string{"Reading Sessions"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReadingSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReadingSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/reading-sessions",
		Summary:     "List reading sessions",
		Description: "Returns the current user's reading sessions, newest first",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReadingSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReadingSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/reading-sessions/summary",
		Summary:     "Reading summary",
		Description: "Returns session counts and accumulated reading time, overall, per book type and per book",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetReadingSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReadingSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/reading-sessions/{id}",
		Summary:     "Get reading session",
		Description: "Returns one of the current user's reading sessions",
		Tags:        []string{"Reading Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetReadingSession)
}

// === DTOs ===

// CreateReadingSessionRequest is a closed session as a reader client sends it.
type CreateReadingSessionRequest struct {
	BookID            string    `json:"bookId" minLength:"1" maxLength:"256" doc:"Book identifier"`
	BookType          string    `json:"bookType" enum:"PDF,EPUB,CBX" doc:"Reader surface the book was open in"`
	StartTime         time.Time `json:"startTime" doc:"When the session opened"`
	EndTime           time.Time `json:"endTime" doc:"When the session closed"`
	DurationSeconds   int64     `json:"durationSeconds,omitempty" doc:"Client-computed duration, recomputed by the server"`
	DurationFormatted string    `json:"durationFormatted,omitempty" doc:"Client-computed label, recomputed by the server"`
	StartProgress     *float64  `json:"startProgress,omitempty" doc:"Percentage read at open"`
	EndProgress       *float64  `json:"endProgress,omitempty" doc:"Percentage read at close"`
	ProgressDelta     *float64  `json:"progressDelta,omitempty" doc:"Client-computed delta, recomputed by the server"`
	StartLocation     string    `json:"startLocation,omitempty" doc:"Opaque start position (page number or EPUB CFI)"`
	EndLocation       string    `json:"endLocation,omitempty" doc:"Opaque end position"`
}

func (r CreateReadingSessionRequest) toService() service.RecordSessionRequest {
	return service.RecordSessionRequest{
		BookID:            r.BookID,
		BookType:          r.BookType,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		DurationSeconds:   r.DurationSeconds,
		DurationFormatted: r.DurationFormatted,
		StartProgress:     r.StartProgress,
		EndProgress:       r.EndProgress,
		ProgressDelta:     r.ProgressDelta,
		StartLocation:     r.StartLocation,
		EndLocation:       r.EndLocation,
	}
}

// CreateReadingSessionInput wraps the create request for Huma.
type CreateReadingSessionInput struct {
	Authorization string `header:"Authorization"`
	DeviceID      string `header:"X-Device-ID" doc:"Identifier of the reporting device"`
	Body          CreateReadingSessionRequest
}

// ReadingSessionOutput wraps a stored session for Huma.
type ReadingSessionOutput struct {
	Body *domain.ReadingSession
}

// ListReadingSessionsInput contains parameters for listing sessions.
type ListReadingSessionsInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `query:"book_id" doc:"Only sessions for this book"`
	BookType      string `query:"book_type" doc:"Only sessions of this book type (PDF, EPUB, CBX; case-insensitive)"`
	Limit         int    `query:"limit" minimum:"0" maximum:"500" doc:"Maximum sessions to return (default 50)"`
}

// ListReadingSessionsResponse contains a page of sessions.
type ListReadingSessionsResponse struct {
	Sessions []*domain.ReadingSession `json:"sessions" doc:"Sessions, newest first"`
}

// ListReadingSessionsOutput wraps the list response for Huma.
type ListReadingSessionsOutput struct {
	Body ListReadingSessionsResponse
}

// GetReadingSummaryInput contains parameters for the summary.
type GetReadingSummaryInput struct {
	Authorization string `header:"Authorization"`
}

// ReadingSummaryOutput wraps the summary for Huma.
type ReadingSummaryOutput struct {
	Body *domain.ReadingSummary
}

// GetReadingSessionInput contains parameters for getting one session.
type GetReadingSessionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Reading session ID"`
}

// === Handlers ===

func (s *Server) handleCreateReadingSession(ctx context.Context, input *CreateReadingSessionInput) (*ReadingSessionOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ReadingSessions.RecordSession(ctx, userID, input.DeviceID, input.Body.toService(), domain.DeliveryRequest)
	if err != nil {
		return nil, err
	}

	return &ReadingSessionOutput{Body: session}, nil
}

func (s *Server) handleListReadingSessions(ctx context.Context, input *ListReadingSessionsInput) (*ListReadingSessionsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.ReadingSessions.ListSessions(ctx, userID, service.ListSessionsRequest{
		BookID:   input.BookID,
		BookType: input.BookType,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &ListReadingSessionsOutput{
		Body: ListReadingSessionsResponse{Sessions: sessions},
	}, nil
}

func (s *Server) handleGetReadingSummary(ctx context.Context, input *GetReadingSummaryInput) (*ReadingSummaryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.ReadingSessions.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ReadingSummaryOutput{Body: summary}, nil
}

func (s *Server) handleGetReadingSession(ctx context.Context, input *GetReadingSessionInput) (*ReadingSessionOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ReadingSessions.GetSession(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReadingSessionOutput{Body: session}, nil
}
