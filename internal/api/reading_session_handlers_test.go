package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/sse"
)

func sessionBody(bookID, bookType string, start time.Time, d time.Duration) map[string]any {
	return map[string]any{
		"bookId":        bookID,
		"bookType":      bookType,
		"startTime":     start.Format(time.RFC3339Nano),
		"endTime":       start.Add(d).Format(time.RFC3339Nano),
		"startProgress": 10.0,
		"endProgress":   12.5,
		"startLocation": "3",
		"endLocation":   "5",
	}
}

func TestCreateReadingSession(t *testing.T) {
	ts := setupTestServer(t)
	start := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	body := sessionBody("book-1", "PDF", start, 95*time.Second)
	// Client-computed fields are accepted and recomputed.
	body["durationSeconds"] = 9999
	body["durationFormatted"] = "bogus"
	body["progressDelta"] = 50.0

	resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-1"), "X-Device-ID: laptop", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decodeEnvelope[domain.ReadingSession](t, resp)
	assert.True(t, env.Success)
	session := env.Data
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "laptop", session.DeviceID)
	assert.Equal(t, domain.BookTypePDF, session.BookType)
	assert.Equal(t, int64(95), session.DurationSeconds)
	assert.Equal(t, "1m 35s", session.DurationFormatted)
	require.NotNil(t, session.ProgressDelta)
	assert.InDelta(t, 2.5, *session.ProgressDelta, 1e-9)
	assert.Equal(t, domain.DeliveryRequest, session.Delivery)
}

func TestCreateReadingSession_EmitsEvent(t *testing.T) {
	ts := setupTestServer(t)
	client, err := ts.manager.Connect("user-1")
	require.NoError(t, err)

	go ts.manager.Start(t.Context())

	resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-1"),
		sessionBody("book-1", "EPUB", time.Now().Add(-time.Hour), time.Minute))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	select {
	case evt := <-client.EventChan:
		assert.Equal(t, sse.EventReadingSessionRecorded, evt.Type)
		data, ok := evt.Data.(sse.ReadingSessionEventData)
		require.True(t, ok)
		assert.Equal(t, "book-1", data.Session.BookID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestCreateReadingSession_TooShort(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-1"),
		sessionBody("book-1", "PDF", time.Now().Add(-time.Hour), 29*time.Second))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, string(domainerrors.CodeSessionTooShort), env.Code)
}

func TestCreateReadingSession_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	start := time.Now().Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{
			name:   "unknown book type",
			mutate: func(b map[string]any) { b["bookType"] = "MOBI" },
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing book id",
			mutate: func(b map[string]any) { delete(b, "bookId") },
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "end before start",
			mutate: func(b map[string]any) { b["endTime"] = start.Add(-time.Minute).Format(time.RFC3339Nano) },
			status: http.StatusBadRequest,
		},
		{
			name:   "progress out of range",
			mutate: func(b map[string]any) { b["endProgress"] = 140.0 },
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := sessionBody("book-1", "PDF", start, 2*time.Minute)
			tt.mutate(body)

			resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-1"), body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
		})
	}
}

func TestCreateReadingSession_Unauthorized(t *testing.T) {
	ts := setupTestServer(t)
	body := sessionBody("book-1", "PDF", time.Now().Add(-time.Hour), time.Minute)

	resp := ts.api.Post("/api/v1/reading-sessions", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/reading-sessions", "Authorization: Bearer not-a-token", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, string(domainerrors.CodeUnauthorized), env.Code)
}

func TestListReadingSessions(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	base := time.Now().Add(-3 * time.Hour)

	for i, book := range []struct{ id, typ string }{
		{"book-1", "PDF"},
		{"book-2", "EPUB"},
		{"book-1", "PDF"},
	} {
		resp := ts.api.Post("/api/v1/reading-sessions", auth,
			sessionBody(book.id, book.typ, base.Add(time.Duration(i)*time.Hour), time.Minute))
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	// Another user's history stays separate.
	resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-2"),
		sessionBody("book-1", "PDF", base, time.Minute))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/reading-sessions", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	all := decodeEnvelope[ListReadingSessionsResponse](t, resp).Data.Sessions
	require.Len(t, all, 3)
	assert.True(t, all[0].StartedAt.After(all[1].StartedAt), "newest first")

	resp = ts.api.Get("/api/v1/reading-sessions?book_id=book-1", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListReadingSessionsResponse](t, resp).Data.Sessions, 2)

	resp = ts.api.Get("/api/v1/reading-sessions?book_type=EPUB", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListReadingSessionsResponse](t, resp).Data.Sessions, 1)

	resp = ts.api.Get("/api/v1/reading-sessions?book_type=epub", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListReadingSessionsResponse](t, resp).Data.Sessions, 1)

	resp = ts.api.Get("/api/v1/reading-sessions?limit=1", auth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListReadingSessionsResponse](t, resp).Data.Sessions, 1)

	resp = ts.api.Get("/api/v1/reading-sessions?book_type=MOBI", auth)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetReadingSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/reading-sessions", ts.bearer(t, "user-1"),
		sessionBody("book-1", "CBX", time.Now().Add(-time.Hour), time.Minute))
	require.Equal(t, http.StatusCreated, resp.Code)
	created := decodeEnvelope[domain.ReadingSession](t, resp).Data

	resp = ts.api.Get("/api/v1/reading-sessions/"+created.ID, ts.bearer(t, "user-1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.ID, decodeEnvelope[domain.ReadingSession](t, resp).Data.ID)

	resp = ts.api.Get("/api/v1/reading-sessions/"+created.ID, ts.bearer(t, "user-2"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, string(domainerrors.CodeNotFound), decodeEnvelope[any](t, resp).Code)

	resp = ts.api.Get("/api/v1/reading-sessions/rsession-missing", ts.bearer(t, "user-1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetReadingSummary(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.bearer(t, "user-1")
	base := time.Now().Add(-3 * time.Hour)

	for i, d := range []time.Duration{time.Minute, 2 * time.Minute} {
		resp := ts.api.Post("/api/v1/reading-sessions", auth,
			sessionBody("book-1", "PDF", base.Add(time.Duration(i)*time.Hour), d))
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := ts.api.Get("/api/v1/reading-sessions/summary", auth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	summary := decodeEnvelope[domain.ReadingSummary](t, resp).Data
	assert.Equal(t, 2, summary.TotalSessions)
	assert.Equal(t, int64(180), summary.TotalSeconds)
	assert.Equal(t, "3m 0s", summary.TotalFormatted)
	assert.Equal(t, 2, summary.ByBookType[domain.BookTypePDF].Sessions)
	require.Len(t, summary.Books, 1)
	assert.Equal(t, "book-1", summary.Books[0].BookID)
}
