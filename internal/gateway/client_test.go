package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, queueSize int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:   server.URL,
		Token:     "tok-123",
		DeviceID:  "device-1",
		QueueSize: queueSize,
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	// Override HTTP client to use test server
	client.http = server.Client()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(ctx)
	})
	return client
}

func testRecord() domain.SessionRecord {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	return domain.NewSessionRecord("book-1", domain.BookTypeEPUB, start, start.Add(40*time.Second),
		"epubcfi(/6/4)", "epubcfi(/6/8)", domain.Progress(12.5), domain.Progress(28))
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"v": 1, "success": true, "data": data})
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		_, err := New(Config{BaseURL: raw}, nil)
		assert.Error(t, err, raw)
	}
}

func TestClient_Send(t *testing.T) {
	var got domain.SessionRecord
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/reading-sessions", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "device-1", r.Header.Get("X-Device-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, http.StatusCreated, map[string]string{"id": "rsession-1"})
	}, 0)

	rec := testRecord()
	require.NoError(t, client.Send(context.Background(), rec))

	assert.Equal(t, "book-1", got.BookID)
	assert.Equal(t, int64(40), got.DurationSeconds)
	assert.Equal(t, "40s", got.DurationFormatted)
	require.NotNil(t, got.ProgressDelta)
	assert.InDelta(t, 15.5, *got.ProgressDelta, 0.001)
}

func TestClient_SendErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		wantMsg    string
	}{
		{
			name:       "session too short",
			statusCode: http.StatusBadRequest,
			body:       `{"v":1,"success":false,"code":"SESSION_TOO_SHORT","message":"session lasted 12s"}`,
			wantErr:    domainerrors.ErrSessionTooShort,
			wantMsg:    "session lasted 12s",
		},
		{
			name:       "plain error envelope",
			statusCode: http.StatusUnauthorized,
			body:       `{"v":1,"success":false,"error":"invalid token"}`,
			wantErr:    domainerrors.ErrUnauthorized,
			wantMsg:    "invalid token",
		},
		{
			name:       "no body",
			statusCode: http.StatusBadGateway,
			wantErr:    domainerrors.ErrInternal,
			wantMsg:    "unexpected status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			}, 0)

			err := client.Send(context.Background(), testRecord())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var gwErr *Error
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, "send", gwErr.Op)
			assert.Equal(t, "book-1", gwErr.BookID)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_SendHonoursContext(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}, 0)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Send(ctx, testRecord())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Beacon(t *testing.T) {
	type beaconRequest struct {
		contentType string
		token       string
		deviceID    string
		auth        string
		rec         domain.SessionRecord
	}

	var (
		mu       sync.Mutex
		received []beaconRequest
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/reading-sessions/beacon", r.URL.Path)
		var rec domain.SessionRecord
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))

		mu.Lock()
		received = append(received, beaconRequest{
			contentType: r.Header.Get("Content-Type"),
			token:       r.URL.Query().Get("token"),
			deviceID:    r.URL.Query().Get("device_id"),
			auth:        r.Header.Get("Authorization"),
			rec:         rec,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}, 0)

	require.NoError(t, client.Beacon(testRecord()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	got := received[0]
	assert.True(t, strings.HasPrefix(got.contentType, "text/plain"))
	assert.Equal(t, "tok-123", got.token)
	assert.Equal(t, "device-1", got.deviceID)
	assert.Empty(t, got.auth, "beacons cannot carry headers")
	assert.Equal(t, int64(40), got.rec.DurationSeconds)
}

func TestClient_BeaconTooLarge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("oversized beacon must not be sent")
		w.WriteHeader(http.StatusNoContent)
	}, 0)

	rec := testRecord()
	rec.EndLocation = strings.Repeat("x", MaxBeaconBytes)

	err := client.Beacon(rec)
	assert.ErrorIs(t, err, ErrBeaconTooLarge)
}

func TestClient_BeaconQueueFullDoesNotBlock(t *testing.T) {
	arrived := make(chan struct{}, 4)
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		arrived <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	}, 1)

	// First beacon occupies the worker.
	require.NoError(t, client.Beacon(testRecord()))
	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("first beacon never reached the server")
	}

	// Second fills the queue, third is rejected immediately.
	require.NoError(t, client.Beacon(testRecord()))

	done := make(chan error, 1)
	go func() { done <- client.Beacon(testRecord()) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBeaconQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Beacon blocked on a full queue")
	}

	close(release)
}

func TestClient_BeaconAfterClose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, 0)

	require.NoError(t, client.Close(context.Background()))
	err := client.Beacon(testRecord())
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestClient_ListSessions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/reading-sessions", r.URL.Path)
		assert.Equal(t, "book-1", r.URL.Query().Get("book_id"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"sessions": []map[string]any{
				{"id": "rsession-2", "book_id": "book-1", "book_type": "EPUB", "duration_seconds": 90, "duration_formatted": "1m 30s"},
				{"id": "rsession-1", "book_id": "book-1", "book_type": "EPUB", "duration_seconds": 40, "duration_formatted": "40s"},
			},
		})
	}, 0)

	sessions, err := client.ListSessions(context.Background(), "book-1", 5)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "rsession-2", sessions[0].ID)
	assert.Equal(t, "1m 30s", sessions[0].DurationFormatted)
	assert.Equal(t, domain.BookTypeEPUB, sessions[1].BookType)
}

func TestClient_Summary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/reading-sessions/summary", r.URL.Path)
		writeEnvelope(w, http.StatusOK, map[string]any{
			"total_sessions":  3,
			"total_seconds":   3725,
			"total_formatted": "1h 2m 5s",
		})
	}, 0)

	summary, err := client.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalSessions)
	assert.Equal(t, "1h 2m 5s", summary.TotalFormatted)
}
