package api

import (
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/auth"
	"github.com/listenupapp/readtrack/internal/ratelimit"
	"github.com/listenupapp/readtrack/internal/service"
	"github.com/listenupapp/readtrack/internal/sse"
	"github.com/listenupapp/readtrack/internal/store/sqlite"
)

// testEnvelope decodes either envelope shape the API sends.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type testServer struct {
	server  *Server
	api     humatest.TestAPI
	tokens  *auth.TokenService
	manager *sse.Manager
}

type testServerOption func(*testServerConfig)

type testServerConfig struct {
	beaconLimiter *ratelimit.KeyedRateLimiter
}

func withBeaconLimiter(l *ratelimit.KeyedRateLimiter) testServerOption {
	return func(c *testServerConfig) { c.beaconLimiter = l }
}

func setupTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	var cfg testServerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "readtrack.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	manager := sse.NewManager(logger)
	services := &Services{
		ReadingSessions: service.NewReadingSessionService(st, manager, service.ReadingSessionConfig{}, logger),
	}

	s := NewServer(st, services, tokens, manager, cfg.beaconLimiter, Options{}, logger)

	return &testServer{
		server:  s,
		api:     humatest.Wrap(t, s.API()),
		tokens:  tokens,
		manager: manager,
	}
}

// bearer issues a token for userID and returns it as an Authorization header argument.
func (ts *testServer) bearer(t *testing.T, userID string) string {
	t.Helper()
	return "Authorization: Bearer " + ts.token(t, userID)
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := ts.tokens.IssueAccessToken(userID)
	require.NoError(t, err)
	return token
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}
