// Package gateway delivers closed reading sessions to the readtrack server.
//
// Client satisfies tracker.Gateway: Send is the awaited create call used on a
// normal close, Beacon is the fire-and-forget path used while the process is
// tearing down.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultQueueSize = 16

	// MaxBeaconBytes mirrors the payload ceiling browsers apply to sendBeacon.
	MaxBeaconBytes = 64 << 10

	sessionsPath = "/api/v1/reading-sessions"
	beaconPath   = "/api/v1/reading-sessions/beacon"
	summaryPath  = "/api/v1/reading-sessions/summary"

	userAgent = "readtrack/1.0"
)

// Config holds client settings.
type Config struct {
	BaseURL   string
	Token     string
	DeviceID  string
	Timeout   time.Duration
	QueueSize int
}

// Client talks to the reading-session endpoints of a readtrack server.
type Client struct {
	http     *http.Client
	baseURL  *url.URL
	token    string
	deviceID string
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan beacon
	done   chan struct{}
}

type beacon struct {
	bookID  string
	payload []byte
}

// New creates a client and starts its beacon worker.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  base,
		token:    cfg.Token,
		deviceID: cfg.DeviceID,
		logger:   logger,
		queue:    make(chan beacon, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	go c.beaconLoop()

	return c, nil
}

// Send posts rec and waits for the server to store it.
// A rejected record comes back as a *errors.Error carrying the server's code.
func (c *Client) Send(ctx context.Context, rec domain.SessionRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return wrapError("send", rec.BookID, fmt.Errorf("encode record: %w", err))
	}

	req, err := c.newRequest(ctx, http.MethodPost, sessionsPath, nil, bytes.NewReader(body))
	if err != nil {
		return wrapError("send", rec.BookID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	if err := c.do(req, nil); err != nil {
		return wrapError("send", rec.BookID, err)
	}
	return nil
}

// ListSessions returns the caller's stored sessions, newest first.
// An empty bookID lists every book; limit <= 0 uses the server default.
func (c *Client) ListSessions(ctx context.Context, bookID string, limit int) ([]domain.ReadingSession, error) {
	query := url.Values{}
	if bookID != "" {
		query.Set("book_id", bookID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, sessionsPath, query, nil)
	if err != nil {
		return nil, wrapError("list", bookID, err)
	}

	var out struct {
		Sessions []domain.ReadingSession `json:"sessions"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, wrapError("list", bookID, err)
	}
	return out.Sessions, nil
}

// Summary returns the caller's reading totals.
func (c *Client) Summary(ctx context.Context) (*domain.ReadingSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, summaryPath, nil, nil)
	if err != nil {
		return nil, wrapError("summary", "", err)
	}

	var out domain.ReadingSummary
	if err := c.do(req, &out); err != nil {
		return nil, wrapError("summary", "", err)
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// envelope is the response wrapper every API operation answers with.
type envelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Details any             `json:"details,omitempty"`
}

// do executes req and decodes the envelope's data into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	c.logger.Debug("readtrack request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into a coded domain error.
func decodeError(status int, body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)

	code := domainerrors.Code(env.Code)
	if code == "" {
		code = domainerrors.CodeForStatus(status)
	}

	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", status)
	}

	return domainerrors.New(code, msg).WithDetails(env.Details)
}
