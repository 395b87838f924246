// Package tracker measures how long a user actually reads a book and reports each
// finished reading session through a delivery gateway.
//
// A Tracker holds at most one open session. Reader surfaces drive it with
// StartSession, UpdateProgress and EndSession; the host environment feeds it
// activity, visibility and teardown signals. Sessions close explicitly, after an
// idle timeout, or at teardown, and every close follows the same rules: sessions
// shorter than the minimum duration are dropped, the rest are handed to the gateway
// exactly once and then forgotten.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
)

const (
	// DefaultIdleTimeout is how long a session survives without qualifying activity.
	DefaultIdleTimeout = 5 * time.Minute
	// DefaultDebounceWindow collapses bursts of activity into one idle-timer reset.
	DefaultDebounceWindow = time.Second
	// DefaultMinSessionDuration is the shortest session that gets delivered.
	DefaultMinSessionDuration = domain.MinSessionDuration
	// DefaultDeliveryTimeout bounds the awaited delivery call.
	DefaultDeliveryTimeout = 15 * time.Second
)

var (
	// ErrMissingBookID is returned by StartSession when no book ID is given.
	ErrMissingBookID = errors.New("book id is required")
	// ErrInvalidBookType is returned by StartSession for a book type outside PDF, EPUB and CBX.
	ErrInvalidBookType = errors.New("invalid book type")
)

// State is the tracker's lifecycle state.
type State int

const (
	// StateIdle means no session is open.
	StateIdle State = iota
	// StateActive means a session is open and the idle countdown is running.
	StateActive
	// StatePaused means a session is open but the host is hidden and the countdown is frozen.
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Position is a reader-supplied location sample. An empty Location or nil Progress means
// the reader could not supply that value.
type Position struct {
	Location string
	Progress *float64
}

// At is shorthand for a position with both a location and a progress percentage.
func At(location string, progress float64) Position {
	return Position{Location: location, Progress: domain.Progress(progress)}
}

// Sender delivers a finished session and waits for the backend to acknowledge it.
type Sender interface {
	Send(ctx context.Context, rec domain.SessionRecord) error
}

// Beaconer hands a finished session to the transport without waiting for any result.
// Beacon must return as soon as the payload is enqueued, or with an error if it cannot be.
type Beaconer interface {
	Beacon(rec domain.SessionRecord) error
}

// Gateway is the tracker's only route to the backend.
type Gateway interface {
	Sender
	Beaconer
}

// Config holds the tracker's timing rules. Zero values take the defaults.
type Config struct {
	IdleTimeout        time.Duration
	DebounceWindow     time.Duration
	MinSessionDuration time.Duration
	DeliveryTimeout    time.Duration
}

func (c *Config) setDefaults() {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.MinSessionDuration <= 0 {
		c.MinSessionDuration = DefaultMinSessionDuration
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = DefaultDeliveryTimeout
	}
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithConfig replaces the default timing rules.
func WithConfig(cfg Config) Option {
	return func(t *Tracker) {
		t.cfg = cfg
	}
}

// session is the single open reading interval. Only the Tracker touches it.
type session struct {
	bookID        string
	bookType      domain.BookType
	startTime     time.Time
	startLocation string
	startProgress *float64
	endLocation   string
	endProgress   *float64
}

// Tracker owns the open reading session. Create one per running client and hand
// the same instance to every reader surface.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	gateway Gateway
	logger  *slog.Logger
	idle    *IdleMonitor
	hidden  func() bool

	state   State
	session *session
	detach  []func()

	inflight sync.WaitGroup
}

// New creates a tracker bound to env's signals. The tracker stays subscribed to
// visibility and teardown until Shutdown.
func New(gateway Gateway, env Environment, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		clock:   SystemClock{},
		gateway: gateway,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cfg.setDefaults()
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	t.idle = newIdleMonitor(t.clock, env, t.cfg.IdleTimeout, t.cfg.DebounceWindow, t.handleIdle)

	if v, ok := env.(interface{ Hidden() bool }); ok {
		t.hidden = v.Hidden
	}

	if env != nil {
		t.detach = append(t.detach,
			env.OnVisibilityChange(t.handleVisibility),
			env.OnTeardown(t.handleTeardown),
		)
	}

	return t
}

// StartSession opens a session for a book once the reader has it loaded and paginated.
// An already open session is closed first, with its discard-or-deliver decision made
// before the new session's start time is taken.
func (t *Tracker) StartSession(bookID string, bookType domain.BookType, start Position) error {
	if bookID == "" {
		return ErrMissingBookID
	}
	if !bookType.IsValid() {
		return ErrInvalidBookType
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		t.logger.Debug("closing previous session before starting a new one",
			"previous_book_id", t.session.bookID,
			"book_id", bookID)
		if rec, ok := t.closeLocked(Position{}); ok {
			t.sendLocked(rec)
		}
	}

	progress := domain.NormalizeProgress(start.Progress)
	t.session = &session{
		bookID:        bookID,
		bookType:      bookType,
		startTime:     t.clock.Now(),
		startLocation: start.Location,
		startProgress: progress,
		endLocation:   start.Location,
		endProgress:   progress,
	}
	if t.hidden != nil && t.hidden() {
		t.state = StatePaused
	} else {
		t.state = StateActive
		t.idle.Arm()
	}

	t.logger.Debug("reading session started",
		"book_id", bookID,
		"book_type", bookType,
		"start_location", start.Location,
		"state", t.state)

	return nil
}

// UpdateProgress records the reader's latest location. The newest call always wins.
// Progressing through the book counts as activity and restarts the idle countdown.
// Calls with no open session are ignored.
func (t *Tracker) UpdateProgress(pos Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}

	t.session.endLocation = pos.Location
	t.session.endProgress = domain.NormalizeProgress(pos.Progress)

	if t.state == StateActive {
		t.idle.Reset()
	}
}

// EndSession closes the open session. Values in end override the last tracked
// position; absent values fall back to it. Sessions shorter than the minimum
// duration are dropped; the rest are delivered in the background. Calls with no open
// session are ignored.
func (t *Tracker) EndSession(end Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}
	if rec, ok := t.closeLocked(end); ok {
		t.sendLocked(rec)
	}
}

// IsSessionActive reports whether a session is open, paused or not.
func (t *Tracker) IsSessionActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != StateIdle
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Drain waits until every background delivery has finished or ctx is done.
func (t *Tracker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches the tracker from the host's visibility and teardown signals.
// An open session stays open.
func (t *Tracker) Close() {
	t.mu.Lock()
	detach := t.detach
	t.detach = nil
	t.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
}

// Shutdown ends any open session through the normal path, detaches from the
// host's signals and waits for outstanding deliveries.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.EndSession(Position{})
	t.Close()
	return t.Drain(ctx)
}

// closeLocked finishes the open session and clears it. It reports false when the
// session was too short to deliver.
func (t *Tracker) closeLocked(end Position) (domain.SessionRecord, bool) {
	s := t.session
	t.idle.Disarm()
	t.session = nil
	t.state = StateIdle

	endLocation := s.endLocation
	if end.Location != "" {
		endLocation = end.Location
	}
	endProgress := s.endProgress
	if end.Progress != nil {
		endProgress = end.Progress
	}

	rec := domain.NewSessionRecord(s.bookID, s.bookType, s.startTime, t.clock.Now(),
		s.startLocation, endLocation, s.startProgress, endProgress)

	if rec.Duration() < t.cfg.MinSessionDuration {
		t.logger.Debug("discarding short reading session",
			"book_id", rec.BookID,
			"duration_seconds", rec.DurationSeconds)
		return rec, false
	}

	return rec, true
}

// sendLocked delivers rec through the awaited path without blocking the caller.
// The outcome is logged and never fed back into tracker state.
func (t *Tracker) sendLocked(rec domain.SessionRecord) {
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.DeliveryTimeout)
		defer cancel()

		if err := t.gateway.Send(ctx, rec); err != nil {
			t.logger.Warn("failed to deliver reading session",
				"book_id", rec.BookID,
				"duration_seconds", rec.DurationSeconds,
				"error", err)
			return
		}

		t.logger.Info("reading session delivered",
			"book_id", rec.BookID,
			"book_type", rec.BookType,
			"duration", rec.DurationFormatted)
	}()
}

// handleIdle closes the session after the idle window passes with no activity.
// It behaves exactly like EndSession with no explicit values.
func (t *Tracker) handleIdle(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || !t.idle.isCurrent(gen) {
		return
	}

	t.logger.Info("reading session idle, closing",
		"book_id", t.session.bookID,
		"idle_timeout", t.cfg.IdleTimeout)

	if rec, ok := t.closeLocked(Position{}); ok {
		t.sendLocked(rec)
	}
}

// handleTeardown closes the session while the host is going away. The record is
// handed to the beacon path synchronously; a refused hand-off is logged and lost.
func (t *Tracker) handleTeardown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}

	rec, ok := t.closeLocked(Position{})
	if !ok {
		return
	}

	if err := t.gateway.Beacon(rec); err != nil {
		t.logger.Error("failed to enqueue reading session beacon",
			"book_id", rec.BookID,
			"duration_seconds", rec.DurationSeconds,
			"error", err)
		return
	}

	t.logger.Info("reading session handed to beacon",
		"book_id", rec.BookID,
		"duration", rec.DurationFormatted)
}
