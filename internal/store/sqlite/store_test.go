package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var tableName string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'reading_sessions'`,
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("reading_sessions table missing: %v", err)
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Close()

	// Schema statements must be idempotent.
	s, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s.Close()
}

func TestFormatTime_SortsAsText(t *testing.T) {
	whole := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	fraction := whole.Add(500 * time.Millisecond)

	if !(formatTime(whole) < formatTime(fraction)) {
		t.Errorf("expected %q < %q", formatTime(whole), formatTime(fraction))
	}

	parsed, err := parseTime(formatTime(fraction))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(fraction) {
		t.Errorf("round trip: got %v, want %v", parsed, fraction)
	}
}
