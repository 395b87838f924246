package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/store"
)

// readingSessionColumns is the ordered list of columns selected in reading session queries.
// Must match the scan order in scanReadingSession.
const readingSessionColumns = `id, user_id, device_id, book_id, book_type, started_at, ended_at,
	duration_seconds, duration_formatted, start_progress, end_progress, progress_delta,
	start_location, end_location, delivery, created_at`

// scanReadingSession scans a sql.Row (or sql.Rows via its Scan method) into a domain.ReadingSession.
func scanReadingSession(scanner interface{ Scan(dest ...any) error }) (*domain.ReadingSession, error) {
	var rs domain.ReadingSession

	var (
		deviceID      sql.NullString
		bookType      string
		startedAt     string
		endedAt       string
		startProgress sql.NullFloat64
		endProgress   sql.NullFloat64
		progressDelta sql.NullFloat64
		startLocation sql.NullString
		endLocation   sql.NullString
		delivery      string
		createdAt     string
	)

	err := scanner.Scan(
		&rs.ID,
		&rs.UserID,
		&deviceID,
		&rs.BookID,
		&bookType,
		&startedAt,
		&endedAt,
		&rs.DurationSeconds,
		&rs.DurationFormatted,
		&startProgress,
		&endProgress,
		&progressDelta,
		&startLocation,
		&endLocation,
		&delivery,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rs.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	rs.EndedAt, err = parseTime(endedAt)
	if err != nil {
		return nil, err
	}
	rs.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	rs.DeviceID = deviceID.String
	rs.BookType = domain.BookType(bookType)
	rs.StartProgress = floatPtr(startProgress)
	rs.EndProgress = floatPtr(endProgress)
	rs.ProgressDelta = floatPtr(progressDelta)
	rs.StartLocation = startLocation.String
	rs.EndLocation = endLocation.String
	rs.Delivery = domain.DeliveryMethod(delivery)

	return &rs, nil
}

// CreateReadingSession inserts a new reading session into the database.
// Returns store.ErrAlreadyExists if the session ID already exists.
func (s *Store) CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_sessions (`+readingSessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		nullString(session.DeviceID),
		session.BookID,
		string(session.BookType),
		formatTime(session.StartedAt),
		formatTime(session.EndedAt),
		session.DurationSeconds,
		session.DurationFormatted,
		nullFloat(session.StartProgress),
		nullFloat(session.EndProgress),
		nullFloat(session.ProgressDelta),
		nullString(session.StartLocation),
		nullString(session.EndLocation),
		string(session.Delivery),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert reading session: %w", err)
	}
	return nil
}

// GetReadingSession retrieves a single reading session by ID.
// Returns store.ErrReadingSessionNotFound if the session does not exist.
func (s *Store) GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+readingSessionColumns+` FROM reading_sessions WHERE id = ?`, id)

	rs, err := scanReadingSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReadingSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// ListReadingSessions returns a user's sessions, most recent first.
func (s *Store) ListReadingSessions(ctx context.Context, userID string, filter store.SessionFilter) ([]*domain.ReadingSession, error) {
	filter = filter.Normalize()

	query := `SELECT ` + readingSessionColumns + ` FROM reading_sessions WHERE user_id = ?`
	args := []any{userID}

	if filter.BookID != "" {
		query += ` AND book_id = ?`
		args = append(args, filter.BookID)
	}
	if filter.BookType != "" {
		query += ` AND book_type = ?`
		args = append(args, string(filter.BookType))
	}

	query += ` ORDER BY started_at DESC, created_at DESC LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.ReadingSession, 0, min(filter.Limit, 64))
	for rows.Next() {
		rs, err := scanReadingSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ReadingSummary aggregates every session a user has stored.
func (s *Store) ReadingSummary(ctx context.Context, userID string) (*domain.ReadingSummary, error) {
	summary := &domain.ReadingSummary{
		ByBookType: make(map[domain.BookType]domain.ReadingTotal),
		Books:      []domain.BookReadingTotal{},
	}

	var lastEnded sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0), MAX(ended_at)
		FROM reading_sessions WHERE user_id = ?`, userID,
	).Scan(&summary.TotalSessions, &summary.TotalSeconds, &lastEnded)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	summary.TotalFormatted = domain.FormatDuration(summary.TotalSeconds)
	if summary.LastSessionEndsAt, err = parseNullableTime(lastEnded); err != nil {
		return nil, err
	}

	if err := s.summarizeByType(ctx, userID, summary); err != nil {
		return nil, err
	}
	if err := s.summarizeByBook(ctx, userID, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Store) summarizeByType(ctx context.Context, userID string, summary *domain.ReadingSummary) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_type, COUNT(*), SUM(duration_seconds)
		FROM reading_sessions WHERE user_id = ?
		GROUP BY book_type`, userID)
	if err != nil {
		return fmt.Errorf("query totals by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookType string
			total    domain.ReadingTotal
		)
		if err := rows.Scan(&bookType, &total.Sessions, &total.Seconds); err != nil {
			return err
		}
		total.FormattedTotal = domain.FormatDuration(total.Seconds)
		summary.ByBookType[domain.BookType(bookType)] = total
	}
	return rows.Err()
}

// summarizeByBook lists per-book totals, most recently read first. The book type and
// progress come from the book's latest session.
func (s *Store) summarizeByBook(ctx context.Context, userID string, summary *domain.ReadingSummary) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.book_id, COUNT(*), SUM(r.duration_seconds),
			(SELECT l.book_type FROM reading_sessions l
				WHERE l.user_id = r.user_id AND l.book_id = r.book_id
				ORDER BY l.ended_at DESC LIMIT 1),
			(SELECT l.end_progress FROM reading_sessions l
				WHERE l.user_id = r.user_id AND l.book_id = r.book_id AND l.end_progress IS NOT NULL
				ORDER BY l.ended_at DESC LIMIT 1)
		FROM reading_sessions r
		WHERE r.user_id = ?
		GROUP BY r.book_id
		ORDER BY MAX(r.ended_at) DESC`, userID)
	if err != nil {
		return fmt.Errorf("query totals by book: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			book         domain.BookReadingTotal
			bookType     string
			lastProgress sql.NullFloat64
		)
		if err := rows.Scan(&book.BookID, &book.Sessions, &book.Seconds, &bookType, &lastProgress); err != nil {
			return err
		}
		book.BookType = domain.BookType(bookType)
		book.FormattedTotal = domain.FormatDuration(book.Seconds)
		book.LastProgress = floatPtr(lastProgress)
		summary.Books = append(summary.Books, book)
	}
	return rows.Err()
}
