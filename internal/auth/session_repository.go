package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
)

// SessionRepository stores at most one session per user.
type SessionRepository interface {
	// Replace deletes any session of s.UserID and inserts s, atomically.
	// It reports whether an older session was removed.
	Replace(ctx context.Context, s *Session) (replaced bool, err error)
	GetByUserID(ctx context.Context, userID string) (*Session, error)
	// DeleteByUserID removes the user's session. It reports whether one existed.
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteSessionRepository implements SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new SQLite-backed session repository.
func NewSessionRepository(db *database.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// Replace implements SessionRepository.
func (r *SQLiteSessionRepository) Replace(ctx context.Context, s *Session) (bool, error) {
	if s.ID == "" {
		s.ID = "ses-" + uuid.NewString()
	}

	var replaced bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", s.UserID)
		if err != nil {
			return fmt.Errorf("removing previous session: %w", err)
		}
		n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
		replaced = n > 0

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, user_id, token_hash, issued_at, expires_at)
			 VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.TokenHash,
			database.Timestamp(s.IssuedAt), database.Timestamp(s.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}

// GetByUserID implements SessionRepository.
func (r *SQLiteSessionRepository) GetByUserID(ctx context.Context, userID string) (*Session, error) {
	var s Session
	var issuedAt, expiresAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, issued_at, expires_at FROM sessions WHERE user_id = ?`, userID,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &issuedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s.IssuedAt, _ = database.ParseTimestamp(issuedAt)   //nolint:errcheck // format is controlled
	s.ExpiresAt, _ = database.ParseTimestamp(expiresAt) //nolint:errcheck // format is controlled
	return &s, nil
}

// DeleteByUserID implements SessionRepository.
func (r *SQLiteSessionRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n > 0, nil
}

// DeleteExpired removes sessions whose expiry is strictly before now.
func (r *SQLiteSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", database.Timestamp(now))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}

// Count returns the number of live session rows.
func (r *SQLiteSessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
