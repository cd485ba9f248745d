package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements user.SessionRepository for PostgreSQL.
type SessionRepository struct {
	q Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(q Querier) *SessionRepository {
	return &SessionRepository{q: q}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *user.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.Exec(ctx, query, s.ID, s.UserID, s.ExpiresAt, s.Revoked, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*user.Session, error) {
	query := `
		SELECT id, user_id, expires_at, revoked, created_at
		FROM sessions
		WHERE id = $1
	`

	var s user.Session
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.Revoked, &s.CreatedAt)

	if IsNoRows(err) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return &s, nil
}

// Revoke marks a session revoked.
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, "UPDATE sessions SET revoked = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSessionNotFound
	}

	return nil
}

// DeleteExpired removes sessions that expired before the given time, plus
// revoked ones. Returns the number of rows deleted.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := r.q.Exec(ctx,
		"DELETE FROM sessions WHERE expires_at < $1 OR revoked",
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}
