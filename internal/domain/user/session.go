package user

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSIONS
// Сессия - источник истины для жизни токена. JWT ссылается на сессию
// через jti; отозванная или истёкшая сессия делает токен мёртвым
// независимо от его собственного срока.
// ══════════════════════════════════════════════════════════════════════════════

// Session представляет серверную сессию пользователя.
type Session struct {
	// ID - UUID сессии. Попадает в jti токена.
	ID string

	// UserID - владелец сессии.
	UserID string

	// ExpiresAt - момент истечения.
	ExpiresAt time.Time

	// Revoked - true после logout.
	Revoked bool

	CreatedAt time.Time
}

// NewSession создаёт сессию с заданным сроком жизни.
func NewSession(id, userID string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsLive сообщает, жива ли сессия в данный момент.
func (s *Session) IsLive(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// SessionRepository определяет операции над сессиями.
type SessionRepository interface {
	// Create вставляет новую сессию.
	Create(ctx context.Context, s *Session) error

	// GetByID возвращает сессию по ID.
	// Возвращает ErrSessionNotFound, если сессии нет.
	GetByID(ctx context.Context, id string) (*Session, error)

	// Revoke помечает сессию отозванной.
	Revoke(ctx context.Context, id string) error

	// DeleteExpired удаляет истёкшие и отозванные сессии.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
