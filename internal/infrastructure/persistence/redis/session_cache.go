package redis

import (
	"context"
	"errors"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION CACHE
// ══════════════════════════════════════════════════════════════════════════════

// SessionCache keeps live sessions in Redis so token verification does not
// hit postgres on every request. The TTL mirrors the session expiry, and a
// revoked session is deleted eagerly. A miss is not an error: the caller
// falls back to the session table.
type SessionCache struct {
	cache *Cache
}

// cachedSession is the stored session payload.
type cachedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(cache *Cache) *SessionCache {
	return &SessionCache{cache: cache}
}

// Put stores a session with a TTL capped at the session's remaining life.
func (s *SessionCache) Put(ctx context.Context, session *user.Session) error {
	if session == nil || session.ID == "" {
		return ErrCacheKeyEmpty
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if ttl > TTLSession {
		ttl = TTLSession
	}

	return s.cache.Set(ctx, SessionKey(session.ID), cachedSession{
		ID:        session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		Revoked:   session.Revoked,
		CreatedAt: session.CreatedAt,
	}, ttl)
}

// Get returns a cached session. Returns ErrCacheMiss when absent.
func (s *SessionCache) Get(ctx context.Context, sessionID string) (*user.Session, error) {
	if sessionID == "" {
		return nil, ErrCacheKeyEmpty
	}

	var c cachedSession
	if err := s.cache.Get(ctx, SessionKey(sessionID), &c); err != nil {
		return nil, err
	}

	return &user.Session{
		ID:        c.ID,
		UserID:    c.UserID,
		ExpiresAt: c.ExpiresAt,
		Revoked:   c.Revoked,
		CreatedAt: c.CreatedAt,
	}, nil
}

// Drop removes a session from the cache, typically on logout.
func (s *SessionCache) Drop(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrCacheKeyEmpty
	}

	return s.cache.Delete(ctx, SessionKey(sessionID))
}

// IsMiss reports whether an error from Get is a plain cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
