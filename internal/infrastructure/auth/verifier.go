package auth

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// SessionCache is the cache-aside store for live sessions. Implemented by
// the Redis session cache; may be nil, in which case every verification
// reads postgres.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*user.Session, error)
	Put(ctx context.Context, session *user.Session) error
	Drop(ctx context.Context, sessionID string) error
}

// SessionVerifier authenticates bearer tokens end to end: signature and
// expiry via the TokenManager, then session liveness via the cache with a
// postgres fallback.
type SessionVerifier struct {
	tokens   *TokenManager
	sessions user.SessionRepository
	cache    SessionCache
	log      *logger.Logger
}

// NewSessionVerifier creates a SessionVerifier. cache may be nil.
func NewSessionVerifier(tokens *TokenManager, sessions user.SessionRepository, cache SessionCache, log *logger.Logger) *SessionVerifier {
	if log == nil {
		log = logger.Default()
	}
	return &SessionVerifier{
		tokens:   tokens,
		sessions: sessions,
		cache:    cache,
		log:      log.With(logger.Component("auth")),
	}
}

// Authenticate verifies a token string and returns its claims when the
// referenced session is still live. A revoked or missing session returns
// ErrSessionNotFound even if the token itself is valid.
func (v *SessionVerifier) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := v.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := v.lookupSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	if session.UserID != claims.UserID {
		return nil, shared.ErrTokenMalformed
	}
	if !session.IsLive(time.Now().UTC()) {
		return nil, shared.ErrSessionNotFound
	}

	return claims, nil
}

func (v *SessionVerifier) lookupSession(ctx context.Context, sessionID string) (*user.Session, error) {
	if v.cache != nil {
		session, err := v.cache.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
	}

	session, err := v.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		if err := v.cache.Put(ctx, session); err != nil {
			v.log.Warn("failed to cache session", logger.Err(err))
		}
	}

	return session, nil
}
