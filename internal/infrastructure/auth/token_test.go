package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

var testSecret = []byte("test-secret-material")

func newTokenManager(t *testing.T) *TokenManager {
	t.Helper()

	tm, err := NewTokenManager(testSecret)
	require.NoError(t, err)
	return tm
}

func TestTokenManager_IssueVerifyRoundTrip(t *testing.T) {
	tm := newTokenManager(t)
	session := user.NewSession("sess-1", "user-1", time.Hour)

	token, err := tm.Issue(session)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.WithinDuration(t, session.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := newTokenManager(t)
	session := user.NewSession("sess-1", "user-1", -time.Minute)

	token, err := tm.Issue(session)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, shared.ErrTokenExpired)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	assert.NotErrorIs(t, err, shared.ErrSessionExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := newTokenManager(t)

	other, err := NewTokenManager([]byte("different-secret"))
	require.NoError(t, err)

	token, err := other.Issue(user.NewSession("sess-1", "user-1", time.Hour))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestTokenManager_GarbageToken(t *testing.T) {
	tm := newTokenManager(t)

	_, err := tm.Verify("not.a.jwt")
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestTokenManager_EmptyToken(t *testing.T) {
	tm := newTokenManager(t)

	_, err := tm.Verify("")
	assert.ErrorIs(t, err, shared.ErrMissingToken)
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager(nil)
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Session verifier
// ─────────────────────────────────────────────────────────────────────────────

type stubSessionRepo struct {
	sessions map[string]*user.Session
}

func (s *stubSessionRepo) Create(_ context.Context, session *user.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionRepo) GetByID(_ context.Context, id string) (*user.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return session, nil
}

func (s *stubSessionRepo) Revoke(_ context.Context, id string) error {
	session, ok := s.sessions[id]
	if !ok {
		return shared.ErrSessionNotFound
	}
	session.Revoked = true
	return nil
}

func (s *stubSessionRepo) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func newVerifier(t *testing.T) (*SessionVerifier, *TokenManager, *stubSessionRepo) {
	t.Helper()

	tm := newTokenManager(t)
	repo := &stubSessionRepo{sessions: make(map[string]*user.Session)}
	verifier := NewSessionVerifier(tm, repo, nil,
		logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError}))

	return verifier, tm, repo
}

func TestSessionVerifier_LiveSession(t *testing.T) {
	verifier, tm, repo := newVerifier(t)

	session := user.NewSession("sess-1", "user-1", time.Hour)
	require.NoError(t, repo.Create(context.Background(), session))

	token, err := tm.Issue(session)
	require.NoError(t, err)

	claims, err := verifier.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestSessionVerifier_RevokedSessionKillsToken(t *testing.T) {
	verifier, tm, repo := newVerifier(t)

	session := user.NewSession("sess-1", "user-1", time.Hour)
	require.NoError(t, repo.Create(context.Background(), session))

	token, err := tm.Issue(session)
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(context.Background(), "sess-1"))

	_, err = verifier.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestSessionVerifier_UnknownSession(t *testing.T) {
	verifier, tm, _ := newVerifier(t)

	token, err := tm.Issue(user.NewSession("never-stored", "user-1", time.Hour))
	require.NoError(t, err)

	_, err = verifier.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestSessionVerifier_SessionUserMismatch(t *testing.T) {
	verifier, tm, repo := newVerifier(t)

	// Session row belongs to a different user than the token subject.
	stored := user.NewSession("sess-1", "user-2", time.Hour)
	require.NoError(t, repo.Create(context.Background(), stored))

	token, err := tm.Issue(user.NewSession("sess-1", "user-1", time.Hour))
	require.NoError(t, err)

	_, err = verifier.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrInvalidToken)
}
