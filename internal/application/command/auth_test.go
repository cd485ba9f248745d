package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// auth fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[string]*user.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*user.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *user.Session) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*user.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, id string) error {
	s, ok := r.sessions[id]
	if !ok {
		return shared.ErrSessionNotFound
	}
	s.Revoked = true
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// plainHasher marks hashes with a prefix instead of real hashing; bcrypt is
// covered by the auth infrastructure tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return shared.ErrInvalidCredentials
	}
	return nil
}

type staticTokens struct{}

func (staticTokens) Issue(s *user.Session) (string, error) { return "token-" + s.ID, nil }

type droppingCache struct {
	stored  []string
	dropped []string
}

func (c *droppingCache) Put(_ context.Context, s *user.Session) error {
	c.stored = append(c.stored, s.ID)
	return nil
}

func (c *droppingCache) Drop(_ context.Context, id string) error {
	c.dropped = append(c.dropped, id)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Register
// ─────────────────────────────────────────────────────────────────────────────

func TestRegisterHandler_CreatesUser(t *testing.T) {
	state := newFakeState()
	publisher := &capturingPublisher{}

	handler := NewRegisterHandler(&fakeUserRepo{s: state}, plainHasher{}, publisher, sequentialIDs(), testLogger())

	result, err := handler.Handle(context.Background(), RegisterCommand{
		Email:    "maria@example.com",
		Username: "maria",
		Password: "longenough",
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", result.UserID)
	assert.Equal(t, "maria", result.Username)

	stored := state.users["id-1"]
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:longenough", stored.PasswordHash)
	assert.Equal(t, []shared.EventType{shared.EventUserRegistered}, publisher.typesSeen())
}

func TestRegisterHandler_ShortPasswordRejected(t *testing.T) {
	handler := NewRegisterHandler(&fakeUserRepo{s: newFakeState()}, plainHasher{}, &capturingPublisher{}, sequentialIDs(), testLogger())

	_, err := handler.Handle(context.Background(), RegisterCommand{
		Email:    "maria@example.com",
		Username: "maria",
		Password: "short",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	state := newFakeState()
	handler := NewRegisterHandler(&fakeUserRepo{s: state}, plainHasher{}, &capturingPublisher{}, sequentialIDs(), testLogger())

	cmd := RegisterCommand{Email: "maria@example.com", Username: "maria", Password: "longenough"}

	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	// Same generated ID would collide; use a fresh generator hitting the
	// repository's uniqueness check instead.
	handler2 := NewRegisterHandler(&fakeUserRepo{s: state}, plainHasher{}, &capturingPublisher{}, IDGeneratorFunc(func() string { return "id-1" }), testLogger())
	_, err = handler2.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

// ─────────────────────────────────────────────────────────────────────────────
// Login / logout
// ─────────────────────────────────────────────────────────────────────────────

func loginFixture(t *testing.T) (*fakeState, *fakeSessionRepo, *droppingCache, *LoginHandler) {
	t.Helper()

	state := newFakeState()
	u, err := user.NewUser("user-1", "maria@example.com", "maria", "hashed:longenough")
	require.NoError(t, err)
	u.GainExperience(150)
	state.users[u.ID] = u

	sessions := newFakeSessionRepo()
	cache := &droppingCache{}

	handler := NewLoginHandler(
		&fakeUserRepo{s: state}, sessions, cache,
		plainHasher{}, staticTokens{}, &capturingPublisher{},
		sequentialIDs(), time.Hour, testLogger())

	return state, sessions, cache, handler
}

func TestLoginHandler_IssuesSessionToken(t *testing.T) {
	_, sessions, cache, handler := loginFixture(t)

	result, err := handler.Handle(context.Background(), LoginCommand{
		Email:    "maria@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	assert.Equal(t, "token-id-1", result.Token)
	assert.Equal(t, "id-1", result.SessionID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, 150, result.Experience)
	assert.Equal(t, 2, result.Level)

	stored, err := sessions.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, 5*time.Second)

	assert.Equal(t, []string{"id-1"}, cache.stored)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	_, sessions, _, handler := loginFixture(t)

	_, err := handler.Handle(context.Background(), LoginCommand{
		Email:    "maria@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.Empty(t, sessions.sessions)
}

func TestLoginHandler_UnknownEmailSameError(t *testing.T) {
	_, _, _, handler := loginFixture(t)

	_, err := handler.Handle(context.Background(), LoginCommand{
		Email:    "nobody@example.com",
		Password: "longenough",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutHandler_RevokesSessionAndEvictsCache(t *testing.T) {
	_, sessions, cache, login := loginFixture(t)

	result, err := login.Handle(context.Background(), LoginCommand{
		Email:    "maria@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	logout := NewLogoutHandler(sessions, cache, testLogger())
	require.NoError(t, logout.Handle(context.Background(), LogoutCommand{SessionID: result.SessionID}))

	stored, err := sessions.GetByID(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
	assert.Equal(t, []string{result.SessionID}, cache.dropped)
}

func TestLogoutHandler_UnknownSessionIsIdempotent(t *testing.T) {
	logout := NewLogoutHandler(newFakeSessionRepo(), &droppingCache{}, testLogger())

	assert.NoError(t, logout.Handle(context.Background(), LogoutCommand{SessionID: "ghost"}))
}
