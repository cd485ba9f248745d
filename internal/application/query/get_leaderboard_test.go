package query

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

type fakeUserRepo struct {
	top []*user.User
	err error
}

func (f *fakeUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (f *fakeUserRepo) GetByID(_ context.Context, _ string) (*user.User, error) {
	return nil, shared.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ user.Email) (*user.User, error) {
	return nil, shared.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, _ *user.User) error { return nil }

func (f *fakeUserRepo) TopByExperience(_ context.Context, limit int) ([]*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.top) {
		return f.top[:limit], nil
	}
	return f.top, nil
}

type stubLeaderboardCache struct {
	entries []LeaderboardEntry
	err     error
	calls   int
}

func (s *stubLeaderboardCache) Top(_ context.Context, _ int) ([]LeaderboardEntry, error) {
	s.calls++
	return s.entries, s.err
}

func testLog() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func TestGetLeaderboard_ServedFromCache(t *testing.T) {
	cache := &stubLeaderboardCache{entries: []LeaderboardEntry{
		{Rank: 1, UserID: "user-1", Username: "maria", Experience: 450, Level: 5},
		{Rank: 2, UserID: "user-2", Username: "oleg", Experience: 120, Level: 2},
	}}
	repo := &fakeUserRepo{err: errors.New("must not be called")}

	h := NewGetLeaderboardHandler(cache, repo, testLog())

	entries, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "maria", entries[0].Username)
	assert.Equal(t, 1, cache.calls)
}

func TestGetLeaderboard_FallsBackToDatabaseOnCacheError(t *testing.T) {
	cache := &stubLeaderboardCache{err: errors.New("connection refused")}
	repo := &fakeUserRepo{top: []*user.User{
		{ID: "user-1", Username: "maria", Experience: 450},
		{ID: "user-2", Username: "oleg", Experience: 120},
	}}

	h := NewGetLeaderboardHandler(cache, repo, testLog())

	entries, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 450, entries[0].Experience)
	assert.Equal(t, 5, entries[0].Level)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGetLeaderboard_EmptyCacheFallsThrough(t *testing.T) {
	// A cold sorted set is indistinguishable from an empty leaderboard, so
	// the handler always confirms against the database.
	cache := &stubLeaderboardCache{}
	repo := &fakeUserRepo{top: []*user.User{
		{ID: "user-1", Username: "maria", Experience: 50},
	}}

	h := NewGetLeaderboardHandler(cache, repo, testLog())

	entries, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "maria", entries[0].Username)
}

func TestGetLeaderboard_NilCacheUsesDatabase(t *testing.T) {
	repo := &fakeUserRepo{top: []*user.User{
		{ID: "user-1", Username: "maria", Experience: 450},
	}}

	h := NewGetLeaderboardHandler(nil, repo, testLog())

	entries, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGetLeaderboard_LimitClamped(t *testing.T) {
	repo := &fakeUserRepo{}
	h := NewGetLeaderboardHandler(nil, repo, testLog())

	q := GetLeaderboardQuery{Limit: 100000}
	require.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 0})
	require.NoError(t, err)
}
