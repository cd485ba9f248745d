package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		xp   XP
		want Level
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{950, 10},
		{-5, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateLevel(tt.xp), "xp=%d", tt.xp)
	}
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser("id", "not-an-email", "alice", "hash")
	assert.Error(t, err)

	_, err = NewUser("id", "alice@example.com", "a", "hash")
	assert.Error(t, err)

	u, err := NewUser("id", "alice@example.com", "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, XP(0), u.Experience)
	assert.Equal(t, Level(1), u.Level())
	assert.Equal(t, int64(1), u.Version)
	assert.Nil(t, u.LastLogin)
}

func TestUser_GainExperience(t *testing.T) {
	u, err := NewUser("id", "bob@example.com", "bob", "hash")
	require.NoError(t, err)

	u.GainExperience(95)
	assert.Equal(t, XP(95), u.Experience)
	assert.Equal(t, Level(1), u.Level())

	u.GainExperience(5)
	assert.Equal(t, XP(100), u.Experience)
	assert.Equal(t, Level(2), u.Level())

	// negative deltas never reduce experience
	u.GainExperience(-50)
	assert.Equal(t, XP(100), u.Experience)
}

func TestUser_SetStreak(t *testing.T) {
	u, err := NewUser("id", "eva@example.com", "eva", "hash")
	require.NoError(t, err)

	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	u.SetStreak(5, now)
	assert.Equal(t, 5, u.Streak)
	assert.Equal(t, 5, u.BestStreak)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, now, *u.LastLogin)

	// a reset keeps the best streak
	u.SetStreak(0, now.Add(72*time.Hour))
	assert.Equal(t, 0, u.Streak)
	assert.Equal(t, 5, u.BestStreak)
}

func TestAchievement_DedupKey(t *testing.T) {
	lessonScoped := Achievement{Type: AchievementPerfectScore, Title: "Perfect Score in Basics", LessonID: "l1"}
	assert.Equal(t, "perfect_score:l1", lessonScoped.DedupKey())

	titleScoped := Achievement{Type: AchievementStreak, Title: "7-Day Streak"}
	assert.Equal(t, "streak:7-Day Streak", titleScoped.DedupKey())
}
