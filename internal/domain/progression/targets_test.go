package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

func TestAvailableTargets_FreshUser(t *testing.T) {
	targets := AvailableTargets(1, 0, 0, 0)

	assert.Len(t, targets, 4)

	byType := make(map[user.AchievementType]Target)
	for _, target := range targets {
		byType[target.Type] = target
	}

	assert.Equal(t, 2, byType[user.AchievementLevelUp].Target)
	assert.Equal(t, 7, byType[user.AchievementStreak].Target)
	assert.Equal(t, 10, byType[user.AchievementLessonComplete].Target)
	assert.Equal(t, 5, byType[user.AchievementPerfectScore].Target)
}

func TestAvailableTargets_NextThresholdSelection(t *testing.T) {
	targets := AvailableTargets(1, 8, 26, 10)

	byType := make(map[user.AchievementType]Target)
	for _, target := range targets {
		byType[target.Type] = target
	}

	assert.Equal(t, 14, byType[user.AchievementStreak].Target)
	assert.Equal(t, 50, byType[user.AchievementLessonComplete].Target)
	assert.Equal(t, 20, byType[user.AchievementPerfectScore].Target)
}

func TestAvailableTargets_LevelCap(t *testing.T) {
	// level targets stop below 10
	targets := AvailableTargets(9, 0, 0, 0)
	for _, target := range targets {
		assert.NotEqual(t, user.AchievementLevelUp, target.Type)
	}

	targets = AvailableTargets(8, 0, 0, 0)
	found := false
	for _, target := range targets {
		if target.Type == user.AchievementLevelUp {
			found = true
			assert.Equal(t, 9, target.Target)
		}
	}
	assert.True(t, found)
}

func TestAvailableTargets_PastAllThresholds(t *testing.T) {
	targets := AvailableTargets(15, 150, 200, 80)
	assert.Empty(t, targets)
}

func TestAvailableTargets_PercentageClamped(t *testing.T) {
	// progress can momentarily exceed a target between evaluation and
	// unlock persistence; the display percentage never exceeds 100
	targets := AvailableTargets(1, 13, 0, 0)

	for _, target := range targets {
		assert.GreaterOrEqual(t, target.ProgressPercentage, 0)
		assert.LessOrEqual(t, target.ProgressPercentage, 100)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, percentage(0, 10))
	assert.Equal(t, 50, percentage(5, 10))
	assert.Equal(t, 100, percentage(10, 10))
	assert.Equal(t, 100, percentage(15, 10))
	assert.Equal(t, 0, percentage(5, 0))
	assert.Equal(t, 0, percentage(-3, 10))
}
