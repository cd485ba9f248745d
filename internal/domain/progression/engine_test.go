package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/timeutil"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		name  string
		raw   int
		total int
		want  int
	}{
		{"within range", 15, 20, 15},
		{"exact maximum", 20, 20, 20},
		{"over-reported", 25, 20, 20},
		{"far over-reported", 1000, 20, 20},
		{"negative raw", -5, 20, 0},
		{"zero total", 10, 0, 0},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampScore(tt.raw, tt.total))
		})
	}
}

func TestAccrueExperience_LevelFormula(t *testing.T) {
	// level == experience/100 + 1 must hold after every accrual
	for _, xp := range []int{0, 5, 95, 99, 100, 101, 250, 999, 1000} {
		result := AccrueExperience(xp, 50)
		assert.Equal(t, result.NewExperience/100+1, result.NewLevel,
			"level formula must hold for xp=%d", xp)
		assert.GreaterOrEqual(t, result.NewLevel, result.OldLevel)
	}
}

func TestAccrueExperience_LevelUpAtBoundary(t *testing.T) {
	// user at 95 XP completes a 50-point lesson scoring 50:
	// gained=5, new XP=100, new level=2
	result := AccrueExperience(95, 50)

	assert.Equal(t, 5, result.Gained)
	assert.Equal(t, 100, result.NewExperience)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)
}

func TestAccrueExperience_NoLevelUp(t *testing.T) {
	result := AccrueExperience(10, 30)

	assert.Equal(t, 3, result.Gained)
	assert.Equal(t, 13, result.NewExperience)
	assert.False(t, result.LeveledUp)
}

func TestAccrueExperience_NegativeScoreIgnored(t *testing.T) {
	result := AccrueExperience(50, -10)

	assert.Equal(t, 0, result.Gained)
	assert.Equal(t, 50, result.NewExperience)
}

func TestEvaluatePerfectScore(t *testing.T) {
	unlock, ok := EvaluatePerfectScore(20, 20, "lesson-1", "Greetings")
	assert.True(t, ok)
	assert.Equal(t, user.AchievementPerfectScore, unlock.Type)
	assert.Equal(t, "Perfect Score in Greetings", unlock.Title)
	assert.Equal(t, "lesson-1", unlock.LessonID)

	_, ok = EvaluatePerfectScore(19, 20, "lesson-1", "Greetings")
	assert.False(t, ok)

	// a lesson with no exercises can never be perfect
	_, ok = EvaluatePerfectScore(0, 0, "lesson-1", "Empty")
	assert.False(t, ok)
}

func TestEvaluatePerfectScore_DedupKeyedOnLesson(t *testing.T) {
	// two lessons sharing a title produce distinct dedup keys
	u1, _ := EvaluatePerfectScore(10, 10, "lesson-a", "Basics")
	u2, _ := EvaluatePerfectScore(10, 10, "lesson-b", "Basics")

	a1 := user.Achievement{Type: u1.Type, Title: u1.Title, LessonID: u1.LessonID}
	a2 := user.Achievement{Type: u2.Type, Title: u2.Title, LessonID: u2.LessonID}
	assert.NotEqual(t, a1.DedupKey(), a2.DedupKey())
}

func TestAdvanceStreak_FirstLogin(t *testing.T) {
	now := timeutil.Date(2026, time.March, 10)

	result := AdvanceStreak(0, nil, now)

	assert.Equal(t, 1, result.Streak)
	assert.True(t, result.Changed)
	assert.False(t, result.Broken)
	assert.Equal(t, now, result.LastLogin)
}

func TestAdvanceStreak_SameDayIdempotent(t *testing.T) {
	morning := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, time.March, 10, 22, 30, 0, 0, time.UTC)

	first := AdvanceStreak(0, nil, morning)
	second := AdvanceStreak(first.Streak, &first.LastLogin, evening)

	assert.False(t, second.Changed)
	assert.Equal(t, first.Streak, second.Streak)
	assert.Equal(t, first.LastLogin, second.LastLogin)
}

func TestAdvanceStreak_ConsecutiveDayIncrements(t *testing.T) {
	yesterday := time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 10, 0, 5, 0, 0, time.UTC)

	result := AdvanceStreak(3, &yesterday, today)

	assert.Equal(t, 4, result.Streak)
	assert.True(t, result.Changed)
	assert.False(t, result.Broken)
}

func TestAdvanceStreak_GapResets(t *testing.T) {
	// streak=3, last login two days ago: reset to 0, not incremented
	twoDaysAgo := timeutil.Date(2026, time.March, 8)
	now := timeutil.Date(2026, time.March, 10)

	result := AdvanceStreak(3, &twoDaysAgo, now)

	assert.Equal(t, 0, result.Streak)
	assert.True(t, result.Changed)
	assert.True(t, result.Broken)

	// reset is independent of prior streak length
	long := AdvanceStreak(99, &twoDaysAgo, now)
	assert.Equal(t, 0, long.Streak)
	assert.True(t, long.Broken)
}

func TestEvaluateMilestones(t *testing.T) {
	unlocks := EvaluateMilestones(7, 0, 0, nil)

	if assert.Len(t, unlocks, 1) {
		assert.Equal(t, user.AchievementStreak, unlocks[0].Type)
		assert.Equal(t, "7-Day Streak", unlocks[0].Title)
	}
}

func TestEvaluateMilestones_SkipsExisting(t *testing.T) {
	existing := []user.Achievement{
		{Type: user.AchievementStreak, Title: "7-Day Streak"},
	}

	unlocks := EvaluateMilestones(14, 0, 0, existing)

	if assert.Len(t, unlocks, 1) {
		assert.Equal(t, "14-Day Streak", unlocks[0].Title)
	}
}

func TestEvaluateMilestones_MultipleCounters(t *testing.T) {
	unlocks := EvaluateMilestones(7, 10, 5, nil)

	types := make(map[string]int)
	for _, u := range unlocks {
		types[u.Title]++
	}
	assert.Equal(t, 1, types["7-Day Streak"])
	assert.Equal(t, 1, types["10 Lessons Completed"])
	assert.Equal(t, 1, types["5 Perfect Scores"])
}

func TestEvaluateMilestones_BelowThresholds(t *testing.T) {
	assert.Empty(t, EvaluateMilestones(6, 9, 4, nil))
}
