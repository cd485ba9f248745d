package progression

import (
	"fmt"

	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABLE ACHIEVEMENT TARGETS
// Pure mapping from progression counters to "next target" suggestions.
// ══════════════════════════════════════════════════════════════════════════════

// Target describes the next achievement a user can work toward.
type Target struct {
	Type        user.AchievementType `json:"type"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Progress    int                  `json:"progress"`
	Target      int                  `json:"target"`

	// ProgressPercentage is clamped to [0,100]; counters can exceed a
	// target between evaluation and unlock persistence.
	ProgressPercentage int `json:"progress_percentage"`
}

// maxLevelTarget caps level suggestions: beyond this the level ladder stops
// being advertised as a target.
const maxLevelTarget = 10

// AvailableTargets maps progression counters to next-target suggestions:
// the next level (capped below 10), and the first streak, lesson-count, and
// perfect-score thresholds exceeding the current counters.
func AvailableTargets(level, streak, lessonsCompleted, perfectScores int) []Target {
	targets := make([]Target, 0, 4)

	if next := level + 1; next < maxLevelTarget {
		targets = append(targets, newTarget(
			user.AchievementLevelUp,
			fmt.Sprintf("Reach Level %d", next),
			fmt.Sprintf("Earn experience to reach level %d", next),
			level, next,
		))
	}

	if t, ok := nextThreshold(streak, streakMilestones); ok {
		targets = append(targets, newTarget(
			user.AchievementStreak,
			fmt.Sprintf("%d-Day Streak", t),
			fmt.Sprintf("Log in %d days in a row", t),
			streak, t,
		))
	}

	if t, ok := nextThreshold(lessonsCompleted, lessonMilestones); ok {
		targets = append(targets, newTarget(
			user.AchievementLessonComplete,
			fmt.Sprintf("Complete %d Lessons", t),
			fmt.Sprintf("Finish %d lessons across all languages", t),
			lessonsCompleted, t,
		))
	}

	if t, ok := nextThreshold(perfectScores, perfectScoreMilestones); ok {
		targets = append(targets, newTarget(
			user.AchievementPerfectScore,
			fmt.Sprintf("%d Perfect Scores", t),
			fmt.Sprintf("Earn a perfect score in %d lessons", t),
			perfectScores, t,
		))
	}

	return targets
}

// nextThreshold returns the first threshold strictly greater than current.
func nextThreshold(current int, thresholds []int) (int, bool) {
	for _, t := range thresholds {
		if current < t {
			return t, true
		}
	}
	return 0, false
}

func newTarget(achievementType user.AchievementType, title, description string, progress, target int) Target {
	return Target{
		Type:               achievementType,
		Title:              title,
		Description:        description,
		Progress:           progress,
		Target:             target,
		ProgressPercentage: percentage(progress, target),
	}
}

// percentage computes 100*progress/target clamped to [0,100].
func percentage(progress, target int) int {
	if target <= 0 {
		return 0
	}
	if progress <= 0 {
		return 0
	}
	p := 100 * progress / target
	if p > 100 {
		return 100
	}
	return p
}
