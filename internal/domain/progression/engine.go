// Package progression содержит движок прогрессии - чистые функции перехода
// состояния: начисление опыта, уровни, серии дней и разблокировка достижений.
// Никакого ввода-вывода: движок вызывается оркестратором, который сам
// загружает и сохраняет состояние.
package progression

import (
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/timeutil"
)

// XPPerScorePoints - сколько очков результата дают одну единицу опыта.
const XPPerScorePoints = 10

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CLAMPING
// ══════════════════════════════════════════════════════════════════════════════

// ClampScore приводит заявленный клиентом результат к допустимому
// диапазону [0, totalPossible]. Клиент не доверенный: завышенный результат
// обрезается сверху, отрицательный нормализуется к нулю.
func ClampScore(raw, totalPossible int) int {
	if totalPossible < 0 {
		totalPossible = 0
	}
	if raw < 0 {
		return 0
	}
	if raw > totalPossible {
		return totalPossible
	}
	return raw
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPERIENCE ACCRUAL
// ══════════════════════════════════════════════════════════════════════════════

// ExperienceResult описывает результат начисления опыта.
type ExperienceResult struct {
	// Gained - начисленный опыт (finalScore / 10).
	Gained int

	// NewExperience - опыт после начисления.
	NewExperience int

	// OldLevel, NewLevel - уровни до и после.
	OldLevel int
	NewLevel int

	// LeveledUp - true, если NewLevel > OldLevel.
	LeveledUp bool
}

// AccrueExperience начисляет опыт за результат урока.
// Гарантия: NewLevel >= OldLevel, так как опыт не уменьшается.
func AccrueExperience(currentXP, finalScore int) ExperienceResult {
	if finalScore < 0 {
		finalScore = 0
	}
	gained := finalScore / XPPerScorePoints
	newXP := currentXP + gained

	oldLevel := int(user.CalculateLevel(user.XP(currentXP)))
	newLevel := int(user.CalculateLevel(user.XP(newXP)))

	return ExperienceResult{
		Gained:        gained,
		NewExperience: newXP,
		OldLevel:      oldLevel,
		NewLevel:      newLevel,
		LeveledUp:     newLevel > oldLevel,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK CANDIDATES
// ══════════════════════════════════════════════════════════════════════════════

// Unlock представляет кандидата на разблокировку достижения.
// Оркестратор превращает кандидата в запись user.Achievement, если запись
// с тем же ключом дедупликации ещё не существует.
type Unlock struct {
	Type        user.AchievementType
	Title       string
	Description string
	Icon        string

	// LessonID - ключ дедупликации для урочных достижений; пустой для
	// остальных (тогда ключом служит Title).
	LessonID string
}

// LevelUpUnlock возвращает кандидата на достижение level_up.
func LevelUpUnlock(newLevel int) Unlock {
	return Unlock{
		Type:        user.AchievementLevelUp,
		Title:       fmt.Sprintf("Reached Level %d", newLevel),
		Description: fmt.Sprintf("Accumulated enough experience to reach level %d", newLevel),
		Icon:        "🏅",
	}
}

// EvaluatePerfectScore возвращает кандидата на достижение perfect_score,
// если результат равен максимуму. Дедупликация идёт по идентификатору
// урока, а не по тексту заголовка: два урока с одинаковым названием
// дают два разных достижения.
func EvaluatePerfectScore(finalScore, totalPossible int, lessonID, lessonTitle string) (Unlock, bool) {
	if totalPossible <= 0 || finalScore != totalPossible {
		return Unlock{}, false
	}
	return Unlock{
		Type:        user.AchievementPerfectScore,
		Title:       fmt.Sprintf("Perfect Score in %s", lessonTitle),
		Description: fmt.Sprintf("Scored %d out of %d", finalScore, totalPossible),
		Icon:        "💯",
		LessonID:    lessonID,
	}, true
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK CONTINUITY
// ══════════════════════════════════════════════════════════════════════════════

// StreakResult описывает результат проверки серии.
type StreakResult struct {
	// Streak - новая длина серии.
	Streak int

	// LastLogin - новая отметка входа (now при любой мутации).
	LastLogin time.Time

	// Changed - true, если серия или отметка входа изменились.
	// Повторный вызов в тот же день - идемпотентный no-op.
	Changed bool

	// Broken - true, если серия сброшена из-за пропуска более одного дня.
	Broken bool
}

// AdvanceStreak применяет правило непрерывности серии по календарным дням:
//
//	нет прежнего входа  -> серия становится 1
//	разрыв == 0 дней    -> без изменений (идемпотентно)
//	разрыв == 1 день    -> серия +1
//	разрыв  > 1 дня     -> сброс в 0
//
// Ветки взаимоисключающие: сброс и инкремент никогда не применяются вместе.
func AdvanceStreak(current int, lastLogin *time.Time, now time.Time) StreakResult {
	now = now.UTC()

	if lastLogin == nil || lastLogin.IsZero() {
		return StreakResult{Streak: 1, LastLogin: now, Changed: true}
	}

	switch days := timeutil.DaysBetween(*lastLogin, now); {
	case days == 0:
		return StreakResult{Streak: current, LastLogin: *lastLogin, Changed: false}
	case days == 1:
		return StreakResult{Streak: current + 1, LastLogin: now, Changed: true}
	default:
		return StreakResult{Streak: 0, LastLogin: now, Changed: true, Broken: true}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE UNLOCKS
// ══════════════════════════════════════════════════════════════════════════════

// Milestone thresholds. Эти же пороги служат целями в AvailableTargets.
var (
	streakMilestones       = []int{7, 14, 30, 60, 100}
	lessonMilestones       = []int{10, 25, 50, 100}
	perfectScoreMilestones = []int{5, 10, 20, 50}
)

// EvaluateMilestones возвращает кандидатов на пороговые достижения,
// которых ещё нет среди existing. Порог засчитывается при достижении
// или превышении значения счётчика.
func EvaluateMilestones(streak, lessonsCompleted, perfectScores int, existing []user.Achievement) []Unlock {
	unlocked := make(map[string]bool, len(existing))
	for _, a := range existing {
		unlocked[a.DedupKey()] = true
	}

	var unlocks []Unlock

	for _, m := range streakMilestones {
		if streak < m {
			break
		}
		u := Unlock{
			Type:        user.AchievementStreak,
			Title:       fmt.Sprintf("%d-Day Streak", m),
			Description: fmt.Sprintf("Logged in %d days in a row", m),
			Icon:        "🔥",
		}
		if !unlocked[string(u.Type)+":"+u.Title] {
			unlocks = append(unlocks, u)
		}
	}

	for _, m := range lessonMilestones {
		if lessonsCompleted < m {
			break
		}
		u := Unlock{
			Type:        user.AchievementLessonComplete,
			Title:       fmt.Sprintf("%d Lessons Completed", m),
			Description: fmt.Sprintf("Completed %d lessons", m),
			Icon:        "📚",
		}
		if !unlocked[string(u.Type)+":"+u.Title] {
			unlocks = append(unlocks, u)
		}
	}

	for _, m := range perfectScoreMilestones {
		if perfectScores < m {
			break
		}
		u := Unlock{
			Type:        user.AchievementPerfectScore,
			Title:       fmt.Sprintf("%d Perfect Scores", m),
			Description: fmt.Sprintf("Earned a perfect score %d times", m),
			Icon:        "🌟",
		}
		if !unlocked[string(u.Type)+":"+u.Title] {
			unlocks = append(unlocks, u)
		}
	}

	return unlocks
}
