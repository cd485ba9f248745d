package query

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS SUMMARY QUERY
// Aggregates the user's global counters and per-language completion state
// for the profile/progress screen.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressSummaryQuery identifies the user.
type GetProgressSummaryQuery struct {
	UserID string

	// RecentAchievements limits the achievements included (default 5).
	RecentAchievements int
}

// Validate checks and normalizes the query parameters.
func (q *GetProgressSummaryQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("query", "GetProgressSummary", shared.ErrInvalidInput, "user_id is required")
	}
	if q.RecentAchievements <= 0 {
		q.RecentAchievements = 5
	}
	return nil
}

// LanguageProgressDTO describes completion within one language track.
type LanguageProgressDTO struct {
	LanguageCode     string    `json:"language_code"`
	LanguageName     string    `json:"language_name"`
	Flag             string    `json:"flag"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	Percent          int       `json:"percent"`
	StartedAt        time.Time `json:"started_at"`
}

// ProgressSummaryDTO is the aggregated progress view.
type ProgressSummaryDTO struct {
	UserID             string                `json:"user_id"`
	Experience         int                   `json:"experience"`
	Level              int                   `json:"level"`
	Streak             int                   `json:"streak"`
	BestStreak         int                   `json:"best_streak"`
	LastLogin          *time.Time            `json:"last_login,omitempty"`
	Languages          []LanguageProgressDTO `json:"languages"`
	RecentAchievements []user.Achievement    `json:"recent_achievements"`
}

// GetProgressSummaryHandler handles GetProgressSummaryQuery.
type GetProgressSummaryHandler struct {
	userRepo        user.Repository
	achievementRepo user.AchievementRepository
	catalogRepo     catalog.Repository
	enrollmentRepo  enrollment.Repository
	progressRepo    enrollment.ProgressRepository
}

// NewGetProgressSummaryHandler creates the handler.
func NewGetProgressSummaryHandler(
	userRepo user.Repository,
	achievementRepo user.AchievementRepository,
	catalogRepo catalog.Repository,
	enrollmentRepo enrollment.Repository,
	progressRepo enrollment.ProgressRepository,
) *GetProgressSummaryHandler {
	return &GetProgressSummaryHandler{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		catalogRepo:     catalogRepo,
		enrollmentRepo:  enrollmentRepo,
		progressRepo:    progressRepo,
	}
}

// Handle builds the progress summary.
func (h *GetProgressSummaryHandler) Handle(ctx context.Context, q GetProgressSummaryQuery) (*ProgressSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	enrollments, err := h.enrollmentRepo.GetByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	languages := make([]LanguageProgressDTO, 0, len(enrollments))
	for _, e := range enrollments {
		language, err := h.catalogRepo.GetLanguageByID(ctx, e.LanguageID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		total, err := h.catalogRepo.CountLessonsByLanguage(ctx, e.LanguageID)
		if err != nil {
			return nil, err
		}
		completed, err := h.progressRepo.CountCompletedByLanguage(ctx, q.UserID, e.LanguageID)
		if err != nil {
			return nil, err
		}

		percent := 0
		if total > 0 {
			percent = 100 * completed / total
			if percent > 100 {
				percent = 100
			}
		}

		languages = append(languages, LanguageProgressDTO{
			LanguageCode:     language.Code,
			LanguageName:     language.Name,
			Flag:             language.Flag,
			TotalLessons:     total,
			CompletedLessons: completed,
			Percent:          percent,
			StartedAt:        e.StartedAt,
		})
	}

	achievements, err := h.achievementRepo.GetByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if len(achievements) > q.RecentAchievements {
		achievements = achievements[:q.RecentAchievements]
	}

	return &ProgressSummaryDTO{
		UserID:             u.ID,
		Experience:         int(u.Experience),
		Level:              int(u.Level()),
		Streak:             u.Streak,
		BestStreak:         u.BestStreak,
		LastLogin:          u.LastLogin,
		Languages:          languages,
		RecentAchievements: achievements,
	}, nil
}
