package query

import (
	"context"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementsQuery identifies the user.
type ListAchievementsQuery struct {
	UserID string
}

// Validate checks the query parameters.
func (q ListAchievementsQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("query", "ListAchievements", shared.ErrInvalidInput, "user_id is required")
	}
	return nil
}

// ListAchievementsHandler returns a user's unlocked achievements, newest
// first.
type ListAchievementsHandler struct {
	achievementRepo user.AchievementRepository
}

// NewListAchievementsHandler creates the handler.
func NewListAchievementsHandler(achievementRepo user.AchievementRepository) *ListAchievementsHandler {
	return &ListAchievementsHandler{achievementRepo: achievementRepo}
}

// Handle lists the unlocked achievements.
func (h *ListAchievementsHandler) Handle(ctx context.Context, q ListAchievementsQuery) ([]user.Achievement, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return h.achievementRepo.GetByUser(ctx, q.UserID)
}
