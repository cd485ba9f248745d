// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/progression"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENT TARGETS QUERY
// Maps the user's progression counters to "next target" suggestions.
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementTargetsQuery identifies the user.
type ListAchievementTargetsQuery struct {
	UserID string
}

// Validate checks the query parameters.
func (q ListAchievementTargetsQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("query", "ListAchievementTargets", shared.ErrInvalidInput, "user_id is required")
	}
	return nil
}

// ListAchievementTargetsHandler handles ListAchievementTargetsQuery.
type ListAchievementTargetsHandler struct {
	userRepo        user.Repository
	achievementRepo user.AchievementRepository
	progressRepo    enrollment.ProgressRepository
}

// NewListAchievementTargetsHandler creates the handler.
func NewListAchievementTargetsHandler(
	userRepo user.Repository,
	achievementRepo user.AchievementRepository,
	progressRepo enrollment.ProgressRepository,
) *ListAchievementTargetsHandler {
	return &ListAchievementTargetsHandler{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		progressRepo:    progressRepo,
	}
}

// Handle gathers progression counters and maps them to targets.
func (h *ListAchievementTargetsHandler) Handle(ctx context.Context, q ListAchievementTargetsQuery) ([]progression.Target, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	lessonsCompleted, err := h.progressRepo.CountCompleted(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	perfectScores, err := h.achievementRepo.CountPerfectScores(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	return progression.AvailableTargets(int(u.Level()), u.Streak, lessonsCompleted, perfectScores), nil
}
