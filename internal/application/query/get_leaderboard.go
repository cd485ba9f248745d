package query

import (
	"context"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Reads the XP leaderboard from the hot cache, falling back to a database
// scan when the cache is unavailable or empty.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Experience int    `json:"experience"`
	Level      int    `json:"level"`
}

// LeaderboardCache is the hot-path leaderboard store (redis sorted set).
type LeaderboardCache interface {
	// Top returns up to limit entries ordered by experience descending.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// GetLeaderboardQuery contains leaderboard parameters.
type GetLeaderboardQuery struct {
	Limit int
}

// Validate normalizes the limit.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	cache    LeaderboardCache
	userRepo user.Repository
	log      *logger.Logger
}

// NewGetLeaderboardHandler creates the handler. cache may be nil when redis
// is disabled; the handler then always uses the database.
func NewGetLeaderboardHandler(cache LeaderboardCache, userRepo user.Repository, log *logger.Logger) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		cache:    cache,
		userRepo: userRepo,
		log:      log.With(logger.Component("leaderboard")),
	}
}

// Handle returns the top users by experience.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) ([]LeaderboardEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		entries, err := h.cache.Top(ctx, q.Limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			h.log.Warn("leaderboard cache unavailable, falling back to database", logger.Err(err))
		}
	}

	users, err := h.userRepo.TopByExperience(ctx, q.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrInternal, "leaderboard scan failed", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			Username:   u.Username.String(),
			Experience: int(u.Experience),
			Level:      int(u.Level()),
		})
	}
	return entries, nil
}
