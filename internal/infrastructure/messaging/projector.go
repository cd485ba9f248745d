package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTOR
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardScorer is the slice of the leaderboard cache the projector needs.
type LeaderboardScorer interface {
	UpdateScore(ctx context.Context, userID, username string, experience int) error
}

// LeaderboardProjector keeps the Redis leaderboard in sync with user
// experience by listening for XP events. The sorted set is a projection:
// a failed update only delays the next refresh, it never loses XP.
type LeaderboardProjector struct {
	users   user.Repository
	scorer  LeaderboardScorer
	timeout time.Duration
	log     *logger.Logger
}

// NewLeaderboardProjector creates a projector over the given user repository
// and leaderboard cache.
func NewLeaderboardProjector(users user.Repository, scorer LeaderboardScorer, log *logger.Logger) *LeaderboardProjector {
	if log == nil {
		log = logger.Default()
	}

	return &LeaderboardProjector{
		users:   users,
		scorer:  scorer,
		timeout: 5 * time.Second,
		log:     log.With(logger.String("component", "leaderboard_projector")),
	}
}

// Register subscribes the projector to the events it projects.
func (p *LeaderboardProjector) Register(bus EventBus) error {
	for _, eventType := range []shared.EventType{
		shared.EventUserRegistered,
		shared.EventXPGained,
	} {
		if err := bus.Subscribe(eventType, p); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}

	return nil
}

// Handle implements shared.EventHandler. The event payload only carries the
// user ID; the authoritative score is always re-read from the repository so
// out-of-order events cannot regress the leaderboard.
func (p *LeaderboardProjector) Handle(event shared.Event) error {
	userID, ok := event.Payload()["user_id"].(string)
	if !ok || userID == "" {
		return fmt.Errorf("event %s: payload has no user_id", event.EventType())
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	u, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}

	if err := p.scorer.UpdateScore(ctx, u.ID, u.Username.String(), int(u.Experience)); err != nil {
		return fmt.Errorf("update leaderboard for %s: %w", userID, err)
	}

	p.log.Debug("leaderboard updated",
		logger.String("user_id", userID),
		logger.Int("experience", int(u.Experience)),
	)

	return nil
}
