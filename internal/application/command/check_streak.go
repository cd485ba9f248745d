package command

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/progression"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
	"github.com/lingoquest/lingoquest-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK STREAK COMMAND
// Applies the calendar-day streak rule for a login. Repeat same-day calls
// are idempotent no-ops.
// ══════════════════════════════════════════════════════════════════════════════

// CheckStreakCommand requests a streak evaluation for a user.
type CheckStreakCommand struct {
	// UserID is the acting user.
	UserID string

	// Now is the evaluation time; zero means time.Now().
	Now time.Time
}

// Validate validates the command.
func (c CheckStreakCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("command", "CheckStreak", shared.ErrInvalidInput, "user_id is required")
	}
	return nil
}

// CheckStreakResult contains the streak state after evaluation.
type CheckStreakResult struct {
	// Streak is the current streak length.
	Streak int

	// BestStreak is the all-time best.
	BestStreak int

	// LastLogin is the login timestamp the streak is anchored to.
	LastLogin *time.Time

	// Changed indicates the call mutated state.
	Changed bool

	// Broken indicates this evaluation reset the streak.
	Broken bool

	// UnlockedAchievements lists streak milestones reached by this call.
	UnlockedAchievements []user.Achievement
}

// CheckStreakHandler handles CheckStreakCommand.
type CheckStreakHandler struct {
	uow            UnitOfWork
	eventPublisher shared.EventPublisher
	idGen          IDGenerator
	retrier        *retry.Retrier
	log            *logger.Logger
}

// NewCheckStreakHandler creates a new CheckStreakHandler.
func NewCheckStreakHandler(
	uow UnitOfWork,
	eventPublisher shared.EventPublisher,
	idGen IDGenerator,
	log *logger.Logger,
) *CheckStreakHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CheckStreakHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		retrier:        retry.OptimisticLockRetrier(),
		log:            log.With(logger.Component("check_streak")),
	}
}

// Handle evaluates and, when needed, persists the user's streak.
func (h *CheckStreakHandler) Handle(ctx context.Context, cmd CheckStreakCommand) (*CheckStreakResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var result *CheckStreakResult
	var events []shared.Event

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		var txErr error
		result, events, txErr = h.checkInTx(ctx, cmd.UserID, now)
		if shared.IsOptimisticLock(txErr) {
			return retry.Retryable(txErr)
		}
		return txErr
	})
	if err != nil {
		if shared.IsOptimisticLock(err) {
			return nil, shared.WrapError("command", "CheckStreak", shared.ErrInternal,
				"persistent write contention on user row", err)
		}
		return nil, err
	}

	for _, event := range events {
		if pubErr := h.eventPublisher.Publish(event); pubErr != nil {
			h.log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(pubErr))
		}
	}

	if result.Changed {
		h.log.Info("streak updated",
			logger.UserID(cmd.UserID),
			logger.StreakDays(result.Streak),
			logger.Bool("broken", result.Broken))
	}

	return result, nil
}

func (h *CheckStreakHandler) checkInTx(ctx context.Context, userID string, now time.Time) (*CheckStreakResult, []shared.Event, error) {
	var result *CheckStreakResult
	var events []shared.Event

	err := h.uow.Within(ctx, func(repos TxRepos) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		streak := progression.AdvanceStreak(u.Streak, u.LastLogin, now)
		oldStreak := u.Streak

		result = &CheckStreakResult{
			Streak:     streak.Streak,
			BestStreak: u.BestStreak,
			LastLogin:  u.LastLogin,
			Changed:    streak.Changed,
			Broken:     streak.Broken,
		}

		if !streak.Changed {
			return nil
		}

		u.SetStreak(streak.Streak, streak.LastLogin)

		existing, err := repos.Achievements.GetByUser(ctx, userID)
		if err != nil {
			return err
		}
		unlocks := progression.EvaluateMilestones(u.Streak, 0, 0, existing)

		var granted []user.Achievement
		for _, unlock := range unlocks {
			if unlock.Type != user.AchievementStreak {
				continue
			}
			achievement := user.Achievement{
				ID:          h.idGen.NewID(),
				UserID:      userID,
				Type:        unlock.Type,
				Title:       unlock.Title,
				Description: unlock.Description,
				Icon:        unlock.Icon,
				UnlockedAt:  time.Now().UTC(),
			}
			if err := repos.Achievements.Create(ctx, &achievement); err != nil {
				if shared.IsConflict(err) {
					continue
				}
				return err
			}
			granted = append(granted, achievement)
		}

		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}

		result.Streak = u.Streak
		result.BestStreak = u.BestStreak
		result.LastLogin = u.LastLogin
		result.UnlockedAchievements = granted

		events = append(events, shared.NewStreakUpdatedEvent(userID, oldStreak, u.Streak, streak.Broken))
		for _, a := range granted {
			events = append(events, shared.NewAchievementUnlockedEvent(userID, string(a.Type), a.Title))
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, events, nil
}
