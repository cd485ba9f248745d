package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/progression"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
	"github.com/lingoquest/lingoquest-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The lesson completion orchestrator: validates enrollment, clamps the
// reported score, upserts progress, accrues experience, evaluates unlocks,
// and persists everything atomically.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains a lesson completion report.
type CompleteLessonCommand struct {
	// UserID is the acting user resolved by the auth layer.
	UserID string

	// LessonID is the completed lesson.
	LessonID string

	// RawScore is the caller-reported score. Untrusted: clamped server-side.
	RawScore int

	// TimeSpent is the reported duration. Negative values are rejected.
	TimeSpent time.Duration
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("command", "CompleteLesson", shared.ErrInvalidInput, "user_id is required")
	}
	if c.LessonID == "" {
		return shared.NewDomainError("command", "CompleteLesson", shared.ErrInvalidInput, "lesson_id is required")
	}
	if c.RawScore < 0 {
		return shared.NewDomainError("command", "CompleteLesson", shared.ErrNegativeValue, "raw_score cannot be negative")
	}
	if c.TimeSpent < 0 {
		return shared.NewDomainError("command", "CompleteLesson", shared.ErrNegativeValue, "time_spent cannot be negative")
	}
	return nil
}

// CompleteLessonResult contains the outcome of a lesson completion.
type CompleteLessonResult struct {
	// FinalScore is the clamped, persisted score.
	FinalScore int

	// ExperienceGained is the XP accrued from this completion.
	ExperienceGained int

	// NewExperience is the user's experience after accrual.
	NewExperience int

	// NewLevel is the user's level after accrual.
	NewLevel int

	// LeveledUp indicates the completion crossed a level boundary.
	LeveledUp bool

	// UnlockedAchievements lists achievements created by this completion.
	UnlockedAchievements []user.Achievement

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles CompleteLessonCommand.
type CompleteLessonHandler struct {
	catalogRepo    catalog.Repository
	enrollmentRepo enrollment.Repository
	uow            UnitOfWork
	eventPublisher shared.EventPublisher
	idGen          IDGenerator
	retrier        *retry.Retrier
	log            *logger.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	catalogRepo catalog.Repository,
	enrollmentRepo enrollment.Repository,
	uow UnitOfWork,
	eventPublisher shared.EventPublisher,
	idGen IDGenerator,
	log *logger.Logger,
) *CompleteLessonHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CompleteLessonHandler{
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		uow:            uow,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		retrier:        retry.OptimisticLockRetrier(),
		log:            log.With(logger.Component("complete_lesson")),
	}
}

// Handle executes the lesson completion flow:
//
//	validate enrollment -> clamp score -> upsert progress ->
//	accrue experience -> evaluate unlocks -> persist atomically
//
// Optimistic-lock conflicts on the user row are retried with fresh state,
// which serializes concurrent completions from the same user.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// The lesson and enrollment checks happen before any mutation: a
	// missing lesson or enrollment must leave no trace.
	lesson, err := h.catalogRepo.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	language, err := h.catalogRepo.GetLanguageByID(ctx, lesson.LanguageID)
	if err != nil {
		return nil, err
	}

	if _, err := h.enrollmentRepo.GetActive(ctx, cmd.UserID, lesson.LanguageID); err != nil {
		if shared.IsNotFound(err) || errors.Is(err, shared.ErrInvalidState) {
			return nil, shared.ErrNotEnrolled
		}
		return nil, err
	}

	finalScore := progression.ClampScore(cmd.RawScore, lesson.TotalPoints)

	var result *CompleteLessonResult
	var events []shared.Event

	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		var txErr error
		result, events, txErr = h.completeInTx(ctx, cmd, lesson, finalScore)
		if shared.IsOptimisticLock(txErr) {
			return retry.Retryable(txErr)
		}
		return txErr
	})
	if err != nil {
		if shared.IsOptimisticLock(err) {
			// Retries exhausted; surface as internal per the error contract.
			return nil, shared.WrapError("command", "CompleteLesson", shared.ErrInternal,
				"persistent write contention on user row", err)
		}
		return nil, err
	}

	// Events are published after commit. Bus failures are logged and never
	// fail an already-committed completion.
	for _, event := range events {
		if pubErr := h.eventPublisher.Publish(event); pubErr != nil {
			h.log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(pubErr))
		}
	}

	h.log.Info("lesson completed",
		logger.UserID(cmd.UserID),
		logger.LessonID(cmd.LessonID),
		logger.LanguageCode(language.Code),
		logger.XPAmount(result.ExperienceGained),
		logger.Int("final_score", result.FinalScore),
		logger.Bool("leveled_up", result.LeveledUp))

	return result, nil
}

// completeInTx performs one transactional attempt of the completion flow.
func (h *CompleteLessonHandler) completeInTx(
	ctx context.Context,
	cmd CompleteLessonCommand,
	lesson *catalog.Lesson,
	finalScore int,
) (*CompleteLessonResult, []shared.Event, error) {
	var result *CompleteLessonResult
	var events []shared.Event

	err := h.uow.Within(ctx, func(repos TxRepos) error {
		u, err := repos.Users.GetByID(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		progress := enrollment.NewProgress(h.idGen.NewID(), cmd.UserID, cmd.LessonID, finalScore, cmd.TimeSpent)
		if err := repos.Progress.Upsert(ctx, progress); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		xp := progression.AccrueExperience(int(u.Experience), finalScore)
		u.GainExperience(user.XP(xp.Gained))

		existing, err := repos.Achievements.GetByUser(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		unlocks := make([]progression.Unlock, 0, 2)
		if xp.LeveledUp {
			unlocks = append(unlocks, progression.LevelUpUnlock(xp.NewLevel))
		}
		if perfect, ok := progression.EvaluatePerfectScore(finalScore, lesson.TotalPoints, lesson.ID, lesson.Title); ok {
			unlocks = append(unlocks, perfect)
		}

		unlocked, err := h.grantUnlocks(ctx, repos, cmd.UserID, unlocks)
		if err != nil {
			return err
		}

		// Счётчики вех читаем после вставки прогресса и урочных наград,
		// чтобы N-е идеальное прохождение открывало веху в том же
		// завершении, а не в следующем.
		lessonsCompleted, err := repos.Progress.CountCompleted(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		perfectScores, err := repos.Achievements.CountPerfectScores(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		milestones, err := h.grantUnlocks(ctx, repos, cmd.UserID,
			progression.EvaluateMilestones(u.Streak, lessonsCompleted, perfectScores, existing))
		if err != nil {
			return err
		}
		unlocked = append(unlocked, milestones...)

		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}

		result = &CompleteLessonResult{
			FinalScore:           finalScore,
			ExperienceGained:     xp.Gained,
			NewExperience:        xp.NewExperience,
			NewLevel:             xp.NewLevel,
			LeveledUp:            xp.LeveledUp,
			UnlockedAchievements: unlocked,
			CompletedAt:          *progress.CompletedAt,
		}

		perfect := lesson.TotalPoints > 0 && finalScore == lesson.TotalPoints
		events = append(events,
			shared.NewLessonCompletedEvent(cmd.UserID, cmd.LessonID, finalScore, perfect),
			shared.NewXPGainedEvent(cmd.UserID, cmd.LessonID, xp.Gained, xp.NewExperience),
		)
		if xp.LeveledUp {
			events = append(events, shared.NewLevelUpEvent(cmd.UserID, xp.OldLevel, xp.NewLevel))
		}
		for _, a := range unlocked {
			events = append(events, shared.NewAchievementUnlockedEvent(cmd.UserID, string(a.Type), a.Title))
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, events, nil
}

// grantUnlocks persists unlock candidates that do not already exist.
// A concurrent insert losing the dedup race is treated as already-unlocked,
// not as a failure.
func (h *CompleteLessonHandler) grantUnlocks(
	ctx context.Context,
	repos TxRepos,
	userID string,
	unlocks []progression.Unlock,
) ([]user.Achievement, error) {
	granted := make([]user.Achievement, 0, len(unlocks))

	for _, unlock := range unlocks {
		exists, err := repos.Achievements.Exists(ctx, userID, unlock.Type, unlock.LessonID, unlock.Title)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		achievement := user.Achievement{
			ID:          h.idGen.NewID(),
			UserID:      userID,
			Type:        unlock.Type,
			Title:       unlock.Title,
			Description: unlock.Description,
			Icon:        unlock.Icon,
			LessonID:    unlock.LessonID,
			UnlockedAt:  time.Now().UTC(),
		}
		if err := repos.Achievements.Create(ctx, &achievement); err != nil {
			if shared.IsConflict(err) {
				continue
			}
			return nil, err
		}
		granted = append(granted, achievement)
	}

	return granted, nil
}
