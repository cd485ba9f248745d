package command

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL / UNENROLL COMMANDS
// Enrollment is unique per (user, language): re-enrolling reactivates the
// existing row and refreshes its start date instead of duplicating it.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCommand enrolls a user into a language track.
type EnrollCommand struct {
	UserID       string
	LanguageCode string
}

// Validate validates the command.
func (c EnrollCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("command", "Enroll", shared.ErrInvalidInput, "user_id is required")
	}
	if c.LanguageCode == "" {
		return shared.NewDomainError("command", "Enroll", shared.ErrInvalidInput, "language_code is required")
	}
	return nil
}

// EnrollResult describes the created or reactivated enrollment.
type EnrollResult struct {
	EnrollmentID string
	LanguageID   string
	LanguageCode string
	Reactivated  bool
	StartedAt    time.Time
}

// EnrollHandler handles EnrollCommand.
type EnrollHandler struct {
	catalogRepo    catalog.Repository
	enrollmentRepo enrollment.Repository
	eventPublisher shared.EventPublisher
	idGen          IDGenerator
	log            *logger.Logger
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(
	catalogRepo catalog.Repository,
	enrollmentRepo enrollment.Repository,
	eventPublisher shared.EventPublisher,
	idGen IDGenerator,
	log *logger.Logger,
) *EnrollHandler {
	if log == nil {
		log = logger.Default()
	}
	return &EnrollHandler{
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		log:            log.With(logger.Component("enroll")),
	}
}

// Handle creates or reactivates an enrollment.
func (h *EnrollHandler) Handle(ctx context.Context, cmd EnrollCommand) (*EnrollResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	language, err := h.catalogRepo.GetLanguageByCode(ctx, cmd.LanguageCode)
	if err != nil {
		return nil, err
	}

	existing, err := h.enrollmentRepo.Get(ctx, cmd.UserID, language.ID)
	switch {
	case err == nil:
		if existing.IsActive {
			return nil, shared.ErrAlreadyEnrolled
		}
		existing.Reactivate()
		if err := h.enrollmentRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		h.publish(shared.NewEnrollmentEvent(shared.EventReactivated, cmd.UserID, language.Code))
		return &EnrollResult{
			EnrollmentID: existing.ID,
			LanguageID:   language.ID,
			LanguageCode: language.Code,
			Reactivated:  true,
			StartedAt:    existing.StartedAt,
		}, nil

	case shared.IsNotFound(err):
		e := enrollment.NewEnrollment(h.idGen.NewID(), cmd.UserID, language.ID)
		if err := h.enrollmentRepo.Create(ctx, e); err != nil {
			return nil, err
		}
		h.publish(shared.NewEnrollmentEvent(shared.EventEnrolled, cmd.UserID, language.Code))
		h.log.Info("user enrolled",
			logger.UserID(cmd.UserID),
			logger.LanguageCode(language.Code))
		return &EnrollResult{
			EnrollmentID: e.ID,
			LanguageID:   language.ID,
			LanguageCode: language.Code,
			StartedAt:    e.StartedAt,
		}, nil

	default:
		return nil, err
	}
}

func (h *EnrollHandler) publish(event shared.Event) {
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err))
	}
}

// UnenrollCommand soft-deactivates a user's enrollment.
type UnenrollCommand struct {
	UserID       string
	LanguageCode string
}

// Validate validates the command.
func (c UnenrollCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("command", "Unenroll", shared.ErrInvalidInput, "user_id is required")
	}
	if c.LanguageCode == "" {
		return shared.NewDomainError("command", "Unenroll", shared.ErrInvalidInput, "language_code is required")
	}
	return nil
}

// UnenrollHandler handles UnenrollCommand.
type UnenrollHandler struct {
	catalogRepo    catalog.Repository
	enrollmentRepo enrollment.Repository
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewUnenrollHandler creates a new UnenrollHandler.
func NewUnenrollHandler(
	catalogRepo catalog.Repository,
	enrollmentRepo enrollment.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *UnenrollHandler {
	if log == nil {
		log = logger.Default()
	}
	return &UnenrollHandler{
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("unenroll")),
	}
}

// Handle deactivates the active enrollment. Progress rows are kept: they
// become visible again on re-enrollment.
func (h *UnenrollHandler) Handle(ctx context.Context, cmd UnenrollCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	language, err := h.catalogRepo.GetLanguageByCode(ctx, cmd.LanguageCode)
	if err != nil {
		return err
	}

	e, err := h.enrollmentRepo.GetActive(ctx, cmd.UserID, language.ID)
	if err != nil {
		return err
	}

	e.Deactivate()
	if err := h.enrollmentRepo.Update(ctx, e); err != nil {
		return err
	}

	if err := h.eventPublisher.Publish(shared.NewEnrollmentEvent(shared.EventUnenrolled, cmd.UserID, language.Code)); err != nil {
		h.log.Warn("failed to publish event", logger.Err(err))
	}

	return nil
}
