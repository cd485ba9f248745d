package enrollment

import (
	"context"
)

// Repository defines persistence for enrollments.
type Repository interface {
	// Create inserts a new enrollment. Returns shared.ErrAlreadyEnrolled
	// on a duplicate (user, language) pair.
	Create(ctx context.Context, e *Enrollment) error

	// Get returns the enrollment for (user, language) regardless of its
	// active flag. Returns shared.ErrNotFound when absent.
	Get(ctx context.Context, userID, languageID string) (*Enrollment, error)

	// GetActive returns the active enrollment for (user, language).
	// Returns shared.ErrNotEnrolled when absent or inactive.
	GetActive(ctx context.Context, userID, languageID string) (*Enrollment, error)

	// GetByUser returns all active enrollments of a user.
	GetByUser(ctx context.Context, userID string) ([]*Enrollment, error)

	// Update persists the active flag, level, and started_at.
	Update(ctx context.Context, e *Enrollment) error
}

// ProgressRepository defines persistence for per-lesson progress.
type ProgressRepository interface {
	// Upsert inserts or overwrites the progress row keyed on
	// (user, lesson). Later completions win.
	Upsert(ctx context.Context, p *Progress) error

	// Get returns the progress for (user, lesson).
	// Returns shared.ErrProgressNotFound when absent.
	Get(ctx context.Context, userID, lessonID string) (*Progress, error)

	// GetByUser returns all progress rows of a user.
	GetByUser(ctx context.Context, userID string) ([]*Progress, error)

	// CountCompleted returns the number of completed lessons for a user.
	CountCompleted(ctx context.Context, userID string) (int, error)

	// CountCompletedByLanguage returns completed lesson counts for a user
	// within one language.
	CountCompletedByLanguage(ctx context.Context, userID, languageID string) (int, error)
}
