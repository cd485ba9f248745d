// Package enrollment contains the user-language enrollment aggregate and the
// per-lesson progress records it governs.
package enrollment

import (
	"time"
)

// Enrollment represents a user's registration in a language track.
// Unique per (user, language); re-enrollment reactivates rather than
// duplicates.
type Enrollment struct {
	// ID - internal UUID.
	ID string

	// UserID - the enrolled user.
	UserID string

	// LanguageID - the language track.
	LanguageID string

	// Level - per-language level, independent of the user's global level.
	Level int

	// IsActive - false after unenroll; flipped back on re-enroll.
	IsActive bool

	// StartedAt - when the enrollment was (re)activated.
	StartedAt time.Time
}

// NewEnrollment creates an active enrollment starting now.
func NewEnrollment(id, userID, languageID string) *Enrollment {
	return &Enrollment{
		ID:         id,
		UserID:     userID,
		LanguageID: languageID,
		Level:      1,
		IsActive:   true,
		StartedAt:  time.Now().UTC(),
	}
}

// Deactivate soft-deletes the enrollment.
func (e *Enrollment) Deactivate() {
	e.IsActive = false
}

// Reactivate re-enables the enrollment and refreshes StartedAt.
func (e *Enrollment) Reactivate() {
	e.IsActive = true
	e.StartedAt = time.Now().UTC()
}

// Progress records a user's outcome for one lesson. Unique per
// (user, lesson); later completions overwrite score, time, and timestamp.
type Progress struct {
	// ID - internal UUID.
	ID string

	// UserID - the user.
	UserID string

	// LessonID - the lesson.
	LessonID string

	// Score - clamped final score, 0 <= Score <= lesson total.
	Score int

	// TimeSpent - non-negative duration reported by the client.
	TimeSpent time.Duration

	// Completed - true once any completion is recorded.
	Completed bool

	// CompletedAt - set when Completed transitions to true, refreshed on
	// repeat completions.
	CompletedAt *time.Time
}

// NewProgress creates a completed progress record for a lesson.
func NewProgress(id, userID, lessonID string, score int, timeSpent time.Duration) *Progress {
	if timeSpent < 0 {
		timeSpent = 0
	}
	now := time.Now().UTC()
	return &Progress{
		ID:          id,
		UserID:      userID,
		LessonID:    lessonID,
		Score:       score,
		TimeSpent:   timeSpent,
		Completed:   true,
		CompletedAt: &now,
	}
}
