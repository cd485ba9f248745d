// Package catalog contains the content catalog: languages, lessons, and
// exercises. Catalog entities are read-mostly; they are authored out of band
// and consumed by the progression flow.
package catalog

import (
	"time"
)

// Language represents a language track users can enroll in.
type Language struct {
	// ID - internal UUID.
	ID string

	// Code - short unique code, e.g. "es", "de", "ja".
	Code string

	// Name - display name, e.g. "Spanish".
	Name string

	// Flag - emoji flag for display.
	Flag string

	// IsActive - inactive languages are hidden and reject enrollment.
	IsActive bool

	CreatedAt time.Time
}

// Lesson represents one unit of study within a language.
type Lesson struct {
	// ID - internal UUID.
	ID string

	// LanguageID - owning language.
	LanguageID string

	// Title - display title. Not an identity: two lessons may share a title.
	Title string

	// Description - short summary shown in lesson lists.
	Description string

	// Position - ordering within the language track.
	Position int

	// IsActive - inactive lessons reject completion attempts.
	IsActive bool

	// TotalPoints - sum of active exercise points. Denormalized by the
	// repository when loading; zero until populated.
	TotalPoints int

	CreatedAt time.Time
}

// ExerciseType enumerates the kinds of exercises a lesson can hold.
type ExerciseType string

const (
	ExerciseTranslate      ExerciseType = "translate"
	ExerciseMultipleChoice ExerciseType = "multiple_choice"
	ExerciseListening      ExerciseType = "listening"
	ExerciseMatchPairs     ExerciseType = "match_pairs"
)

// Exercise belongs to a lesson and contributes points to its total score.
type Exercise struct {
	// ID - internal UUID.
	ID string

	// LessonID - owning lesson.
	LessonID string

	// Type - exercise kind.
	Type ExerciseType

	// Prompt - the question or instruction shown to the user.
	Prompt string

	// Answer - the expected answer (grading happens client-side; the
	// reported score is clamped server-side).
	Answer string

	// Points - positive contribution to the lesson total.
	Points int

	// Position - ordering within the lesson.
	Position int

	// IsActive - inactive exercises are excluded from the lesson total.
	IsActive bool
}

// IsValid reports whether the exercise carries a positive point value.
func (e Exercise) IsValid() bool {
	return e.Points > 0 && e.LessonID != ""
}

// TotalPoints sums the points of active exercises.
func TotalPoints(exercises []Exercise) int {
	total := 0
	for _, e := range exercises {
		if e.IsActive {
			total += e.Points
		}
	}
	return total
}
