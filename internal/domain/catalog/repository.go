package catalog

import (
	"context"
)

// Repository defines read access to the content catalog.
type Repository interface {
	// GetLanguages returns all active languages ordered by name.
	GetLanguages(ctx context.Context) ([]Language, error)

	// GetLanguageByCode returns a language by its short code.
	// Returns shared.ErrLanguageNotFound when absent or inactive.
	GetLanguageByCode(ctx context.Context, code string) (*Language, error)

	// GetLanguageByID returns a language by internal ID.
	GetLanguageByID(ctx context.Context, id string) (*Language, error)

	// GetLesson returns an active lesson with TotalPoints populated from
	// its active exercises. Returns shared.ErrLessonNotFound when the
	// lesson is absent or inactive.
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	// GetLessonsByLanguage returns active lessons of a language in
	// position order, with TotalPoints populated.
	GetLessonsByLanguage(ctx context.Context, languageID string) ([]Lesson, error)

	// GetExercises returns the active exercises of a lesson in position order.
	GetExercises(ctx context.Context, lessonID string) ([]Exercise, error)

	// CountLessonsByLanguage returns the number of active lessons per language.
	CountLessonsByLanguage(ctx context.Context, languageID string) (int, error)
}
