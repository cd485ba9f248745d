package query

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG QUERIES
// Read views over languages and lessons. The lesson view merges the caller's
// progress when a user is known.
// ══════════════════════════════════════════════════════════════════════════════

// LanguageDTO is the public language listing entry.
type LanguageDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Flag        string `json:"flag"`
	LessonCount int    `json:"lesson_count"`
}

// ListLanguagesHandler returns the active language catalog.
type ListLanguagesHandler struct {
	catalogRepo catalog.Repository
}

// NewListLanguagesHandler creates the handler.
func NewListLanguagesHandler(catalogRepo catalog.Repository) *ListLanguagesHandler {
	return &ListLanguagesHandler{catalogRepo: catalogRepo}
}

// Handle lists active languages with their lesson counts.
func (h *ListLanguagesHandler) Handle(ctx context.Context) ([]LanguageDTO, error) {
	languages, err := h.catalogRepo.GetLanguages(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]LanguageDTO, 0, len(languages))
	for _, l := range languages {
		count, err := h.catalogRepo.CountLessonsByLanguage(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, LanguageDTO{
			Code:        l.Code,
			Name:        l.Name,
			Flag:        l.Flag,
			LessonCount: count,
		})
	}
	return out, nil
}

// ExerciseDTO is one exercise within a lesson view. The expected answer is
// included because grading happens client-side.
type ExerciseDTO struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Prompt   string `json:"prompt"`
	Answer   string `json:"answer"`
	Points   int    `json:"points"`
	Position int    `json:"position"`
}

// LessonProgressDTO is the caller's recorded progress on the lesson.
type LessonProgressDTO struct {
	Score       int        `json:"score"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LessonDTO is the lesson detail view.
type LessonDTO struct {
	ID          string             `json:"id"`
	LanguageID  string             `json:"language_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Position    int                `json:"position"`
	TotalPoints int                `json:"total_points"`
	Exercises   []ExerciseDTO      `json:"exercises"`
	Progress    *LessonProgressDTO `json:"progress,omitempty"`
}

// GetLessonQuery identifies the lesson and, optionally, the viewing user.
type GetLessonQuery struct {
	LessonID string

	// UserID merges the caller's progress into the view when non-empty.
	UserID string
}

// Validate checks the query parameters.
func (q GetLessonQuery) Validate() error {
	if q.LessonID == "" {
		return shared.NewDomainError("query", "GetLesson", shared.ErrInvalidInput, "lesson_id is required")
	}
	return nil
}

// GetLessonHandler handles GetLessonQuery.
type GetLessonHandler struct {
	catalogRepo  catalog.Repository
	progressRepo enrollment.ProgressRepository
}

// NewGetLessonHandler creates the handler.
func NewGetLessonHandler(catalogRepo catalog.Repository, progressRepo enrollment.ProgressRepository) *GetLessonHandler {
	return &GetLessonHandler{
		catalogRepo:  catalogRepo,
		progressRepo: progressRepo,
	}
}

// Handle returns the lesson with exercises, merging user progress when known.
func (h *GetLessonHandler) Handle(ctx context.Context, q GetLessonQuery) (*LessonDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	lesson, err := h.catalogRepo.GetLesson(ctx, q.LessonID)
	if err != nil {
		return nil, err
	}

	exercises, err := h.catalogRepo.GetExercises(ctx, q.LessonID)
	if err != nil {
		return nil, err
	}

	dto := &LessonDTO{
		ID:          lesson.ID,
		LanguageID:  lesson.LanguageID,
		Title:       lesson.Title,
		Description: lesson.Description,
		Position:    lesson.Position,
		TotalPoints: lesson.TotalPoints,
		Exercises:   make([]ExerciseDTO, 0, len(exercises)),
	}
	for _, e := range exercises {
		dto.Exercises = append(dto.Exercises, ExerciseDTO{
			ID:       e.ID,
			Type:     string(e.Type),
			Prompt:   e.Prompt,
			Answer:   e.Answer,
			Points:   e.Points,
			Position: e.Position,
		})
	}

	if q.UserID != "" {
		progress, err := h.progressRepo.Get(ctx, q.UserID, q.LessonID)
		switch {
		case err == nil:
			dto.Progress = &LessonProgressDTO{
				Score:       progress.Score,
				Completed:   progress.Completed,
				CompletedAt: progress.CompletedAt,
			}
		case shared.IsNotFound(err):
			// No progress yet, nothing to merge.
		default:
			return nil, err
		}
	}

	return dto, nil
}
