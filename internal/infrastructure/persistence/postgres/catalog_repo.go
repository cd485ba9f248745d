package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lingoquest/lingoquest-backend/internal/domain/catalog"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Repository for PostgreSQL.
// Lesson totals come from a LEFT JOIN over active exercises, so TotalPoints
// is always populated on the way out.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(q Querier) *CatalogRepository {
	return &CatalogRepository{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// Languages
// ─────────────────────────────────────────────────────────────────────────────

// GetLanguages returns all active languages ordered by name.
func (r *CatalogRepository) GetLanguages(ctx context.Context) ([]catalog.Language, error) {
	query := `
		SELECT id, code, name, flag, is_active, created_at
		FROM languages
		WHERE is_active
		ORDER BY name ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer rows.Close()

	var languages []catalog.Language
	for rows.Next() {
		var l catalog.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Flag, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, l)
	}

	return languages, rows.Err()
}

// GetLanguageByCode returns an active language by its short code.
func (r *CatalogRepository) GetLanguageByCode(ctx context.Context, code string) (*catalog.Language, error) {
	query := `
		SELECT id, code, name, flag, is_active, created_at
		FROM languages
		WHERE code = $1 AND is_active
	`
	return r.scanLanguage(r.q.QueryRow(ctx, query, code))
}

// GetLanguageByID returns an active language by internal ID.
func (r *CatalogRepository) GetLanguageByID(ctx context.Context, id string) (*catalog.Language, error) {
	query := `
		SELECT id, code, name, flag, is_active, created_at
		FROM languages
		WHERE id = $1 AND is_active
	`
	return r.scanLanguage(r.q.QueryRow(ctx, query, id))
}

func (r *CatalogRepository) scanLanguage(row pgx.Row) (*catalog.Language, error) {
	var l catalog.Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.Flag, &l.IsActive, &l.CreatedAt)

	if IsNoRows(err) {
		return nil, shared.ErrLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan language: %w", err)
	}

	return &l, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lessons
// ─────────────────────────────────────────────────────────────────────────────

const lessonSelect = `
	SELECT l.id, l.language_id, l.title, l.description, l.position, l.is_active, l.created_at,
		   COALESCE(SUM(e.points) FILTER (WHERE e.is_active), 0) AS total_points
	FROM lessons l
	LEFT JOIN exercises e ON e.lesson_id = l.id
`

const lessonGroupBy = `
	GROUP BY l.id, l.language_id, l.title, l.description, l.position, l.is_active, l.created_at
`

// GetLesson returns an active lesson with its point total.
func (r *CatalogRepository) GetLesson(ctx context.Context, id string) (*catalog.Lesson, error) {
	query := lessonSelect + ` WHERE l.id = $1 AND l.is_active ` + lessonGroupBy

	var l catalog.Lesson
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.LanguageID, &l.Title, &l.Description, &l.Position, &l.IsActive, &l.CreatedAt, &l.TotalPoints,
	)

	if IsNoRows(err) {
		return nil, shared.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	return &l, nil
}

// GetLessonsByLanguage returns active lessons in position order.
func (r *CatalogRepository) GetLessonsByLanguage(ctx context.Context, languageID string) ([]catalog.Lesson, error) {
	query := lessonSelect + ` WHERE l.language_id = $1 AND l.is_active ` + lessonGroupBy + ` ORDER BY l.position ASC`

	rows, err := r.q.Query(ctx, query, languageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []catalog.Lesson
	for rows.Next() {
		var l catalog.Lesson
		err := rows.Scan(&l.ID, &l.LanguageID, &l.Title, &l.Description, &l.Position, &l.IsActive, &l.CreatedAt, &l.TotalPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	return lessons, rows.Err()
}

// CountLessonsByLanguage returns the number of active lessons in a language.
func (r *CatalogRepository) CountLessonsByLanguage(ctx context.Context, languageID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM lessons WHERE language_id = $1 AND is_active",
		languageID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Exercises
// ─────────────────────────────────────────────────────────────────────────────

// GetExercises returns the active exercises of a lesson in position order.
func (r *CatalogRepository) GetExercises(ctx context.Context, lessonID string) ([]catalog.Exercise, error) {
	query := `
		SELECT id, lesson_id, type, prompt, answer, points, position, is_active
		FROM exercises
		WHERE lesson_id = $1 AND is_active
		ORDER BY position ASC
	`

	rows, err := r.q.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []catalog.Exercise
	for rows.Next() {
		var e catalog.Exercise
		var exerciseType string

		err := rows.Scan(&e.ID, &e.LessonID, &exerciseType, &e.Prompt, &e.Answer, &e.Points, &e.Position, &e.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}

		e.Type = catalog.ExerciseType(exerciseType)
		exercises = append(exercises, e)
	}

	return exercises, rows.Err()
}
