package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements enrollment.Repository for PostgreSQL.
type EnrollmentRepository struct {
	q Querier
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(q Querier) *EnrollmentRepository {
	return &EnrollmentRepository{q: q}
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, user_id, language_id, level, is_active, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query, e.ID, e.UserID, e.LanguageID, e.Level, e.IsActive, e.StartedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// Get returns the enrollment for (user, language) regardless of active flag.
func (r *EnrollmentRepository) Get(ctx context.Context, userID, languageID string) (*enrollment.Enrollment, error) {
	query := `
		SELECT id, user_id, language_id, level, is_active, started_at
		FROM enrollments
		WHERE user_id = $1 AND language_id = $2
	`
	return r.scanEnrollment(r.q.QueryRow(ctx, query, userID, languageID), shared.NewDomainError(
		"enrollment", "Get", shared.ErrNotFound, "enrollment not found"))
}

// GetActive returns the active enrollment for (user, language).
func (r *EnrollmentRepository) GetActive(ctx context.Context, userID, languageID string) (*enrollment.Enrollment, error) {
	query := `
		SELECT id, user_id, language_id, level, is_active, started_at
		FROM enrollments
		WHERE user_id = $1 AND language_id = $2 AND is_active
	`
	return r.scanEnrollment(r.q.QueryRow(ctx, query, userID, languageID), shared.ErrNotEnrolled)
}

// GetByUser returns all active enrollments of a user.
func (r *EnrollmentRepository) GetByUser(ctx context.Context, userID string) ([]*enrollment.Enrollment, error) {
	query := `
		SELECT id, user_id, language_id, level, is_active, started_at
		FROM enrollments
		WHERE user_id = $1 AND is_active
		ORDER BY started_at ASC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		var e enrollment.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.LanguageID, &e.Level, &e.IsActive, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &e)
	}

	return enrollments, rows.Err()
}

// Update persists the active flag, level, and started_at.
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	query := `
		UPDATE enrollments SET
			level = $1,
			is_active = $2,
			started_at = $3
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, e.Level, e.IsActive, e.StartedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("enrollment", "Update", shared.ErrNotFound, "enrollment not found")
	}

	return nil
}

func (r *EnrollmentRepository) scanEnrollment(row pgx.Row, notFound error) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.LanguageID, &e.Level, &e.IsActive, &e.StartedAt)

	if IsNoRows(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}

	return &e, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements enrollment.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	q Querier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(q Querier) *ProgressRepository {
	return &ProgressRepository{q: q}
}

// Upsert inserts or overwrites the progress row keyed on (user, lesson).
// TimeSpent is stored as nanoseconds.
func (r *ProgressRepository) Upsert(ctx context.Context, p *enrollment.Progress) error {
	query := `
		INSERT INTO progress (id, user_id, lesson_id, score, time_spent, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			score = EXCLUDED.score,
			time_spent = EXCLUDED.time_spent,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.LessonID,
		p.Score,
		int64(p.TimeSpent),
		p.Completed,
		p.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}

	return nil
}

// Get returns the progress for (user, lesson).
func (r *ProgressRepository) Get(ctx context.Context, userID, lessonID string) (*enrollment.Progress, error) {
	query := `
		SELECT id, user_id, lesson_id, score, time_spent, completed, completed_at
		FROM progress
		WHERE user_id = $1 AND lesson_id = $2
	`

	var p enrollment.Progress
	var timeSpent int64
	var completedAt *time.Time

	err := r.q.QueryRow(ctx, query, userID, lessonID).Scan(
		&p.ID, &p.UserID, &p.LessonID, &p.Score, &timeSpent, &p.Completed, &completedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress: %w", err)
	}

	p.TimeSpent = time.Duration(timeSpent)
	p.CompletedAt = completedAt

	return &p, nil
}

// GetByUser returns all progress rows of a user.
func (r *ProgressRepository) GetByUser(ctx context.Context, userID string) ([]*enrollment.Progress, error) {
	query := `
		SELECT id, user_id, lesson_id, score, time_spent, completed, completed_at
		FROM progress
		WHERE user_id = $1
		ORDER BY completed_at DESC NULLS LAST
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []*enrollment.Progress
	for rows.Next() {
		var p enrollment.Progress
		var timeSpent int64
		var completedAt *time.Time

		err := rows.Scan(&p.ID, &p.UserID, &p.LessonID, &p.Score, &timeSpent, &p.Completed, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}

		p.TimeSpent = time.Duration(timeSpent)
		p.CompletedAt = completedAt
		records = append(records, &p)
	}

	return records, rows.Err()
}

// CountCompleted returns the number of completed lessons for a user.
func (r *ProgressRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM progress WHERE user_id = $1 AND completed",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// CountCompletedByLanguage returns completed lesson counts within one language.
func (r *ProgressRepository) CountCompletedByLanguage(ctx context.Context, userID, languageID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1 AND p.completed AND l.language_id = $2
	`

	var count int
	err := r.q.QueryRow(ctx, query, userID, languageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons by language: %w", err)
	}
	return count, nil
}
