package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository bound to the given querier.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id, email, username, password_hash, avatar, experience,
	   streak, best_streak, last_login, version, created_at, updated_at`

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, username, password_hash, avatar, experience,
			streak, best_streak, last_login, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.Exec(ctx, query,
		u.ID,
		u.Email.String(),
		u.Username.String(),
		u.PasswordHash,
		u.Avatar,
		int(u.Experience),
		u.Streak,
		u.BestStreak,
		u.LastLogin,
		u.Version,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRow(ctx, query, id))
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email user.Email) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.q.QueryRow(ctx, query, email.String()))
}

// Update persists the user with an optimistic version check. Zero rows
// affected means the stored version moved on under us: the caller must
// re-read and retry.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = $1,
			username = $2,
			password_hash = $3,
			avatar = $4,
			experience = $5,
			streak = $6,
			best_streak = $7,
			last_login = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $9 AND version = $10
	`

	result, err := r.q.Exec(ctx, query,
		u.Email.String(),
		u.Username.String(),
		u.PasswordHash,
		u.Avatar,
		int(u.Experience),
		u.Streak,
		u.BestStreak,
		u.LastLogin,
		u.ID,
		u.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrUserVersionStale
	}

	u.Version++
	return nil
}

// TopByExperience returns the users with the most experience.
func (r *UserRepository) TopByExperience(ctx context.Context, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY experience DESC, username ASC
		LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := r.scanUserFromRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var email, username string
	var experience int

	err := row.Scan(
		&u.ID,
		&email,
		&username,
		&u.PasswordHash,
		&u.Avatar,
		&experience,
		&u.Streak,
		&u.BestStreak,
		&u.LastLogin,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = user.Email(email)
	u.Username = user.Username(username)
	u.Experience = user.XP(experience)

	return &u, nil
}

func (r *UserRepository) scanUserFromRows(rows pgx.Rows) (*user.User, error) {
	var u user.User
	var email, username string
	var experience int

	err := rows.Scan(
		&u.ID,
		&email,
		&username,
		&u.PasswordHash,
		&u.Avatar,
		&experience,
		&u.Streak,
		&u.BestStreak,
		&u.LastLogin,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = user.Email(email)
	u.Username = user.Username(username)
	u.Experience = user.XP(experience)

	return &u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements user.AchievementRepository for PostgreSQL.
type AchievementRepository struct {
	q Querier
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(q Querier) *AchievementRepository {
	return &AchievementRepository{q: q}
}

// Create inserts an achievement. The partial unique indexes enforce the
// dedup rule, so a concurrent duplicate surfaces as ErrAchievementExists.
func (r *AchievementRepository) Create(ctx context.Context, a *user.Achievement) error {
	query := `
		INSERT INTO achievements (id, user_id, type, title, description, icon, lesson_id, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		a.ID,
		a.UserID,
		string(a.Type),
		a.Title,
		a.Description,
		a.Icon,
		a.LessonID,
		a.UnlockedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementExists
		}
		return fmt.Errorf("failed to create achievement: %w", err)
	}

	return nil
}

// GetByUser returns all achievements of a user, newest first.
func (r *AchievementRepository) GetByUser(ctx context.Context, userID string) ([]user.Achievement, error) {
	query := `
		SELECT id, user_id, type, title, description, icon, lesson_id, unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY unlocked_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []user.Achievement
	for rows.Next() {
		var a user.Achievement
		var achievementType string

		err := rows.Scan(&a.ID, &a.UserID, &achievementType, &a.Title, &a.Description, &a.Icon, &a.LessonID, &a.UnlockedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		a.Type = user.AchievementType(achievementType)
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}

// Exists checks whether an achievement with the same dedup key is present.
func (r *AchievementRepository) Exists(ctx context.Context, userID string, achievementType user.AchievementType, lessonID, title string) (bool, error) {
	var query string
	var key string

	if lessonID != "" {
		query = `SELECT EXISTS(SELECT 1 FROM achievements WHERE user_id = $1 AND type = $2 AND lesson_id = $3)`
		key = lessonID
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM achievements WHERE user_id = $1 AND type = $2 AND title = $3 AND lesson_id = '')`
		key = title
	}

	var exists bool
	err := r.q.QueryRow(ctx, query, userID, string(achievementType), key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement existence: %w", err)
	}

	return exists, nil
}

// CountPerfectScores returns how many lesson-scoped perfect scores a user
// has. Milestone badges carry an empty lesson_id and are excluded.
func (r *AchievementRepository) CountPerfectScores(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM achievements WHERE user_id = $1 AND type = $2 AND lesson_id <> ''",
		userID,
		string(user.AchievementPerfectScore),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}

	return count, nil
}
