package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции CRUD для пользователей.
type Repository interface {
	// Create создаёт нового пользователя.
	// Возвращает ErrUserAlreadyExists при конфликте email или username.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по внутреннему ID.
	// Возвращает ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail возвращает пользователя по адресу почты.
	GetByEmail(ctx context.Context, email Email) (*User, error)

	// Update обновляет пользователя с проверкой версии.
	// Возвращает ErrUserVersionStale, если строка была изменена
	// конкурентно (version в базе не совпал с version в сущности).
	// При успехе инкрементирует u.Version.
	Update(ctx context.Context, u *User) error

	// TopByExperience возвращает пользователей с наибольшим опытом.
	TopByExperience(ctx context.Context, limit int) ([]*User, error)
}

// AchievementRepository определяет операции над достижениями.
// Достижения неизменяемы: только вставка и чтение.
type AchievementRepository interface {
	// Create вставляет достижение. Возвращает ErrAchievementExists,
	// если достижение с тем же ключом дедупликации уже есть.
	Create(ctx context.Context, a *Achievement) error

	// GetByUser возвращает все достижения пользователя,
	// отсортированные по времени получения (новые первыми).
	GetByUser(ctx context.Context, userID string) ([]Achievement, error)

	// Exists проверяет наличие достижения по ключу дедупликации:
	// (user, type, lessonID) для урочных, (user, type, title) для прочих.
	Exists(ctx context.Context, userID string, achievementType AchievementType, lessonID, title string) (bool, error)

	// CountPerfectScores возвращает количество идеальных прохождений,
	// привязанных к урокам. Вехи без lesson_id не учитываются.
	CountPerfectScores(ctx context.Context, userID string) (int, error)
}
