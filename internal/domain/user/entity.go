// Package user содержит доменную модель пользователя LingoQuest.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package user

import (
	"strings"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет очки опыта пользователя.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level представляет уровень пользователя, вычисляемый из XP.
type Level int

// XPPerLevel - количество опыта на один уровень.
const XPPerLevel = 100

// CalculateLevel вычисляет уровень на основе XP.
// Формула: level = xp/100 + 1, минимальный уровень 1.
func CalculateLevel(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// Email представляет адрес электронной почты.
type Email string

// IsValid выполняет грубую проверку формата.
func (e Email) IsValid() bool {
	s := string(e)
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление.
func (e Email) String() string {
	return string(e)
}

// Username представляет отображаемое имя пользователя.
type Username string

// IsValid проверяет корректность имени.
func (u Username) IsValid() bool {
	s := string(u)
	return len(s) >= 2 && len(s) <= 50 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление.
func (u Username) String() string {
	return string(u)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User представляет пользователя платформы.
type User struct {
	// ID - внутренний UUID пользователя.
	ID string

	// Email - уникальный адрес почты.
	Email Email

	// Username - уникальное имя пользователя.
	Username Username

	// PasswordHash - bcrypt-хеш пароля.
	PasswordHash string

	// Avatar - URL аватара (может быть пустым).
	Avatar string

	// Experience - накопленный опыт. Никогда не уменьшается.
	Experience XP

	// Streak - текущая серия дней со входом.
	Streak int

	// BestStreak - лучшая серия за всё время.
	BestStreak int

	// LastLogin - время последнего входа, учтённого в серии (nil = ни разу).
	LastLogin *time.Time

	// Version - колонка оптимистической блокировки. Инкрементируется
	// при каждом UPDATE; несовпадение означает конкурентную запись.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser создаёт нового пользователя с нулевым прогрессом.
func NewUser(id string, email Email, username Username, passwordHash string) (*User, error) {
	if !email.IsValid() {
		return nil, shared.ErrInvalidEmail
	}
	if !username.IsValid() {
		return nil, shared.ErrInvalidUsername
	}
	now := time.Now().UTC()
	return &User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Experience:   0,
		Streak:       0,
		BestStreak:   0,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Level возвращает текущий уровень, производный от опыта.
// Инвариант: level == experience/100 + 1 после любой мутации.
func (u *User) Level() Level {
	return CalculateLevel(u.Experience)
}

// GainExperience добавляет опыт. Отрицательная дельта игнорируется:
// опыт монотонно неубывающий.
func (u *User) GainExperience(delta XP) {
	if delta <= 0 {
		return
	}
	u.Experience = u.Experience.Add(delta)
	u.UpdatedAt = time.Now().UTC()
}

// SetStreak обновляет серию и отметку последнего входа.
func (u *User) SetStreak(streak int, lastLogin time.Time) {
	if streak < 0 {
		streak = 0
	}
	u.Streak = streak
	if streak > u.BestStreak {
		u.BestStreak = streak
	}
	ll := lastLogin.UTC()
	u.LastLogin = &ll
	u.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementType представляет тип достижения.
type AchievementType string

const (
	// AchievementLevelUp - достигнут новый уровень.
	AchievementLevelUp AchievementType = "level_up"
	// AchievementPerfectScore - идеальный результат в уроке.
	AchievementPerfectScore AchievementType = "perfect_score"
	// AchievementStreak - серия непрерывных дней.
	AchievementStreak AchievementType = "streak"
	// AchievementLessonComplete - количество завершённых уроков.
	AchievementLessonComplete AchievementType = "lesson_complete"
)

// Achievement представляет полученное достижение. Запись неизменяема:
// создаётся один раз и никогда не обновляется и не удаляется.
type Achievement struct {
	// ID - внутренний UUID записи.
	ID string

	// UserID - владелец достижения.
	UserID string

	// Type - тип достижения.
	Type AchievementType

	// Title - отображаемый заголовок.
	Title string

	// Description - отображаемое описание.
	Description string

	// Icon - эмодзи или имя иконки.
	Icon string

	// LessonID - стабильный референт для урочных достижений
	// (perfect_score). Дедупликация идёт по (user, type, lesson),
	// а не по тексту заголовка. Для прочих типов - пустая строка.
	LessonID string

	// UnlockedAt - когда получено.
	UnlockedAt time.Time
}

// DedupKey возвращает ключ идемпотентности достижения.
// Для урочных достижений ключом служит идентификатор урока, чтобы два
// разных урока с одинаковым названием не склеивались в одну награду.
func (a Achievement) DedupKey() string {
	if a.LessonID != "" {
		return string(a.Type) + ":" + a.LessonID
	}
	return string(a.Type) + ":" + a.Title
}
