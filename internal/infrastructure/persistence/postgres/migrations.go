package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_catalog",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_enrollments_progress",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_achievements_sessions",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration 1: users
// ─────────────────────────────────────────────────────────────────────────────

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    avatar        TEXT NOT NULL DEFAULT '',
    experience    INTEGER NOT NULL DEFAULT 0 CHECK (experience >= 0),
    streak        INTEGER NOT NULL DEFAULT 0 CHECK (streak >= 0),
    best_streak   INTEGER NOT NULL DEFAULT 0 CHECK (best_streak >= 0),
    last_login    TIMESTAMP WITH TIME ZONE,
    version       BIGINT NOT NULL DEFAULT 1,
    created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_experience ON users (experience DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 2: languages, lessons, exercises
// ─────────────────────────────────────────────────────────────────────────────

const migration002Up = `
CREATE TABLE IF NOT EXISTS languages (
    id         TEXT PRIMARY KEY,
    code       TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    flag       TEXT NOT NULL DEFAULT '',
    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS lessons (
    id          TEXT PRIMARY KEY,
    language_id TEXT NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position    INTEGER NOT NULL DEFAULT 0,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lessons_language ON lessons (language_id, position);

CREATE TABLE IF NOT EXISTS exercises (
    id        TEXT PRIMARY KEY,
    lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    type      TEXT NOT NULL,
    prompt    TEXT NOT NULL DEFAULT '',
    answer    TEXT NOT NULL DEFAULT '',
    points    INTEGER NOT NULL CHECK (points > 0),
    position  INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_exercises_lesson ON exercises (lesson_id, position);
`

const migration002Down = `
DROP TABLE IF EXISTS exercises;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS languages;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 3: enrollments, progress
// ─────────────────────────────────────────────────────────────────────────────

const migration003Up = `
CREATE TABLE IF NOT EXISTS enrollments (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    language_id TEXT NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
    level       INTEGER NOT NULL DEFAULT 1,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    started_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, language_id)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments (user_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS progress (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    lesson_id    TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    score        INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
    time_spent   BIGINT NOT NULL DEFAULT 0,
    completed    BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    UNIQUE (user_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_progress_user ON progress (user_id) WHERE completed;
`

const migration003Down = `
DROP TABLE IF EXISTS progress;
DROP TABLE IF EXISTS enrollments;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 4: achievements, sessions
// ─────────────────────────────────────────────────────────────────────────────

// Achievements are immutable. The dedup index pair encodes the idempotency
// rule: lesson-scoped awards key on (user, type, lesson), the rest key on
// (user, type, title).
const migration004Up = `
CREATE TABLE IF NOT EXISTS achievements (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type        TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon        TEXT NOT NULL DEFAULT '',
    lesson_id   TEXT NOT NULL DEFAULT '',
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_achievements_lesson_dedup
    ON achievements (user_id, type, lesson_id) WHERE lesson_id <> '';

CREATE UNIQUE INDEX IF NOT EXISTS idx_achievements_title_dedup
    ON achievements (user_id, type, title) WHERE lesson_id = '';

CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements (user_id, unlocked_at DESC);

CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    revoked    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id);
`

const migration004Down = `
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS achievements;
`
