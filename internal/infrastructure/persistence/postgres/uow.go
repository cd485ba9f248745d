package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lingoquest/lingoquest-backend/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements command.UnitOfWork on top of a pgx transaction.
// Repositories handed to fn are bound to the transaction, so every write in
// one completion commits or rolls back as a whole.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Within runs fn inside a read-write transaction.
func (u *UnitOfWork) Within(ctx context.Context, fn func(repos command.TxRepos) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(command.TxRepos{
			Users:        NewUserRepository(tx),
			Achievements: NewAchievementRepository(tx),
			Progress:     NewProgressRepository(tx),
			Enrollments:  NewEnrollmentRepository(tx),
		})
	})
}
