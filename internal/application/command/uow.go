// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/lingoquest/lingoquest-backend/internal/domain/enrollment"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
)

// TxRepos bundles the repositories that participate in one transaction.
// All writes performed through a TxRepos instance commit or roll back
// together.
type TxRepos struct {
	Users        user.Repository
	Achievements user.AchievementRepository
	Progress     enrollment.ProgressRepository
	Enrollments  enrollment.Repository
}

// UnitOfWork runs a function against transaction-bound repositories.
// The transaction commits when fn returns nil and rolls back entirely on
// any error, so no observer ever sees partial state (experience updated
// without its achievement, or vice versa).
type UnitOfWork interface {
	Within(ctx context.Context, fn func(repos TxRepos) error) error
}

// IDGenerator produces unique IDs for new entities.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to the IDGenerator interface.
type IDGeneratorFunc func() string

// NewID implements IDGenerator.
func (f IDGeneratorFunc) NewID() string {
	return f()
}
