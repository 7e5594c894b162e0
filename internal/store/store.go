// Package store defines the per-user document store the goal service
// writes through, with memory, postgres and mongo backends.
package store

import (
	"context"
	"errors"

	"stickygoals/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store scopes every goal, milestone and journal operation by user id.
// Operations on ids that do not exist are no-ops rather than errors,
// except the explicit lookups (GetUser*, GetGoal, FindGoalByLabel).
type Store interface {
	// CreateUser inserts a new user and returns ErrConflict on a duplicate
	// id or email.
	CreateUser(ctx context.Context, u *models.User) error
	// EnsureUser inserts u unless a user with the same id already exists.
	// When u.Email belongs to a different user the row is stored with an
	// empty email instead of failing.
	EnsureUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateGoal assigns g.ID and g.CreatedAt.
	CreateGoal(ctx context.Context, g *models.Goal) error
	// ListGoals returns the user's goals newest first.
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error)
	FindGoalByLabel(ctx context.Context, userID, labelIndex string) (*models.Goal, error)
	// DeleteGoal removes every milestone of the goal in one batch and only
	// then the goal itself. Deleting a missing goal succeeds.
	DeleteGoal(ctx context.Context, userID, goalID string) error

	// CreateMilestone assigns m.ID and m.CreatedAt.
	CreateMilestone(ctx context.Context, m *models.Milestone) error
	// ListMilestones returns the goal's milestones oldest first.
	ListMilestones(ctx context.Context, userID, goalID string) ([]models.Milestone, error)
	SetMilestoneChecked(ctx context.Context, userID, goalID, milestoneID string, checked bool) error
	DeleteMilestone(ctx context.Context, userID, goalID, milestoneID string) error

	// CreateJournalEntry assigns e.ID and e.CreatedAt.
	CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error
	// ListJournalEntries returns the user's entries newest first.
	ListJournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
