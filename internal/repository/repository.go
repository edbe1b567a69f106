package repository

import (
	"context"

	"github.com/yukikurage/task-auth-api/internal/models"
)

// TaskRepository defines the interface for task data access. Every lookup and
// mutation is scoped to an owner.
type TaskRepository interface {
	// Create persists a new task
	Create(ctx context.Context, task *models.Task) error

	// FindOwned finds the task with id belonging to ownerID
	FindOwned(ctx context.Context, id, ownerID string) (*models.Task, error)

	// ListByOwner lists every task belonging to ownerID
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)

	// UpdateOwned writes fields to the task with id belonging to ownerID and
	// reports how many rows changed
	UpdateOwned(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error)

	// DeleteOwned removes the task with id belonging to ownerID and reports
	// how many rows were removed
	DeleteOwned(ctx context.Context, id, ownerID string) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
