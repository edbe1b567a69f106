package repository

import (
	"context"

	"github.com/yukikurage/task-auth-api/internal/database"
	"github.com/yukikurage/task-auth-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindOwned returns gorm.ErrRecordNotFound both when the task does not exist
// and when it belongs to someone else.
func (r *GormTaskRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedRecord(id, ownerID)).
		Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOwner lists tasks in store order
func (r *GormTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateOwned updates the given columns in a single statement
func (r *GormTaskRepository) UpdateOwned(ctx context.Context, id, ownerID string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedRecord(id, ownerID)).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// DeleteOwned hard deletes the task
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Scopes(database.OwnedRecord(id, ownerID)).
		Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
