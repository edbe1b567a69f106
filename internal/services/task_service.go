package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/task-auth-api/internal/models"
	"github.com/yukikurage/task-auth-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidStatus = errors.New("invalid task status")
)

// TaskService handles task business logic. Every operation is scoped to the
// owner passed in by the caller.
type TaskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	OwnerID     string
	Title       string
	Description *string
	Status      *models.TaskStatus
}

// UpdateTaskInput represents a partial update. Nil fields keep their value;
// ClearDescription sets the description to null.
type UpdateTaskInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *models.TaskStatus
}

// ListTasks returns every task owned by ownerID, never nil
func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// GetTask returns ErrTaskNotFound whether the task is missing or owned by
// someone else.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, ErrTaskNotFound
	}

	task, err := s.taskRepo.FindOwned(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates input and persists a task owned by input.OwnerID
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == nil || !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      *input.Status,
		OwnerID:     input.OwnerID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask merges input into task and writes title, description and status
// in one owner-scoped statement. The stored row is returned.
func (s *TaskService) UpdateTask(ctx context.Context, task *models.Task, input UpdateTaskInput) (*models.Task, error) {
	title := task.Title
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		title = *input.Title
	}

	status := task.Status
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		status = *input.Status
	}

	description := task.Description
	switch {
	case input.ClearDescription:
		description = nil
	case input.Description != nil:
		description = input.Description
	}

	rows, err := s.taskRepo.UpdateOwned(ctx, task.ID, task.OwnerID, map[string]any{
		"title":       title,
		"description": description,
		"status":      status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if rows == 0 {
		return nil, ErrTaskNotFound
	}

	return s.GetTask(ctx, task.OwnerID, task.ID)
}

// DeleteTask hard deletes task
func (s *TaskService) DeleteTask(ctx context.Context, task *models.Task) error {
	rows, err := s.taskRepo.DeleteOwned(ctx, task.ID, task.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}
