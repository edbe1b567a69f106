package dto

import (
	"time"

	"github.com/yukikurage/task-auth-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash is never
// part of it.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	Token string `json:"token"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      models.TaskStatus `json:"status"`
	OwnerID     string            `json:"owner_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DeleteTaskResponse confirms a deletion
type DeleteTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// CredentialsRequest is the body of register and login requests
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateTaskRequest is the body of a create request. Status is a pointer so
// that a missing status can be told apart from an empty one.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		OwnerID:     task.OwnerID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks, returning an empty slice rather than nil
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
