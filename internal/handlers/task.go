package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-auth-api/internal/dto"
	apierrors "github.com/yukikurage/task-auth-api/internal/errors"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/middleware"
	"github.com/yukikurage/task-auth-api/internal/models"
	"github.com/yukikurage/task-auth-api/internal/services"
)

// fieldTypeError reports a field of an update body with the wrong JSON type.
type fieldTypeError struct {
	message string
}

func (e *fieldTypeError) Error() string { return e.message }

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns all tasks owned by the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "", "")
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), identity.OwnerID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.CurrentTask(c)
	if !ok {
		apierrors.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "", "")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidFormat, apierrors.MsgInvalidBody)
		return
	}

	input := services.CreateTaskInput{
		OwnerID:     identity.OwnerID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.CurrentTask(c)
	if !ok {
		apierrors.InternalError(c)
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidFormat, apierrors.MsgInvalidBody)
		return
	}

	input, err := parseUpdateTaskInput(rawReq)
	if err != nil {
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidFormat, err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.CurrentTask(c)
	if !ok {
		apierrors.InternalError(c)
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), task); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteTaskResponse{
		Message: fmt.Sprintf("Task %s deleted successfully", task.ID),
		ID:      task.ID,
	})
}

// parseUpdateTaskInput keeps only the fields present in the body. A null
// description clears it; null title or status is a type error.
func parseUpdateTaskInput(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if value, ok := raw["title"]; ok {
		title, ok := value.(string)
		if !ok {
			return input, &fieldTypeError{"Title must be a string"}
		}
		input.Title = &title
	}

	if value, ok := raw["description"]; ok {
		switch description := value.(type) {
		case nil:
			input.ClearDescription = true
		case string:
			input.Description = &description
		default:
			return input, &fieldTypeError{"Description must be a string or null"}
		}
	}

	if value, ok := raw["status"]; ok {
		status, ok := value.(string)
		if !ok {
			return input, &fieldTypeError{"Status must be one of: " + models.TaskStatusList()}
		}
		taskStatus := models.TaskStatus(status)
		input.Status = &taskStatus
	}

	return input, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, middleware.MsgTaskNotFound)
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, apierrors.ErrCodeMissingField, "Title is required")
	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequest(c, apierrors.ErrCodeInvalidInput, "Status must be one of: "+models.TaskStatusList())
	default:
		logging.FromContext(c).WithError(err).Error("Task request failed")
		apierrors.InternalError(c)
	}
}
