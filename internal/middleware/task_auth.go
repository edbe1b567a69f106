package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-auth-api/internal/errors"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/models"
	"github.com/yukikurage/task-auth-api/internal/services"
)

// ContextKeyTask is the gin context key holding the *models.Task loaded by
// RequireTaskAccess.
const ContextKeyTask = "task"

// MsgTaskNotFound is returned for missing tasks and tasks owned by others alike.
const MsgTaskNotFound = "Task not found"

// RequireTaskAccess loads the task named by the :id parameter for the current
// identity. A task that belongs to someone else is reported as not found.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			apierrors.Unauthorized(c, "", "")
			return
		}

		task, err := taskService.GetTask(c.Request.Context(), identity.OwnerID, c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, MsgTaskNotFound)
				return
			}
			logging.FromContext(c).WithError(err).Error("Failed to load task")
			apierrors.InternalError(c)
			return
		}

		c.Set(ContextKeyTask, task)
		c.Next()
	}
}

// CurrentTask returns the task loaded by RequireTaskAccess.
func CurrentTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(ContextKeyTask)
	if !exists {
		return nil, false
	}

	task, ok := value.(*models.Task)
	return task, ok
}
