package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-auth-api/internal/database/dbtest"
	"github.com/yukikurage/task-auth-api/internal/models"
	"github.com/yukikurage/task-auth-api/internal/repository"
	"github.com/yukikurage/task-auth-api/internal/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskAccessTestSuite defines the test suite for RequireTaskAccess
type TaskAccessTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	alice  *models.User
	bob    *models.User
	task   *models.Task
}

// SetupTest runs before each test
func (suite *TaskAccessTestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())

	suite.alice = &models.User{Username: "alice", PasswordHash: "x"}
	suite.bob = &models.User{Username: "bob", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(suite.alice).Error)
	suite.Require().NoError(suite.db.Create(suite.bob).Error)

	suite.task = &models.Task{Title: "secret", Status: models.TaskStatusPending, OwnerID: suite.alice.ID}
	suite.Require().NoError(suite.db.Create(suite.task).Error)

	taskService := services.NewTaskService(repository.NewTaskRepository(suite.db))
	suite.router = newTaskRouter(taskService)
}

func newTaskRouter(taskService *services.TaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/tasks/:id", func(c *gin.Context) {
		if ownerID := c.GetHeader("X-Test-Owner"); ownerID != "" {
			c.Set(ContextKeyIdentity, Identity{OwnerID: ownerID})
		}
		c.Next()
	}, RequireTaskAccess(taskService), func(c *gin.Context) {
		task, ok := CurrentTask(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": task.ID})
	})
	return router
}

func (suite *TaskAccessTestSuite) request(ownerID, taskID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks/"+taskID, nil)
	if ownerID != "" {
		req.Header.Set("X-Test-Owner", ownerID)
	}
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskAccessTestSuite) TestOwnerAllowed() {
	w := suite.request(suite.alice.ID, suite.task.ID)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), suite.task.ID)
}

func (suite *TaskAccessTestSuite) TestOtherOwnerGetsNotFound() {
	foreign := suite.request(suite.bob.ID, suite.task.ID)
	missing := suite.request(suite.bob.ID, uuid.NewString())

	suite.Equal(http.StatusNotFound, foreign.Code)
	suite.Equal(http.StatusNotFound, missing.Code)
	suite.JSONEq(missing.Body.String(), foreign.Body.String())
	suite.Contains(foreign.Body.String(), MsgTaskNotFound)
}

func (suite *TaskAccessTestSuite) TestMalformedIDGetsNotFound() {
	w := suite.request(suite.alice.ID, "123")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskAccessTestSuite) TestMissingIdentity() {
	w := suite.request("", suite.task.ID)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestTaskAccessTestSuite(t *testing.T) {
	suite.Run(t, new(TaskAccessTestSuite))
}

func TestRequireTaskAccess_StorageFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tasks" WHERE id = $1 AND owner_id = $2`)).
		WillReturnError(context.DeadlineExceeded)

	router := newTaskRouter(services.NewTaskService(repository.NewTaskRepository(db)))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil)
	req.Header.Set("X-Test-Owner", "owner-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
