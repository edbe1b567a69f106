// Package server assembles the HTTP API from its stores, services and
// handlers.
package server

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-auth-api/internal/auth"
	"github.com/yukikurage/task-auth-api/internal/config"
	"github.com/yukikurage/task-auth-api/internal/database"
	apierrors "github.com/yukikurage/task-auth-api/internal/errors"
	"github.com/yukikurage/task-auth-api/internal/handlers"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/metrics"
	"github.com/yukikurage/task-auth-api/internal/middleware"
	"github.com/yukikurage/task-auth-api/internal/repository"
	"github.com/yukikurage/task-auth-api/internal/services"
	"gorm.io/gorm"
)

// Deps are the long-lived resources the router is built from.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
}

// NewRouter wires repositories, services and handlers into a gin engine.
func NewRouter(deps Deps) (*gin.Engine, error) {
	tokens, err := auth.NewTokenService([]byte(deps.Config.JWTSecret), deps.Config.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	userRepo := repository.NewUserRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)

	authService := services.NewAuthService(userRepo, auth.NewBcryptHasher(), tokens)
	taskService := services.NewTaskService(taskRepo)

	authHandler := handlers.NewAuthHandler(authService, deps.Metrics)
	taskHandler := handlers.NewTaskHandler(taskService)
	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, deps.DB)
	})

	r := gin.New()
	r.Use(
		logging.RequestLogger(deps.Logger),
		gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
			logging.FromContext(c).WithField("panic", recovered).Error("Recovered from panic")
			apierrors.InternalError(c)
		}),
		deps.Metrics.Middleware(),
	)

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "")
	})

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Task routes (protected)
	tasks := r.Group("/tasks")
	tasks.Use(middleware.RequireAuth(tokens, deps.Metrics))
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", middleware.RequireTaskAccess(taskService), taskHandler.GetTask)
		tasks.PATCH("/:id", middleware.RequireTaskAccess(taskService), taskHandler.UpdateTask)
		tasks.DELETE("/:id", middleware.RequireTaskAccess(taskService), taskHandler.DeleteTask)
	}

	return r, nil
}
