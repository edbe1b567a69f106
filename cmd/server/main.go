package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-auth-api/internal/config"
	"github.com/yukikurage/task-auth-api/internal/database"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/metrics"
	"github.com/yukikurage/task-auth-api/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	router, err := server.NewRouter(server.Deps{
		Config:  cfg,
		DB:      db,
		Logger:  log,
		Metrics: metrics.New(),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, log, srv, cfg.ShutdownTimeout); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return
	}
}
