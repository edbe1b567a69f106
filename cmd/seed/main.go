// Command seed creates a development user through the normal registration
// flow. It does nothing if the user already exists.
package main

import (
	"context"
	"errors"
	"flag"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-auth-api/internal/auth"
	"github.com/yukikurage/task-auth-api/internal/config"
	"github.com/yukikurage/task-auth-api/internal/database"
	"github.com/yukikurage/task-auth-api/internal/logging"
	"github.com/yukikurage/task-auth-api/internal/repository"
	"github.com/yukikurage/task-auth-api/internal/services"
)

func main() {
	username := flag.String("username", "testuser", "username to create")
	password := flag.String("password", "password123", "password for the user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTExpiresIn)
	if err != nil {
		log.WithError(err).Fatal("Failed to create token service")
	}
	authService := services.NewAuthService(repository.NewUserRepository(db), auth.NewBcryptHasher(), tokens)

	user, err := authService.Register(context.Background(), services.RegisterInput{
		Username: *username,
		Password: *password,
	})
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		log.WithField("username", *username).Info("Seed user already exists")
	case err != nil:
		log.WithError(err).Fatal("Failed to create seed user")
	default:
		log.WithFields(logrus.Fields{"username": user.Username, "user_id": user.ID}).Info("Seed user created")
	}
}
