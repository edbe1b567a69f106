package database

import (
	"fmt"

	"github.com/yukikurage/task-auth-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes creates the lookup indexes declared on the models if a previous
// schema version is missing them.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model any
		name  string
	}{
		// Owner-scoped listing and lookups
		{&models.Task{}, "idx_tasks_owner_id"},
		// Login lookups
		{&models.User{}, "idx_users_username"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
