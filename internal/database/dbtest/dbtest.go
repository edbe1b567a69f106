// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-auth-api/internal/config"
	"github.com/yukikurage/task-auth-api/internal/database"
	"gorm.io/gorm"
)

// New returns a fresh, migrated in-memory SQLite database that is closed when
// the test finishes.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBDSN: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}
