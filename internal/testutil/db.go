// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"warbler/internal/config"
	"warbler/internal/db"
)

// NewDB returns a migrated, private in-memory SQLite database with foreign
// keys enforced. It is closed when the test finishes.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open(config.Database{
		URL:          "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
		Driver:       db.DriverSQLite,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
