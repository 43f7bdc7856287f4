// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"thoughtwave/internal/config"
	"thoughtwave/internal/database"
	"thoughtwave/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an isolated, migrated in-memory SQLite database that is
// closed when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewSQLiteStore returns a Store over NewSQLiteDB.
func NewSQLiteStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewGormStore(NewSQLiteDB(t), config.DriverSQLite)
}
