// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every migration
// applied. The database is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(":memory:")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Suppress logs in tests
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = database.Migrate(context.Background(), db, "sqlite", zap.NewNop())
	require.NoError(t, err, "Failed to run migrations")

	return db
}

// DatabaseHelper provides helper methods for database testing
type DatabaseHelper struct {
	db *gorm.DB
}

// NewDatabaseHelper creates a new database helper
func NewDatabaseHelper(db *gorm.DB) *DatabaseHelper {
	return &DatabaseHelper{db: db}
}

// CountRecords counts records in a table
func (h *DatabaseHelper) CountRecords(table string) (int64, error) {
	var count int64
	err := h.db.Table(table).Count(&count).Error
	return count, err
}

// CountWhere counts records in a table matching a condition
func (h *DatabaseHelper) CountWhere(table, whereClause string, args ...interface{}) (int64, error) {
	var count int64
	err := h.db.Table(table).Where(whereClause, args...).Count(&count).Error
	return count, err
}

// TruncateAllTables removes all rows while preserving structure
func (h *DatabaseHelper) TruncateAllTables() error {
	for _, table := range []string{"ratings", "recipes", "users"} {
		if err := h.db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}
