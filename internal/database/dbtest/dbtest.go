// Package dbtest opens a migrated in-memory SQLite database for repository tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/database"
	"github.com/npek/portal/internal/migration"
)

var counter atomic.Int64

// Open returns a fresh schema per call; the database is dropped when the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		DSN:      fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", counter.Add(1)),
		LogLevel: "silent",
	}

	manager, err := database.NewManager(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	sqlDB, err := manager.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migration.Apply(sqlDB, database.DriverSQLite))

	return manager.DB()
}
