package business

import (
	"path/filepath"
	"testing"

	dbconfig "launchcontrol/pkg/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the global connection at a throwaway sqlite file.
// busy_timeout keeps concurrent writers queued instead of failing, which
// the gate-stamp race test depends on.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "launchcontrol_test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, dbconfig.Migrate(db))
	dbconfig.DB = db
}
