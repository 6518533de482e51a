package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omkarspace/Doc-Check/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a throwaway sqlite database. A single connection keeps
// concurrent test writers from tripping over sqlite's lock.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, _, err := Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, testLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}
