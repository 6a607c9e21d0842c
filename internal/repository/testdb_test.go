package repository

import (
	"testing"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the schema
// migrated and the promo codes seeded. The single connection keeps the
// database alive for the test's lifetime.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require.NoError(t, utils.InitSnowflake(0, 1))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newTestLink(t *testing.T, shortCode, originalURL string) *model.Link {
	t.Helper()
	return &model.Link{
		ID:          utils.MustGenerateID(),
		ShortCode:   shortCode,
		OriginalURL: originalURL,
	}
}
