package config

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/dailystreak/models"
)

func TestMigrateCreatesIndexesWithoutForeignKeys(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "second run is a no-op")

	assert.True(t, db.Migrator().HasIndex(&models.CheckIn{}, models.CheckInUserDateIndex))
	assert.True(t, db.Migrator().HasIndex(&models.ContentItem{}, models.ContentItemDateIndex))

	for _, table := range []string{"users", "content_items", "check_ins", "streak_states"} {
		var ddl string
		require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl).Error)
		require.NotEmpty(t, ddl, table)
		assert.NotContains(t, ddl, "REFERENCES", table)
	}
}
