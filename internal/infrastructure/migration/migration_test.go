package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGooseStrategy_UpAndDown(t *testing.T) {
	db := openMemoryDB(t)
	strategy := NewGooseStrategy("sqlite", logger.NewNopLogger())

	require.NoError(t, strategy.Migrate(db))

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	version, err := strategy.GetVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Re-running is a no-op.
	require.NoError(t, strategy.Migrate(db))

	require.NoError(t, strategy.MigrateDown(db, 1))
	assert.False(t, db.Migrator().HasTable(&models.UsageDailyModel{}))
}

func TestManager_AutoMigrate(t *testing.T) {
	db := openMemoryDB(t)
	m := NewManager("sqlite", true, logger.NewNopLogger())
	assert.Equal(t, "gorm_auto_migrate", m.GetStrategy().GetName())

	require.NoError(t, m.Migrate(db))
	assert.True(t, db.Migrator().HasTable("usage_daily"))
	assert.True(t, db.Migrator().HasIndex(&models.ProjectModel{}, "uq_project_tenant_name"))
}
