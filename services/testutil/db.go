package testutil

import (
	"testing"

	"creatorlink-platform/services/application"
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/tracking"
	"creatorlink-platform/services/transaction"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an in-memory sqlite database migrated with every service
// model. Connections are pinned to one so the memory database is not torn
// down between pooled connections.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&campaign.Campaign{},
		&application.Application{},
		&tracking.ViewTracking{},
		&transaction.Transaction{},
	))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
