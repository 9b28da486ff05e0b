// Package testutil holds the fixtures shared by the package tests: an
// in-memory database and backends that fail on demand.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-floor/config"
	"github.com/yeremiapane/restaurant-floor/models"
)

// OpenDB returns a migrated in-memory sqlite database private to t.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every connection to ":memory:" opens a fresh database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.AutoMigrate(db))
	return db
}

// SeedMenu inserts a small catalog: Nasi Goreng 25000, Es Teh 5000, and an
// unavailable Sate Ayam 30000.
func SeedMenu(t *testing.T, db *gorm.DB) []models.MenuItem {
	t.Helper()

	items := []models.MenuItem{
		{Name: "Nasi Goreng", Price: decimal.NewFromInt(25000), Available: true},
		{Name: "Es Teh", Price: decimal.NewFromInt(5000), Available: true},
		{Name: "Sate Ayam", Price: decimal.NewFromInt(30000), Available: false},
	}
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}
	return items
}

// SeedTables inserts one available table per capacity, numbered from 1.
func SeedTables(t *testing.T, db *gorm.DB, capacities ...int) []models.Table {
	t.Helper()

	tables := make([]models.Table, len(capacities))
	for i, c := range capacities {
		tables[i] = models.Table{TableNumber: i + 1, Capacity: c, Status: models.TableAvailable}
		require.NoError(t, db.Create(&tables[i]).Error)
	}
	return tables
}
