package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/store/storetest"
)

// openSQLite returns a GormStore on a private in-memory database, migrated like production.
func openSQLite(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(store.Models()...))

	st := store.NewGormStore(db, 5*time.Second)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return st
}

func TestGormStoreContract(t *testing.T) {
	storetest.RunContract(t, openSQLite)
}
