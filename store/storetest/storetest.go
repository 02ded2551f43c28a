// Package storetest provides a throwaway in-memory database for tests.
package storetest

import (
	"testing"

	"mess-management-api/config"
	"mess-management-api/logger"
	"mess-management-api/store"

	"gorm.io/gorm"
)

// NewDB opens a fresh, migrated in-memory sqlite database
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:", AutoMigrate: true}, logger.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// New returns a GormStore over a fresh in-memory database
func New(t testing.TB) *store.GormStore {
	t.Helper()
	return store.NewGormStore(NewDB(t))
}
