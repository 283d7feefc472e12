// Package repotest opens throwaway gorm stores for tests.
package repotest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vidhub/internal/app"
	"vidhub/internal/repository"
)

// NewSQLite returns a migrated in-memory database private to t.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewStore wires the gorm implementations over a fresh database.
func NewStore(t *testing.T) app.Store {
	t.Helper()
	db := NewSQLite(t)
	return app.Store{
		Users:         repository.NewUserRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Videos:        repository.NewVideoRepository(db),
		Profiles:      repository.NewProfileQueries(db),
	}
}
