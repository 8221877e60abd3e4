package testutil

import (
	"testing"
	"time"

	"github.com/craftlink/server/cache"
	"github.com/craftlink/server/config"
	dbadapter "github.com/craftlink/server/db"
	"github.com/craftlink/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: "file::memory:?cache=private",
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{}) // empty RedisAddr, local backend
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}

// SeedUser inserts a user with sensible defaults and returns it.
func SeedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	now := time.Now()
	u := &model.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		LastActiveAt: &now,
	}
	require.NoError(t, db.Create(u).Error, "SeedUser: %s", name)
	return u
}
