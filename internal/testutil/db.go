// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"socialnet/internal/cache"
	"socialnet/internal/database"
	"socialnet/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Now is the clock used by test databases: UTC with microsecond precision so
// timestamps survive cursor round trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewSQLiteDB opens an isolated in-memory database with the full schema.
// A single connection keeps every statement on the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: Now,
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// StartMiniredis points the shared cache client at a fresh miniredis server.
func StartMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// CreateUser inserts a user with an empty profile.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: user.ID}).Error)
	return user
}

// CreatePost inserts a post authored by authorID at the given time.
func CreatePost(t *testing.T, db *gorm.DB, authorID uint, content string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Content: content, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, db.Omit("Author", "SharedPost").Create(post).Error)
	return post
}

// Follow inserts a follow edge.
func Follow(t *testing.T, db *gorm.DB, followerID, followingID uint, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: at}).Error)
}

// Count returns the number of rows of model matching where.
func Count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Model(model).Where(where, args...).Count(&n).Error)
	return n
}
