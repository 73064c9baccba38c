// Package repotest opens throwaway sqlite ledgers for tests.
package repotest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/migrations"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Epoch is the creation time of the first seeded post.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// NewLedger returns a migrated sqlite ledger with foreign keys enforced.
func NewLedger(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), repositories.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

// SeedUser inserts a user named name with a placeholder password hash.
func SeedUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedPosts inserts n posts by userID, one second apart starting at Epoch.
// The returned slice is in creation order.
func SeedPosts(t testing.TB, db *gorm.DB, userID uint, n int) []models.Post {
	t.Helper()
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := SeedPostAt(t, db, userID, fmt.Sprintf("post %d", i+1), Epoch.Add(time.Duration(i)*time.Second))
		posts = append(posts, *p)
	}
	return posts
}

// SeedPostAt inserts a post with an explicit creation time.
func SeedPostAt(t testing.TB, db *gorm.DB, userID uint, title string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Text:      "body of " + title,
		UserID:    userID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// VotesForPost returns every vote row stored for postID.
func VotesForPost(t testing.TB, db *gorm.DB, postID uint) []models.Vote {
	t.Helper()
	var votes []models.Vote
	require.NoError(t, db.Where("post_id = ?", postID).Find(&votes).Error)
	return votes
}
