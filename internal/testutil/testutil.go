// Package testutil builds throwaway in-memory stores and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/utils"
)

var seq atomic.Int64

// Config returns a configuration suitable for tests: SQLite, tiny retry delay,
// no stats memoization.
func Config(t *testing.T) *config.Config {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return &config.Config{
		Port:              "0",
		GinMode:           "test",
		DBDriver:          config.DriverSQLite,
		DatabaseURL:       fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1)),
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		StoreTimeout:      5 * time.Second,
		UploadDir:         t.TempDir(),
		MaxUploadSize:     10 << 20,
		CORSOrigins:       []string{"*"},
		VoteRetryAttempts: 20,
		VoteRetryDelay:    time.Millisecond,
	}
}

// SetupStore opens a fresh migrated in-memory database that is closed when the
// test ends.
func SetupStore(t *testing.T, cfg *config.Config) *db.Store {
	t.Helper()
	store, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// CreateUser inserts a user with the given role and password "password".
func CreateUser(t *testing.T, store *db.Store, name string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("password")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		Email:    fmt.Sprintf("%s-%d@example.com", strings.ToLower(name), seq.Add(1)),
		Name:     name,
		Password: hash,
		Role:     role,
	}
	if err := store.DB.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func CreateIdea(t *testing.T, store *db.Store, author *models.User, title string) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		Title:       title,
		Description: "Description of " + title,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
	}
	if err := store.DB.Create(idea).Error; err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}
	return idea
}

func CreatePoll(t *testing.T, store *db.Store, author *models.User, options []string, endsAt *time.Time) *models.Poll {
	t.Helper()
	poll := &models.Poll{
		Title:      "Poll",
		Options:    options,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		EndsAt:     endsAt,
	}
	if err := store.DB.Create(poll).Error; err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	return poll
}

func CreateComment(t *testing.T, store *db.Store, author *models.User, idea *models.Idea, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{IdeaID: idea.ID, UserID: author.ID, UserName: author.Name, Text: text}
	if err := store.DB.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}

func ReloadIdea(t *testing.T, store *db.Store, id string) *models.Idea {
	t.Helper()
	var idea models.Idea
	if err := store.DB.First(&idea, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload idea: %v", err)
	}
	return &idea
}

func ReloadPoll(t *testing.T, store *db.Store, id string) *models.Poll {
	t.Helper()
	var poll models.Poll
	if err := store.DB.First(&poll, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload poll: %v", err)
	}
	return &poll
}

func ReloadUser(t *testing.T, store *db.Store, id string) *models.User {
	t.Helper()
	var user models.User
	if err := store.DB.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	return &user
}

func Notifications(t *testing.T, store *db.Store, userID string) []models.Notification {
	t.Helper()
	var out []models.Notification
	if err := store.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("Failed to list notifications: %v", err)
	}
	return out
}
