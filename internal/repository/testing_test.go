package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aimd54/questforge/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// A single connection keeps every caller on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	wrapped := &DB{db}
	if err := wrapped.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	t.Cleanup(func() { _ = wrapped.Close() })
	return wrapped
}

// createTestUser provisions a user with initial stats.
func createTestUser(t *testing.T, db *DB, id string) *models.User {
	t.Helper()

	user, err := NewUserRepository(db).GetOrCreate(context.Background(), id, id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestQuest stores an active quest for a user.
func createTestQuest(t *testing.T, db *DB, userID, task, difficulty, stat string, xp int) *models.Quest {
	t.Helper()

	quest := &models.Quest{
		UserID:       userID,
		OriginalTask: task,
		Title:        "Quest: " + task,
		Description:  "A test quest",
		Category:     models.CategoryGeneral,
		Difficulty:   difficulty,
		PrimaryStat:  stat,
		XPReward:     xp,
	}
	created, ok, err := NewQuestRepository(db).Create(context.Background(), quest)
	if err != nil {
		t.Fatalf("Failed to create test quest: %v", err)
	}
	if !ok {
		t.Fatalf("Expected quest %q to be newly created", task)
	}
	return created
}
