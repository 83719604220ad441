package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
)

func TestUserRepository_GetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.GetOrCreate(ctx, "user-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, 0, user.TotalXP)
	assert.Equal(t, models.DefaultCharacterClass, user.CharacterClass)

	stats, err := repo.GetStats(ctx, "user-1")
	require.NoError(t, err)
	for _, stat := range models.Stats {
		assert.Equal(t, 1, stats[stat], stat)
	}

	// Second call must not reset anything.
	require.NoError(t, db.Exec("UPDATE users SET total_xp = 40 WHERE id = ?", "user-1").Error)
	again, err := repo.GetOrCreate(ctx, "user-1", "renamed")
	require.NoError(t, err)
	assert.Equal(t, 40, again.TotalXP)
	assert.Equal(t, "alice", again.Username)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	createTestUser(t, db, "user-1")

	updated, err := repo.UpdateProfile(context.Background(), "user-1", map[string]interface{}{
		"character_class": "Knowledge Seeker",
	})
	require.NoError(t, err)
	assert.Equal(t, "Knowledge Seeker", updated.CharacterClass)

	_, err = repo.UpdateProfile(context.Background(), "ghost", map[string]interface{}{"username": "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_ListIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	createTestUser(t, db, "a")
	createTestUser(t, db, "b")

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
