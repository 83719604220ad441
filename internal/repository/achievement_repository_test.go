package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/models"
)

func TestAchievementRepository_Award_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAchievementRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")

	grant := Grant{Key: "first_quest", XPReward: 25, StatType: models.StatWisdom, StatBonus: 2}

	awarded, err := repo.Award(ctx, "user-1", grant)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = repo.Award(ctx, "user-1", grant)
	require.NoError(t, err)
	assert.False(t, awarded)

	user, err := users.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 25, user.TotalXP, "rewards are granted once")

	stats, err := users.GetStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats[models.StatWisdom])

	keys, err := repo.GetUnlockedKeys(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"first_quest": true}, keys)
}

func TestAchievementRepository_Award_RecomputesLevel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")
	require.NoError(t, db.Exec("UPDATE users SET total_xp = 990 WHERE id = ?", "user-1").Error)

	_, err := repo.Award(ctx, "user-1", Grant{Key: "xp_boost", XPReward: 50})
	require.NoError(t, err)

	user, err := NewUserRepository(db).GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1040, user.TotalXP)
	assert.Equal(t, 2, user.Level)
}

func TestAchievementRepository_GetUserAchievements(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")
	createTestUser(t, db, "user-2")

	_, err := repo.Award(ctx, "user-1", Grant{Key: "a"})
	require.NoError(t, err)
	_, err = repo.Award(ctx, "user-1", Grant{Key: "b"})
	require.NoError(t, err)
	_, err = repo.Award(ctx, "user-2", Grant{Key: "a"})
	require.NoError(t, err)

	rows, err := repo.GetUserAchievements(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
