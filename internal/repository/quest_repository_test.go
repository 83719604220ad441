package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
)

func TestQuestRepository_Create_AssignsIDAndStatus(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1")

	quest := createTestQuest(t, db, "user-1", "Do laundry", models.DifficultyMedium, models.StatStrength, 50)

	assert.NotEmpty(t, quest.ID)
	assert.Equal(t, models.QuestStatusActive, quest.Status)
	assert.False(t, quest.CreatedAt.IsZero())
}

func TestQuestRepository_Create_DuplicateActiveTask(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")

	first := createTestQuest(t, db, "user-1", "Do laundry", models.DifficultyMedium, models.StatStrength, 50)

	dup := &models.Quest{UserID: "user-1", OriginalTask: "Do laundry", Title: "Other", XPReward: 30}
	got, created, err := repo.Create(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, got.ID)

	// Matching is case-sensitive.
	_, created, err = repo.Create(ctx, &models.Quest{UserID: "user-1", OriginalTask: "do laundry", Title: "x", XPReward: 30})
	require.NoError(t, err)
	assert.True(t, created)

	// Another owner may hold the same task.
	createTestUser(t, db, "user-2")
	_, created, err = repo.Create(ctx, &models.Quest{UserID: "user-2", OriginalTask: "Do laundry", Title: "x", XPReward: 30})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestQuestRepository_Create_AfterCompletionAllowsNewQuest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	store := NewProgressionStore(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")

	first := createTestQuest(t, db, "user-1", "Water plants", models.DifficultyEasy, models.StatStrength, 30)
	_, err := store.CompleteQuest(ctx, "user-1", first.ID)
	require.NoError(t, err)

	second, created, err := repo.Create(ctx, &models.Quest{UserID: "user-1", OriginalTask: "Water plants", Title: "Again", XPReward: 30})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestQuestRepository_ActiveTaskIndex(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "user-1")
	createTestQuest(t, db, "user-1", "Read a book", models.DifficultyHard, models.StatWisdom, 75)

	// Bypassing the lookup still hits the partial unique index.
	err := db.Create(&models.Quest{UserID: "user-1", OriginalTask: "Read a book", Title: "x", XPReward: 10, Status: models.QuestStatusActive}).Error
	assert.Error(t, err)
}

func TestQuestRepository_ListByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	store := NewProgressionStore(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")
	createTestUser(t, db, "user-2")

	q1 := createTestQuest(t, db, "user-1", "task one", models.DifficultyEasy, models.StatStrength, 30)
	createTestQuest(t, db, "user-1", "task two", models.DifficultyEasy, models.StatStrength, 30)
	createTestQuest(t, db, "user-2", "task three", models.DifficultyEasy, models.StatStrength, 30)
	_, err := store.CompleteQuest(ctx, "user-1", q1.ID)
	require.NoError(t, err)

	all, err := repo.ListByUser(ctx, "user-1", QuestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.ListByUser(ctx, "user-1", QuestFilter{Status: models.QuestStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "task two", active[0].OriginalTask)

	limited, err := repo.ListByUser(ctx, "user-1", QuestFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQuestRepository_UpdateText(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")
	quest := createTestQuest(t, db, "user-1", "task", models.DifficultyEasy, models.StatStrength, 30)

	updated, err := repo.UpdateText(ctx, quest.ID, "user-1", map[string]interface{}{"title": "New title"})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)

	_, err = repo.UpdateText(ctx, quest.ID, "someone-else", map[string]interface{}{"title": "Hijack"})
	assert.ErrorIs(t, err, apperrors.ErrNotFoundOrAlreadyCompleted)
}

func TestQuestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")
	quest := createTestQuest(t, db, "user-1", "task", models.DifficultyEasy, models.StatStrength, 30)

	assert.ErrorIs(t, repo.Delete(ctx, quest.ID, "user-2"), apperrors.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, quest.ID, "user-1"))

	_, err := repo.GetByID(ctx, quest.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuestRepository_Aggregates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	store := NewProgressionStore(db)
	ctx := context.Background()
	createTestUser(t, db, "user-1")

	epic := createTestQuest(t, db, "user-1", "slay", models.DifficultyEpic, models.StatStrength, 100)
	health := &models.Quest{UserID: "user-1", OriginalTask: "run", Title: "Run", Category: models.CategoryHealth,
		Difficulty: models.DifficultyMedium, PrimaryStat: models.StatEndurance, XPReward: 50}
	_, _, err := repo.Create(ctx, health)
	require.NoError(t, err)
	createTestQuest(t, db, "user-1", "pending", models.DifficultyEasy, models.StatStrength, 30)

	_, err = store.CompleteQuest(ctx, "user-1", epic.ID)
	require.NoError(t, err)
	_, err = store.CompleteQuest(ctx, "user-1", health.ID)
	require.NoError(t, err)

	agg, err := repo.Aggregates(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Completed)
	assert.Equal(t, 1, agg.EpicCompleted)
	assert.Equal(t, 2, agg.CategoriesExplored)
	assert.Equal(t, 1, agg.Active)
	require.Len(t, agg.CompletionTimes, 2)
	assert.WithinDuration(t, time.Now(), agg.CompletionTimes[1], time.Minute)
}

func TestQuestRepository_SaveReflection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuestRepository(db)
	createTestUser(t, db, "user-1")
	quest := createTestQuest(t, db, "user-1", "task", models.DifficultyEasy, models.StatStrength, 30)

	err := repo.SaveReflection(context.Background(), &models.QuestReflection{
		QuestID: quest.ID, UserID: "user-1", Reflection: "That was easier than expected",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.QuestReflection{}).Where("quest_id = ?", quest.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
