package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
)

// QuestRepository handles quest-related database operations.
type QuestRepository struct {
	db *DB
}

// NewQuestRepository creates a new quest repository.
func NewQuestRepository(db *DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// QuestFilter narrows a quest listing.
type QuestFilter struct {
	Status string
	Limit  int
	Offset int
}

// QuestAggregates summarizes a user's completed quests.
type QuestAggregates struct {
	Completed          int
	EpicCompleted      int
	CategoriesExplored int
	Active             int
	CompletionTimes    []time.Time
}

// Create stores a new quest. When the owner already has an active quest for the
// same original task, that quest is returned and created is false.
func (r *QuestRepository) Create(ctx context.Context, quest *models.Quest) (*models.Quest, bool, error) {
	existing, err := r.findActiveByTask(ctx, quest.UserID, quest.OriginalTask)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if quest.Status == "" {
		quest.Status = models.QuestStatusActive
	}

	err = r.db.WithContext(ctx).Create(quest).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent create for the same task.
		existing, findErr := r.findActiveByTask(ctx, quest.UserID, quest.OriginalTask)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create quest: %w", err)
	}

	return quest, true, nil
}

func (r *QuestRepository) findActiveByTask(ctx context.Context, userID, task string) (*models.Quest, error) {
	var quest models.Quest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND original_task = ? AND status = ?", userID, task, models.QuestStatusActive).
		First(&quest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up active quest: %w", err)
	}
	return &quest, nil
}

// GetByID retrieves a quest by its id regardless of owner.
func (r *QuestRepository) GetByID(ctx context.Context, id string) (*models.Quest, error) {
	var quest models.Quest
	err := r.db.WithContext(ctx).First(&quest, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quest by id %s: %w", id, err)
	}
	return &quest, nil
}

// ListByUser retrieves a user's quests, newest first.
func (r *QuestRepository) ListByUser(ctx context.Context, userID string, filter QuestFilter) ([]models.Quest, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var quests []models.Quest
	if err := query.Order("created_at DESC").Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("failed to list quests for user %s: %w", userID, err)
	}
	return quests, nil
}

// UpdateText changes the title and description of an active quest.
func (r *QuestRepository) UpdateText(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.Quest, error) {
	result := r.db.WithContext(ctx).Model(&models.Quest{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.QuestStatusActive).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update quest %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFoundOrAlreadyCompleted
	}
	return r.GetByID(ctx, id)
}

// Delete removes a quest owned by the user.
func (r *QuestRepository) Delete(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Quest{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quest %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveReflection stores a completion reflection.
func (r *QuestRepository) SaveReflection(ctx context.Context, reflection *models.QuestReflection) error {
	if err := r.db.WithContext(ctx).Create(reflection).Error; err != nil {
		return fmt.Errorf("failed to save reflection for quest %s: %w", reflection.QuestID, err)
	}
	return nil
}

// Aggregates computes completion aggregates for a user.
func (r *QuestRepository) Aggregates(ctx context.Context, userID string) (*QuestAggregates, error) {
	db := r.db.WithContext(ctx)
	completed := db.Model(&models.Quest{}).
		Where("user_id = ? AND status = ?", userID, models.QuestStatusCompleted).
		Session(&gorm.Session{})

	var agg QuestAggregates
	var count int64

	if err := completed.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed quests: %w", err)
	}
	agg.Completed = int(count)

	if err := completed.Where("difficulty = ?", models.DifficultyEpic).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count epic quests: %w", err)
	}
	agg.EpicCompleted = int(count)

	if err := completed.Distinct("category").Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	agg.CategoriesExplored = int(count)

	if err := completed.Where("completed_at IS NOT NULL").
		Order("completed_at ASC").Pluck("completed_at", &agg.CompletionTimes).Error; err != nil {
		return nil, fmt.Errorf("failed to load completion times: %w", err)
	}

	if err := db.Model(&models.Quest{}).Where("user_id = ? AND status = ?", userID, models.QuestStatusActive).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count active quests: %w", err)
	}
	agg.Active = int(count)

	return &agg, nil
}
