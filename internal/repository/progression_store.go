package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
)

// ProgressionStore applies quest state transitions and their XP and stat
// effects atomically.
type ProgressionStore struct {
	db  *DB
	now func() time.Time
}

// NewProgressionStore creates a new progression store.
func NewProgressionStore(db *DB) *ProgressionStore {
	return &ProgressionStore{db: db, now: time.Now}
}

// CompleteQuest marks an active quest completed, awards its XP to the owner,
// recomputes the owner's level and increments the quest's primary stat.
// Only one of several concurrent calls for the same quest succeeds; the others
// get apperrors.ErrNotFoundOrAlreadyCompleted.
func (s *ProgressionStore) CompleteQuest(ctx context.Context, userID, questID string) (*models.CompletionResult, error) {
	var result *models.CompletionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quest, err := transitionQuest(tx, userID, questID, models.QuestStatusCompleted, s.now().UTC())
		if err != nil {
			return err
		}

		newTotal, err := addXP(tx, userID, quest.XPReward)
		if err != nil {
			return err
		}

		if err := upsertStat(tx, userID, quest.PrimaryStat, 1); err != nil {
			return err
		}

		oldLevel, newLevel, levelUp := progression.DetectLevelUp(newTotal-quest.XPReward, newTotal)
		result = &models.CompletionResult{
			QuestID:      quest.ID,
			XPAwarded:    quest.XPReward,
			NewTotalXP:   newTotal,
			OldLevel:     oldLevel,
			NewLevel:     newLevel,
			LevelUp:      levelUp,
			StatImproved: quest.PrimaryStat,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundOrAlreadyCompleted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete quest %s: %w", questID, err)
	}

	return result, nil
}

// FailQuest marks an active quest failed. Failing grants nothing.
func (s *ProgressionStore) FailQuest(ctx context.Context, userID, questID string) (*models.Quest, error) {
	var quest *models.Quest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		quest, err = transitionQuest(tx, userID, questID, models.QuestStatusFailed, time.Time{})
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFoundOrAlreadyCompleted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fail quest %s: %w", questID, err)
	}

	return quest, nil
}

// UpsertStat adds delta to a user's stat, creating the stat row when absent.
func (s *ProgressionStore) UpsertStat(ctx context.Context, userID, stat string, delta int) error {
	if err := upsertStat(s.db.WithContext(ctx), userID, stat, delta); err != nil {
		return fmt.Errorf("failed to upsert stat %s for user %s: %w", stat, userID, err)
	}
	return nil
}

// transitionQuest moves an active quest to a terminal status using a
// compare-and-swap on status.
func transitionQuest(tx *gorm.DB, userID, questID, status string, completedAt time.Time) (*models.Quest, error) {
	updates := map[string]interface{}{"status": status}
	if !completedAt.IsZero() {
		updates["completed_at"] = completedAt
	}

	res := tx.Model(&models.Quest{}).
		Where("id = ? AND user_id = ? AND status = ?", questID, userID, models.QuestStatusActive).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFoundOrAlreadyCompleted
	}

	var quest models.Quest
	if err := tx.First(&quest, "id = ?", questID).Error; err != nil {
		return nil, err
	}
	return &quest, nil
}

// addXP increments a user's total XP, stores the derived level and returns
// the new total.
func addXP(tx *gorm.DB, userID string, xp int) (int, error) {
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("total_xp", gorm.Expr("total_xp + ?", xp))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}

	var user models.User
	if err := tx.Select("id", "total_xp").First(&user, "id = ?", userID).Error; err != nil {
		return 0, err
	}

	level := progression.LevelForXP(user.TotalXP)
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("level", level).Error; err != nil {
		return 0, err
	}
	return user.TotalXP, nil
}

func upsertStat(tx *gorm.DB, userID, stat string, delta int) error {
	row := models.UserStat{UserID: userID, StatName: stat, StatValue: delta}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"stat_value": gorm.Expr("user_stats.stat_value + ?", delta),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
}
