package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/questforge/internal/models"
)

// AchievementRepository handles unlocked achievement records.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Grant describes the rewards attached to an achievement unlock.
type Grant struct {
	Key       string
	XPReward  int
	StatType  string
	StatBonus int
}

// GetUserAchievements returns a user's unlocked achievements, newest first.
func (r *AchievementRepository) GetUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("unlocked_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements for user %s: %w", userID, err)
	}
	return rows, nil
}

// GetUnlockedKeys returns the set of achievement keys a user has unlocked.
func (r *AchievementRepository) GetUnlockedKeys(ctx context.Context, userID string) (map[string]bool, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).Pluck("achievement_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocked keys for user %s: %w", userID, err)
	}

	unlocked := make(map[string]bool, len(keys))
	for _, k := range keys {
		unlocked[k] = true
	}
	return unlocked, nil
}

// Award records an unlock and grants its rewards in one transaction. It is
// idempotent: when the unlock already exists nothing is granted and awarded
// is false.
func (r *AchievementRepository) Award(ctx context.Context, userID string, grant Grant) (bool, error) {
	awarded := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.UserAchievement{
			UserID:         userID,
			AchievementKey: grant.Key,
			UnlockedAt:     time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_key"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		awarded = true

		if grant.XPReward > 0 {
			if _, err := addXP(tx, userID, grant.XPReward); err != nil {
				return err
			}
		}
		if grant.StatType != "" && grant.StatBonus > 0 {
			if err := upsertStat(tx, userID, grant.StatType, grant.StatBonus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to award achievement %s to user %s: %w", grant.Key, userID, err)
	}

	return awarded, nil
}
