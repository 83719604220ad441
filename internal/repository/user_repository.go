package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
)

// UserRepository handles user and stat database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate returns the user with the given id, creating the user and their
// initial stats on first sight.
func (r *UserRepository) GetOrCreate(ctx context.Context, id, username string) (*models.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &models.User{
			ID:             id,
			Username:       username,
			CharacterClass: models.DefaultCharacterClass,
			Level:          1,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
			return err
		}

		stats := make([]models.UserStat, 0, len(models.Stats))
		for _, stat := range models.Stats {
			stats = append(stats, models.UserStat{UserID: id, StatName: stat, StatValue: models.InitialStatValue})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stats).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision user %s: %w", id, err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id %s: %w", id, err)
	}
	return &user, nil
}

// UpdateProfile updates the editable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ListIDs returns the ids of all users.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.User{}).Order("created_at ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// GetStats returns the user's stats keyed by stat name.
func (r *UserRepository) GetStats(ctx context.Context, userID string) (map[string]int, error) {
	var rows []models.UserStat
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for user %s: %w", userID, err)
	}

	stats := make(map[string]int, len(models.Stats))
	for _, stat := range models.Stats {
		stats[stat] = models.InitialStatValue
	}
	for _, row := range rows {
		stats[row.StatName] = row.StatValue
	}
	return stats, nil
}
