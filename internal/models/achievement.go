package models

import (
	"time"
)

// UserAchievement records an achievement a user has unlocked.
type UserAchievement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"not null;size:64;uniqueIndex:idx_user_achievements_user_key" json:"user_id"`
	AchievementKey string    `gorm:"not null;size:100;uniqueIndex:idx_user_achievements_user_key" json:"achievement_key"`
	UnlockedAt     time.Time `gorm:"not null" json:"unlocked_at"`
}

// TableName specifies the table name for UserAchievement model.
func (UserAchievement) TableName() string {
	return "user_achievements"
}
