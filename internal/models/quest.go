// Package models defines domain models for the quest progression system.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quest statuses.
const (
	QuestStatusActive    = "active"
	QuestStatusCompleted = "completed"
	QuestStatusFailed    = "failed"
)

// Quest difficulties, ordered easy < medium < hard < epic.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyEpic   = "epic"
)

// Quest categories.
const (
	CategoryHealth    = "health"
	CategoryEducation = "education"
	CategoryCareer    = "career"
	CategoryHome      = "home"
	CategorySocial    = "social"
	CategoryCreative  = "creative"
	CategoryDailyLife = "daily_life"
	CategoryFinance   = "finance"
	CategoryGeneral   = "general"
)

// Quest XP bounds.
const (
	MinQuestXP = 10
	MaxQuestXP = 200
)

// MaxTaskLength is the longest accepted original task, in characters.
const MaxTaskLength = 500

// Difficulties lists valid difficulties in ascending order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyEpic}

// Categories lists valid quest categories.
var Categories = []string{
	CategoryHealth, CategoryEducation, CategoryCareer, CategoryHome, CategorySocial,
	CategoryCreative, CategoryDailyLife, CategoryFinance, CategoryGeneral,
}

// Quest represents a gamified real-world task owned by a user.
type Quest struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"not null;index;size:64" json:"user_id"`
	OriginalTask string     `gorm:"not null;size:500" json:"original_task"`
	Title        string     `gorm:"not null;size:255" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Category     string     `gorm:"not null;size:20;default:general" json:"category"`
	Difficulty   string     `gorm:"not null;size:10;default:medium" json:"difficulty"`
	PrimaryStat  string     `gorm:"not null;size:10;default:strength" json:"primary_stat"`
	XPReward     int        `gorm:"column:xp_reward;not null" json:"xp_reward"`
	Status       string     `gorm:"not null;size:20;default:active;index" json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Quest model.
func (Quest) TableName() string {
	return "quests"
}

// BeforeCreate assigns a UUID when none is set.
func (q *Quest) BeforeCreate(_ *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the quest can still be completed or failed.
func (q *Quest) IsActive() bool {
	return q.Status == QuestStatusActive
}

// QuestReflection is an optional note a user leaves after completing a quest.
type QuestReflection struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestID    string    `gorm:"not null;index;size:36" json:"quest_id"`
	UserID     string    `gorm:"not null;index;size:64" json:"user_id"`
	Reflection string    `gorm:"type:text;not null" json:"reflection"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for QuestReflection model.
func (QuestReflection) TableName() string {
	return "quest_reflections"
}

// CompletionResult describes the effects of completing a quest.
type CompletionResult struct {
	QuestID      string `json:"quest_id"`
	XPAwarded    int    `json:"xp_awarded"`
	NewTotalXP   int    `json:"new_total_xp"`
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	LevelUp      bool   `json:"level_up"`
	StatImproved string `json:"stat_improved"`
}

// IsValidDifficulty reports whether d is a known difficulty.
func IsValidDifficulty(d string) bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
