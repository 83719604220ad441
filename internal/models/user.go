package models

import (
	"time"
)

// Character stats.
const (
	StatStrength  = "strength"
	StatWisdom    = "wisdom"
	StatEndurance = "endurance"
	StatCharisma  = "charisma"
)

// InitialStatValue is the value every stat starts at.
const InitialStatValue = 1

// Stats lists the four character stats.
var Stats = []string{StatStrength, StatWisdom, StatEndurance, StatCharisma}

// DefaultCharacterClass is assigned to new users.
const DefaultCharacterClass = "Life Adventurer"

// CharacterClasses lists the selectable character classes.
var CharacterClasses = []string{
	"Life Adventurer",
	"Productivity Warrior",
	"Wellness Guardian",
	"Knowledge Seeker",
	"Creative Mage",
	"Social Champion",
}

// User represents a player. ID is the subject of the caller's access token.
type User struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Username       string    `gorm:"size:255" json:"username"`
	CharacterClass string    `gorm:"size:50;not null;default:'Life Adventurer'" json:"character_class"`
	TotalXP        int       `gorm:"column:total_xp;not null;default:0" json:"total_xp"`
	Level          int       `gorm:"not null;default:1" json:"level"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// UserStat holds the value of one character stat for a user.
type UserStat struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;size:64;uniqueIndex:idx_user_stats_user_stat" json:"user_id"`
	StatName  string    `gorm:"not null;size:20;uniqueIndex:idx_user_stats_user_stat" json:"stat_name"`
	StatValue int       `gorm:"not null;default:1" json:"stat_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserStat model.
func (UserStat) TableName() string {
	return "user_stats"
}

// IsValidStat reports whether s is one of the four stats.
func IsValidStat(s string) bool {
	for _, v := range Stats {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidCharacterClass reports whether c is a selectable class.
func IsValidCharacterClass(c string) bool {
	for _, v := range CharacterClasses {
		if v == c {
			return true
		}
	}
	return false
}
