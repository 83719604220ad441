package progression

import (
	"github.com/aimd54/questforge/internal/models"
)

// XPPerLevel is the XP span of every level.
const XPPerLevel = 1000

var baseXP = map[string]int{
	models.DifficultyEasy:   30,
	models.DifficultyMedium: 50,
	models.DifficultyHard:   75,
	models.DifficultyEpic:   100,
}

const defaultBaseXP = 50

// XPReward computes a quest reward from its difficulty and the player's level.
func XPReward(difficulty string, level int) int {
	if level < 1 {
		level = 1
	}

	base, ok := baseXP[difficulty]
	if !ok {
		base = defaultBaseXP
	}

	return min(models.MaxQuestXP, base+(level/3)*10)
}

// ClampXP bounds an XP reward to the valid quest range.
func ClampXP(xp int) int {
	return max(models.MinQuestXP, min(models.MaxQuestXP, xp))
}

// LevelForXP derives a level from cumulative XP.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/XPPerLevel + 1
}

// LevelProgress describes how far a player is into their current level.
type LevelProgress struct {
	Level          int     `json:"level"`
	TotalXP        int     `json:"total_xp"`
	CurrentLevelXP int     `json:"current_level_xp"`
	ProgressXP     int     `json:"progress_xp"`
	NeededXP       int     `json:"needed_xp"`
	Percentage     float64 `json:"progress_percentage"`
}

// Progress computes level progress for a cumulative XP total.
func Progress(totalXP int) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelForXP(totalXP)
	current := (level - 1) * XPPerLevel
	progress := totalXP - current

	return LevelProgress{
		Level:          level,
		TotalXP:        totalXP,
		CurrentLevelXP: current,
		ProgressXP:     progress,
		NeededXP:       XPPerLevel,
		Percentage:     min(100, 100*float64(progress)/float64(XPPerLevel)),
	}
}

// DetectLevelUp compares levels before and after an XP award.
func DetectLevelUp(oldTotalXP, newTotalXP int) (oldLevel, newLevel int, levelUp bool) {
	oldLevel = LevelForXP(oldTotalXP)
	newLevel = LevelForXP(newTotalXP)
	return oldLevel, newLevel, newLevel != oldLevel
}

// DifficultyIcon returns the display icon for a difficulty.
func DifficultyIcon(difficulty string) string {
	switch difficulty {
	case models.DifficultyEasy:
		return "⚡"
	case models.DifficultyHard:
		return "🔥"
	case models.DifficultyEpic:
		return "👑"
	default:
		return "⭐"
	}
}
