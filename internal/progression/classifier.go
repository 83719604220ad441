// Package progression holds the pure rules for stats, XP rewards and levels.
package progression

import (
	"strings"

	"github.com/aimd54/questforge/internal/models"
)

// statRule maps task keywords and category hints to a stat.
type statRule struct {
	stat       string
	keywords   []string
	categories []string
}

// statRules are evaluated in order; the first match wins.
var statRules = []statRule{
	{
		stat:       models.StatEndurance,
		keywords:   []string{"exercise", "workout", "gym", "run", "jog", "swim", "bike", "yoga", "fitness", "sport"},
		categories: []string{models.CategoryHealth},
	},
	{
		stat:       models.StatWisdom,
		keywords:   []string{"study", "read", "learn", "research", "book", "course", "exam", "homework", "practice", "skill"},
		categories: []string{models.CategoryEducation},
	},
	{
		stat: models.StatCharisma,
		keywords: []string{
			"call", "meet", "presentation", "interview", "networking", "social",
			"friend", "family", "date", "party", "collaborate",
		},
		categories: []string{models.CategorySocial, models.CategoryCareer},
	},
	{
		stat:       models.StatStrength,
		keywords:   []string{"clean", "organize", "build", "fix", "repair", "move", "lift", "carry", "install", "construct"},
		categories: []string{models.CategoryHome},
	},
	{
		stat:       models.StatWisdom,
		keywords:   []string{"write", "draw", "paint", "design", "create", "compose"},
		categories: []string{models.CategoryCreative},
	},
	{
		stat:       models.StatCharisma,
		keywords:   []string{"work", "project", "meeting", "email", "report"},
		categories: []string{models.CategoryCareer},
	},
	{
		stat:       models.StatWisdom,
		keywords:   []string{"budget", "bank", "money", "invest", "finance"},
		categories: []string{models.CategoryFinance},
	},
}

// categoryDefaults resolves a stat when no keyword rule matched.
var categoryDefaults = map[string]string{
	models.CategoryHealth:    models.StatEndurance,
	models.CategoryEducation: models.StatWisdom,
	models.CategorySocial:    models.StatCharisma,
	models.CategoryCareer:    models.StatCharisma,
	models.CategoryHome:      models.StatStrength,
	models.CategoryDailyLife: models.StatStrength,
	models.CategoryCreative:  models.StatWisdom,
	models.CategoryFinance:   models.StatWisdom,
}

// ClassifyStat picks the stat a task most improves. It never fails; tasks
// matching nothing resolve through the category table and finally to strength.
func ClassifyStat(task, category string) string {
	lower := strings.ToLower(task)

	for _, rule := range statRules {
		if rule.matches(lower, category) {
			return rule.stat
		}
	}

	if stat, ok := categoryDefaults[category]; ok {
		return stat
	}
	return models.StatStrength
}

func (r statRule) matches(lowerTask, category string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lowerTask, kw) {
			return true
		}
	}
	for _, c := range r.categories {
		if c == category {
			return true
		}
	}
	return false
}

// StatInfo is the display metadata for a stat.
type StatInfo struct {
	Stat string `json:"stat"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// GetStatInfo returns display metadata, falling back to strength for unknown stats.
func GetStatInfo(stat string) StatInfo {
	switch stat {
	case models.StatWisdom:
		return StatInfo{Stat: stat, Name: "Wisdom", Icon: "🧠"}
	case models.StatEndurance:
		return StatInfo{Stat: stat, Name: "Endurance", Icon: "❤️"}
	case models.StatCharisma:
		return StatInfo{Stat: stat, Name: "Charisma", Icon: "✨"}
	default:
		return StatInfo{Stat: models.StatStrength, Name: "Strength", Icon: "💪"}
	}
}
