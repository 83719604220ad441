package questgen

import (
	"math/rand/v2"
	"strings"

	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
)

type templateBucket struct {
	keywords    []string
	category    string
	difficulty  string
	title       string
	description string
}

// templateBuckets are matched in order; the first keyword hit wins.
var templateBuckets = []templateBucket{
	{
		keywords:    []string{"exercise", "gym", "run", "workout"},
		category:    models.CategoryHealth,
		difficulty:  models.DifficultyMedium,
		title:       "Train with the Ancient Fitness Masters",
		description: "Channel your inner warrior and strengthen your body through the sacred rituals of physical training. Your muscles shall become as strong as dragon scales!",
	},
	{
		keywords:    []string{"clean", "tidy", "organize", "laundry"},
		category:    models.CategoryHome,
		difficulty:  models.DifficultyMedium,
		title:       "Purge the Chaos Demons from Your Domain",
		description: "Wield the legendary tools of cleansing to banish the forces of disorder from your sacred space. Restore harmony and claim victory!",
	},
	{
		keywords:    []string{"study", "read", "learn", "exam"},
		category:    models.CategoryEducation,
		difficulty:  models.DifficultyHard,
		title:       "Unlock the Forbidden Knowledge Scrolls",
		description: "Delve deep into the ancient texts to gain wisdom that will elevate your mind to new heights. Each page brings you closer to mastery!",
	},
	{
		keywords:    []string{"work", "meeting", "presentation", "project"},
		category:    models.CategoryCareer,
		difficulty:  models.DifficultyMedium,
		title:       "Complete the Professional Guild Mission",
		description: "Your expertise is needed to tackle this important quest for the Professional Guild. Show your mastery and earn the respect of your peers!",
	},
	{
		keywords:    []string{"cook", "meal", "recipe", "food"},
		category:    models.CategoryDailyLife,
		difficulty:  models.DifficultyEasy,
		title:       "Craft the Legendary Feast",
		description: "Channel the power of the ancient culinary arts to create sustenance worthy of heroes. Your kitchen shall become a temple of nourishment!",
	},
}

// GenericTitles are picked at random for tasks no bucket recognises.
var GenericTitles = []string{
	"Conquer the Challenge of Destiny",
	"Master the Art of Achievement",
	"Complete the Sacred Mission",
	"Triumph Over the Task of Power",
	"Fulfill the Quest of Heroes",
}

const genericDescription = "Brave adventurer, your quest awaits! Use your skills and determination to complete this important mission. Victory will bring great rewards and advance your heroic journey!"

// TemplateGenerator builds drafts from keyword templates. It does no I/O.
type TemplateGenerator struct {
	pick func(n int) int
}

// NewTemplateGenerator creates a template generator using a random title picker.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{pick: rand.IntN}
}

// NewTemplateGeneratorWithPicker creates a template generator with a custom
// picker for generic titles, returning an index in [0, n).
func NewTemplateGeneratorWithPicker(pick func(n int) int) *TemplateGenerator {
	return &TemplateGenerator{pick: pick}
}

// Generate builds a draft for task at the given level.
func (g *TemplateGenerator) Generate(task string, level int) Draft {
	lower := strings.ToLower(task)

	draft := Draft{
		Category:    models.CategoryGeneral,
		Difficulty:  models.DifficultyMedium,
		Description: genericDescription,
	}

	matched := false
	for _, b := range templateBuckets {
		if containsAny(lower, b.keywords) {
			draft.Category = b.category
			draft.Difficulty = b.difficulty
			draft.Title = b.title
			draft.Description = b.description
			matched = true
			break
		}
	}
	if !matched {
		draft.Title = GenericTitles[g.pick(len(GenericTitles))]
	}

	draft.PrimaryStat = progression.ClassifyStat(task, draft.Category)
	draft.XPReward = progression.ClampXP(progression.XPReward(draft.Difficulty, level))

	return draft
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
