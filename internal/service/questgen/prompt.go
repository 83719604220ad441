package questgen

import (
	"fmt"

	"github.com/aimd54/questforge/internal/llm"
)

const systemPrompt = "You are a creative RPG game master who transforms mundane real-world tasks into exciting fantasy quests. " +
	"Always return valid JSON. Make the quests feel achievable yet epic. " +
	"Carefully analyze each task to determine which character stat (strength, wisdom, endurance, charisma) it would most realistically improve."

const promptTemplate = `Transform this real-world task into an exciting RPG quest:

TASK: %q
USER LEVEL: %d
CHARACTER CLASS: %s

Create a motivating RPG quest that makes this task feel epic. The quest should:
- Have an exciting, fantasy-themed title (keep it under 60 characters)
- Include a compelling 2-3 sentence description with adventure elements
- Feel appropriately challenging for level %d
- Award XP based on task difficulty and user level (10-100 XP)
- Use RPG terminology (defeat, vanquish, master, conquer, etc.)
- Match the difficulty to the task complexity
- Determine which character stat this task would most improve

Character Stats Guide:
- STRENGTH: Physical tasks, cleaning, organizing, building, manual work
- WISDOM: Learning, studying, reading, research, creative work, problem-solving
- ENDURANCE: Exercise, sports, physical fitness, health-related activities
- CHARISMA: Social interactions, meetings, presentations, networking, communication

Return ONLY valid JSON in this exact format:
{
  "title": "Epic quest title with RPG flair",
  "description": "Compelling quest description with fantasy elements and motivation.",
  "xp_reward": 50,
  "difficulty": "medium",
  "category": "daily_life",
  "primary_stat": "strength"
}

Examples:
- "Do laundry" -> Title: "Cleanse the Cursed Garments", Category: "home", Primary Stat: "strength"
- "Go grocery shopping" -> Title: "Gather Resources from the Merchant's Bazaar", Category: "daily_life", Primary Stat: "strength"
- "Exercise for 30 minutes" -> Title: "Train with the Ancient Fitness Masters", Category: "health", Primary Stat: "endurance"
- "Study for exam" -> Title: "Unlock the Forbidden Knowledge Scrolls", Category: "education", Primary Stat: "wisdom"
- "Give a presentation" -> Title: "Address the Council of Nobles", Category: "career", Primary Stat: "charisma"

Categories: health, education, career, home, social, creative, daily_life, finance
Primary Stats: strength, wisdom, endurance, charisma`

// buildPrompt renders the user prompt for a normalized request.
func buildPrompt(req Request) string {
	return fmt.Sprintf(promptTemplate, req.Task, req.Level, req.CharacterClass, req.Level)
}

// questSchema only requires the fields a quest cannot do without; the rest
// are normalised after validation.
var questSchema = &llm.Schema{
	Name:        "rpg-quest",
	Description: "An RPG quest generated from a real-world task",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "minLength": 1},
			"description":  map[string]any{"type": "string", "minLength": 1},
			"xp_reward":    map[string]any{"type": "number"},
			"difficulty":   map[string]any{"type": "string"},
			"category":     map[string]any{"type": "string"},
			"primary_stat": map[string]any{"type": "string"},
		},
		"required": []any{"title", "description", "xp_reward"},
	},
}
