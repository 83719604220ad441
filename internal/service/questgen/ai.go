package questgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/aimd54/questforge/internal/llm"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
)

// AI generation defaults.
const (
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 400
	DefaultTimeout     = 15 * time.Second

	maxTitleRunes  = 60
	truncatedRunes = 57
	maxAIBaseXP    = 100
)

// AIOptions tunes the model call.
type AIOptions struct {
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// AIGenerator asks a language model for a quest and normalises the answer.
type AIGenerator struct {
	provider llm.Provider
	opts     AIOptions
}

// NewAIGenerator creates an AI generator. Zero options take the defaults.
func NewAIGenerator(provider llm.Provider, opts AIOptions) *AIGenerator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &AIGenerator{provider: provider, opts: opts}
}

// aiQuest mirrors the model output. Numbers arrive as JSON numbers of any shape.
type aiQuest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	XPReward    float64 `json:"xp_reward"`
	Difficulty  string  `json:"difficulty"`
	Category    string  `json:"category"`
	PrimaryStat string  `json:"primary_stat"`
}

// Generate makes a single bounded model call. Any failure is returned to the
// caller; see FallbackGenerator for the silent fallback.
func (g *AIGenerator) Generate(ctx context.Context, req Request) (Draft, error) {
	req = req.normalize()

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildPrompt(req)),
		Schema:      questSchema,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		return Draft{}, err
	}

	var q aiQuest
	if err := json.Unmarshal(resp.Content, &q); err != nil {
		return Draft{}, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("decode quest: %w", err)}
	}
	if q.Title == "" || q.Description == "" || q.XPReward == 0 {
		return Draft{}, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("quest is missing title, description or xp_reward")}
	}

	return normalizeAIQuest(q, req), nil
}

func normalizeAIQuest(q aiQuest, req Request) Draft {
	draft := Draft{
		Title:       truncateTitle(q.Title),
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		PrimaryStat: q.PrimaryStat,
	}

	if !models.IsValidCategory(draft.Category) {
		draft.Category = models.CategoryGeneral
	}
	if !models.IsValidDifficulty(draft.Difficulty) {
		draft.Difficulty = models.DifficultyMedium
	}
	if !models.IsValidStat(draft.PrimaryStat) {
		draft.PrimaryStat = progression.ClassifyStat(req.Task, draft.Category)
	}

	base := max(models.MinQuestXP, min(maxAIBaseXP, int(q.XPReward)))
	multiplier := max(1, req.Level/5+1)
	draft.XPReward = min(models.MaxQuestXP, base*multiplier)

	return draft
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:truncatedRunes]) + "..."
}
