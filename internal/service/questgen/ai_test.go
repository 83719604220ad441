package questgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/llm"
	"github.com/aimd54/questforge/internal/models"
)

func aiResponse(content string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(content)}
}

func TestAIGenerator_HappyPath(t *testing.T) {
	mock := llm.NewMockProvider(aiResponse(`{
		"title": "Cleanse the Cursed Garments",
		"description": "The garments are cursed. Wash them clean.",
		"xp_reward": 40,
		"difficulty": "easy",
		"category": "home",
		"primary_stat": "strength"
	}`))
	gen := NewAIGenerator(mock, AIOptions{})

	draft, err := gen.Generate(context.Background(), Request{Task: "Do laundry", Level: 1})
	require.NoError(t, err)

	assert.Equal(t, "Cleanse the Cursed Garments", draft.Title)
	assert.Equal(t, models.CategoryHome, draft.Category)
	assert.Equal(t, models.DifficultyEasy, draft.Difficulty)
	assert.Equal(t, models.StatStrength, draft.PrimaryStat)
	assert.Equal(t, 40, draft.XPReward)

	require.Len(t, mock.Calls, 1)
	call := mock.Calls[0]
	assert.Equal(t, systemPrompt, call.System)
	assert.Equal(t, DefaultTemperature, call.Temperature)
	assert.Equal(t, DefaultMaxTokens, call.MaxTokens)
	assert.Contains(t, call.Messages[0].Content, `TASK: "Do laundry"`)
	assert.Contains(t, call.Messages[0].Content, "CHARACTER CLASS: Life Adventurer")
	assert.Equal(t, questSchema, call.Schema)
}

func TestAIGenerator_XPScaling(t *testing.T) {
	tests := []struct {
		name  string
		xp    int
		level int
		want  int
	}{
		{"level 1 no multiplier", 50, 1, 50},
		{"level 5 doubles", 50, 5, 100},
		{"level 10 triples", 50, 10, 150},
		{"capped at 200", 100, 20, 200},
		{"base clamped up to 10", 3, 1, 10},
		{"base clamped down to 100", 500, 1, 100},
		{"negative base clamped", -20, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := json.Marshal(map[string]any{
				"title": "Quest", "description": "Desc", "xp_reward": tt.xp,
			})
			require.NoError(t, err)
			gen := NewAIGenerator(llm.NewMockProvider(llm.MockResponse{Content: content}), AIOptions{})

			draft, err := gen.Generate(context.Background(), Request{Task: "Do laundry", Level: tt.level})
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.XPReward)
		})
	}
}

func TestAIGenerator_NormalisesFields(t *testing.T) {
	mock := llm.NewMockProvider(aiResponse(`{
		"title": "Quest",
		"description": "Desc",
		"xp_reward": 50,
		"difficulty": "legendary",
		"category": "adventure",
		"primary_stat": "luck"
	}`))
	gen := NewAIGenerator(mock, AIOptions{})

	draft, err := gen.Generate(context.Background(), Request{Task: "Go for a run", Level: 1})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryGeneral, draft.Category)
	assert.Equal(t, models.DifficultyMedium, draft.Difficulty)
	assert.Equal(t, models.StatEndurance, draft.PrimaryStat)
}

func TestAIGenerator_TruncatesLongTitle(t *testing.T) {
	title := strings.Repeat("Ä", 80)
	content, err := json.Marshal(map[string]any{"title": title, "description": "Desc", "xp_reward": 50})
	require.NoError(t, err)
	gen := NewAIGenerator(llm.NewMockProvider(llm.MockResponse{Content: content}), AIOptions{})

	draft, err := gen.Generate(context.Background(), Request{Task: "x", Level: 1})
	require.NoError(t, err)

	assert.Equal(t, 60, utf8.RuneCountInString(draft.Title))
	assert.True(t, strings.HasSuffix(draft.Title, "..."))
	assert.Equal(t, strings.Repeat("Ä", 57)+"...", draft.Title)
}

func TestAIGenerator_KeepsSixtyRuneTitle(t *testing.T) {
	title := strings.Repeat("a", 60)
	content, err := json.Marshal(map[string]any{"title": title, "description": "Desc", "xp_reward": 50})
	require.NoError(t, err)
	gen := NewAIGenerator(llm.NewMockProvider(llm.MockResponse{Content: content}), AIOptions{})

	draft, err := gen.Generate(context.Background(), Request{Task: "x", Level: 1})
	require.NoError(t, err)
	assert.Equal(t, title, draft.Title)
}

func TestAIGenerator_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"malformed JSON", aiResponse(`{"title": "Quest", `)},
		{"missing title", aiResponse(`{"description": "Desc", "xp_reward": 50}`)},
		{"empty description", aiResponse(`{"title": "Quest", "description": "", "xp_reward": 50}`)},
		{"zero xp", aiResponse(`{"title": "Quest", "description": "Desc", "xp_reward": 0}`)},
		{"provider error", llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewAIGenerator(llm.NewMockProvider(tt.resp), AIOptions{})

			_, err := gen.Generate(context.Background(), Request{Task: "Do laundry", Level: 1})
			assert.Error(t, err)
		})
	}
}

func TestAIGenerator_FractionalXPIsClamped(t *testing.T) {
	gen := NewAIGenerator(llm.NewMockProvider(aiResponse(
		`{"title": "Quest", "description": "Desc", "xp_reward": 0.5, "difficulty": "easy", "category": "home"}`,
	)), AIOptions{})

	draft, err := gen.Generate(context.Background(), Request{Task: "Do laundry", Level: 1})

	require.NoError(t, err)
	assert.Equal(t, models.MinQuestXP, draft.XPReward)
}

func TestAIGenerator_Timeout(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"title":"Quest","description":"Desc","xp_reward":50}`),
		Delay:   time.Second,
	})
	gen := NewAIGenerator(mock, AIOptions{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := gen.Generate(context.Background(), Request{Task: "Do laundry"})

	require.Error(t, err)
	assert.Equal(t, "timeout", llm.Reason(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
