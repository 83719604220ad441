package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(Options{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return p
}

func openAIChatResponse(content, finishReason string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finishReason,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var captured map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIChatResponse(`{"title":"Slay the Dragon","xp_reward":50}`, "stop"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System:      "You are a game master.",
		Messages:    UserPrompt("Do laundry"),
		Schema:      testSchema(),
		MaxTokens:   400,
		Temperature: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, 25, resp.Usage.OutputTokens)
	assert.Equal(t, "end", resp.StopReason)
	assert.JSONEq(t, `{"title":"Slay the Dragon","xp_reward":50}`, string(resp.Content))

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIProvider_SchemaViolation(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIChatResponse(`{"title":"No XP"}`, "stop"))
	})

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: testSchema()})

	var invErr *ErrInvalidResponse
	assert.True(t, errors.As(err, &invErr))
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIChatResponse(`{"title":"Sla`, "length"))
	})

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: testSchema()})

	var tokensErr *ErrMaxTokensExceeded
	assert.True(t, errors.As(err, &tokensErr))
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate limit exceeded", "type": "rate_limit_error"},
		})
	})

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})

	var rateErr *ErrRateLimit
	assert.True(t, errors.As(err, &rateErr))
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Internal error", "type": "server_error"},
		})
	})

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x")})

	var unavailable *ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavailable))
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(Options{})
	assert.Error(t, err)
}
