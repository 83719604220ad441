package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-quest",
		Description: "A test quest",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string"},
				"xp_reward":  map[string]any{"type": "integer"},
				"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard", "epic"}},
			},
			"required": []any{"title", "xp_reward"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"title":"Slay","xp_reward":50,"difficulty":"hard"}`},
		{name: "optional omitted", raw: `{"title":"Slay","xp_reward":50}`},
		{name: "missing required", raw: `{"title":"Slay"}`, wantErr: true},
		{name: "wrong type", raw: `{"title":"Slay","xp_reward":"fifty"}`, wantErr: true},
		{name: "invalid enum", raw: `{"title":"Slay","xp_reward":50,"difficulty":"legendary"}`, wantErr: true},
		{name: "malformed JSON", raw: `{"title":`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(testSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var invErr *ErrInvalidResponse
			assert.True(t, errors.As(err, &invErr))
		})
	}
}

func TestValidate_NilSchema(t *testing.T) {
	assert.NoError(t, Validate(nil, json.RawMessage(`not json`)))
}
