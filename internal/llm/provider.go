// Package llm wraps the generative model providers behind one structured-output interface.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends a prompt to a language model and returns structured JSON.
type Provider interface {
	// Generate sends the request and returns the model output. When the
	// request carries a Schema, Content is validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier the provider is configured for.
	ModelID() string
}

// Request describes a single generation call.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON Schema a response must satisfy.
type Schema struct {
	// Name identifies the schema, e.g. "rpg-quest".
	Name        string
	Description string
	Definition  map[string]any
	// Strict asks providers that support it to reject extra fields.
	Strict bool
}

// Response is the model output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Usage tracks token consumption for a request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn message list.
func UserPrompt(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// resolveModel maps a friendly model name to a provider model ID, falling
// back to def when name is empty.
func resolveModel(name, def string, models map[string]string) string {
	if name == "" {
		name = def
	}
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
