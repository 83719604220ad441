// Package questgen turns real-world tasks into RPG quest drafts, either from
// keyword templates or from a language model with a silent template fallback.
package questgen

import (
	"context"
	"strings"

	"github.com/aimd54/questforge/internal/models"
)

// Source identifies which generator produced a draft.
type Source string

// Draft sources.
const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
	SourceCache    Source = "cache"
)

// Request is a generation request.
type Request struct {
	Task           string
	Level          int
	CharacterClass string
	UseAI          bool
}

// normalize trims the task and fills level and class defaults.
func (r Request) normalize() Request {
	r.Task = strings.TrimSpace(r.Task)
	if r.Level < 1 {
		r.Level = 1
	}
	if r.CharacterClass == "" {
		r.CharacterClass = models.DefaultCharacterClass
	}
	return r
}

// Draft is a generated quest that has not been persisted yet.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	PrimaryStat string `json:"primary_stat"`
	XPReward    int    `json:"xp_reward"`
}

// Result is a draft together with the source that produced it.
type Result struct {
	Draft
	Source Source `json:"source"`
}

// Generator produces quest drafts. Implementations never fail: any upstream
// error is absorbed and answered with a template draft.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}
