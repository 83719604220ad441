package questgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/aimd54/questforge/internal/llm"
	"github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

// DraftCache stores AI drafts between identical requests.
type DraftCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// FallbackGenerator tries the AI generator and answers with a template draft
// whenever it is disabled, not requested, or fails for any reason.
type FallbackGenerator struct {
	ai       *AIGenerator
	template *TemplateGenerator
	cache    DraftCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewFallbackGenerator creates the generator. ai and cache may be nil.
func NewFallbackGenerator(ai *AIGenerator, template *TemplateGenerator, cache DraftCache, cacheTTL time.Duration, log *logger.Logger) *FallbackGenerator {
	return &FallbackGenerator{
		ai:       ai,
		template: template,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Generate implements Generator.
func (g *FallbackGenerator) Generate(ctx context.Context, req Request) Result {
	req = req.normalize()

	if !req.UseAI || g.ai == nil {
		return g.fromTemplate(req, "template")
	}

	key := draftCacheKey(req)
	if draft, ok := g.cached(ctx, key); ok {
		metrics.RecordQuestGenerated(string(SourceCache), draft.Category, draft.Difficulty, draft.XPReward)
		return Result{Draft: draft, Source: SourceCache}
	}

	draft, err := g.ai.Generate(ctx, req)
	if err != nil {
		reason := llm.Reason(err)
		metrics.RecordAIFallback(reason)
		g.log.Warn().
			Err(err).
			Str("reason", reason).
			Int("task_length", len(req.Task)).
			Msg("AI quest generation failed, using template")
		return g.fromTemplate(req, "fallback")
	}

	g.store(ctx, key, draft)
	metrics.RecordQuestGenerated(string(SourceAI), draft.Category, draft.Difficulty, draft.XPReward)

	return Result{Draft: draft, Source: SourceAI}
}

func (g *FallbackGenerator) fromTemplate(req Request, metricSource string) Result {
	draft := g.template.Generate(req.Task, req.Level)
	metrics.RecordQuestGenerated(metricSource, draft.Category, draft.Difficulty, draft.XPReward)
	return Result{Draft: draft, Source: SourceTemplate}
}

func (g *FallbackGenerator) cached(ctx context.Context, key string) (Draft, bool) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return Draft{}, false
	}

	var draft Draft
	found, err := g.cache.GetJSON(ctx, key, &draft)
	switch {
	case err != nil:
		metrics.RecordDraftCache("error")
		g.log.Warn().Err(err).Msg("Failed to read quest draft cache")
		return Draft{}, false
	case !found:
		metrics.RecordDraftCache("miss")
		return Draft{}, false
	}

	metrics.RecordDraftCache("hit")
	return draft, true
}

func (g *FallbackGenerator) store(ctx context.Context, key string, draft Draft) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return
	}
	if err := g.cache.SetJSON(ctx, key, draft, g.cacheTTL); err != nil {
		g.log.Warn().Err(err).Msg("Failed to cache quest draft")
	}
}

// draftCacheKey identifies a request by task text, level and class.
func draftCacheKey(req Request) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", strings.ToLower(req.Task), req.Level, req.CharacterClass)))
	return "questgen:draft:" + hex.EncodeToString(sum[:])
}
