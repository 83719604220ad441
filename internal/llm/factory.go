package llm

import (
	"context"
	"fmt"

	"github.com/aimd54/questforge/internal/config"
	"github.com/aimd54/questforge/pkg/logger"
)

// Options holds the connection settings shared by all providers.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewProvider builds the configured provider wrapped with instrumentation.
// An empty provider name disables AI generation and returns (nil, nil).
func NewProvider(ctx context.Context, cfg *config.LLMConfig, log *logger.Logger) (Provider, error) {
	opts := Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		base, err = NewOpenAIProvider(opts)
	case "anthropic":
		base, err = NewAnthropicProvider(opts)
	case "gemini":
		base, err = NewGeminiProvider(ctx, opts)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	log.Info().
		Str("provider", cfg.Provider).
		Str("model", base.ModelID()).
		Msg("LLM provider configured")

	return WithInstrumentation(base, cfg.Provider, log.Named("llm")), nil
}
