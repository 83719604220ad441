package llm

import (
	"context"
	"time"

	"github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

// InstrumentedProvider records latency, token usage and failures of every call.
type InstrumentedProvider struct {
	inner Provider
	name  string
	log   *logger.Logger
}

// WithInstrumentation wraps p so each call is logged and exported to Prometheus.
func WithInstrumentation(p Provider, name string, log *logger.Logger) Provider {
	return &InstrumentedProvider{inner: p, name: name, log: log}
}

// Generate implements Provider.
func (i *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := i.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	status := "success"
	var inputTokens, outputTokens int
	if err != nil {
		status = Reason(err)
	} else {
		inputTokens = resp.Usage.InputTokens
		outputTokens = resp.Usage.OutputTokens
	}
	metrics.RecordLLMRequest(i.name, status, elapsed.Seconds(), inputTokens, outputTokens)

	event := i.log.Debug()
	if err != nil {
		event = i.log.Warn().Err(err)
	}
	event.
		Str("provider", i.name).
		Str("model", i.inner.ModelID()).
		Str("status", status).
		Dur("latency", elapsed).
		Int("input_tokens", inputTokens).
		Int("output_tokens", outputTokens).
		Msg("LLM request")

	return resp, err
}

// ModelID implements Provider.
func (i *InstrumentedProvider) ModelID() string {
	return i.inner.ModelID()
}
