package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/pkg/metrics"
	"go.uber.org/zap"
)

// Generator is the text-generation capability consumed by the scoring and
// info-extraction clients.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider is one concrete model endpoint in the fallback chain.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client tries every configured provider in order and returns the first
// successful generation. A provider failure is recovered transparently;
// an error is surfaced only when the whole chain is exhausted.
type Client struct {
	providers []Provider
}

// Make sure we conform to Generator interface
var _ Generator = (*Client)(nil)

func NewClient(providers ...Provider) (*Client, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	return &Client{providers: providers}, nil
}

// NewClientFromConfig assembles the provider chain from configuration.
// OpenAI is primary, Groq the fallback; either may be absent.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	providers := make([]Provider, 0, 2)
	if cfg.Llm.OpenAiApiKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.Llm.OpenAiApiKey, cfg.Llm.OpenAiModel, cfg.Llm.TimeoutSeconds))
	}
	if cfg.Llm.GroqApiKey != "" {
		providers = append(providers, NewGroqProvider(cfg.Llm.GroqApiKey, cfg.Llm.GroqModel, cfg.Llm.TimeoutSeconds))
	}
	return NewClient(providers...)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, provider := range c.providers {
		response, err := provider.Generate(ctx, prompt)
		if err == nil {
			return response, nil
		}

		lastErr = err
		zap.S().Named("llm").Warnf("provider %s failed: %v", provider.Name(), err)
		if i < len(c.providers)-1 {
			metrics.IncreaseLlmFallbacksMetric(provider.Name())
		}

		// don't walk the chain on cancellation
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}
