package llm

import (
	"context"
	"fmt"
)

// NewProvider constructs a single named provider from configuration.
func NewProvider(ctx context.Context, name string, cfg Config) (Provider, error) {
	switch name {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", name)
	}
}

// NewProviderPair constructs the primary and optional fallback providers.
// Both are built once by the owning process and injected into the
// generation orchestrator.
func NewProviderPair(ctx context.Context, cfg Config) (primary, fallback Provider, err error) {
	primary, err = NewProvider(ctx, cfg.Primary, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing primary provider %s: %w", cfg.Primary, err)
	}

	if cfg.Fallback == "" {
		return primary, nil, nil
	}

	fallback, err = NewProvider(ctx, cfg.Fallback, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing fallback provider %s: %w", cfg.Fallback, err)
	}

	return primary, fallback, nil
}
