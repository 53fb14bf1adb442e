package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller -> retry -> logging -> base
	var p Provider = base
	if eventRepo != nil {
		p = WithLogging(p, eventRepo)
	}
	p = WithRetry(p, cfg.Retry)

	return p, nil
}

// NewProviderFromEnv builds a provider from STUDYCHAT_* environment
// configuration, falling back to probing the standard provider key vars
// when no explicit provider is selected. The resolved Config is returned
// alongside the provider so callers can report which backend is in use.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo) (Provider, Config, error) {
	cfg := ConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		// Explicit configuration is incomplete or absent; try discovery.
		if os.Getenv("STUDYCHAT_LLM_PROVIDER") != "" {
			return nil, Config{}, err
		}
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, Config{}, fmt.Errorf("no LLM provider configured: %w", err)
		}
		cfg = discovered
	}

	p, err := NewProvider(ctx, cfg, eventRepo)
	if err != nil {
		return nil, Config{}, err
	}
	return p, cfg, nil
}
