package llm

import (
	"context"
	"fmt"
)

type ProviderConfig struct {
	Provider     string
	OpenAIAPIKey string
	GeminiAPIKey string
}

// NewClient picks a provider implementation from config. A missing API key
// yields a client that always returns ErrNotConfigured so the server can run
// in demo mode.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return unconfigured{}, nil
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return unconfigured{}, nil
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
