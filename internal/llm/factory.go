package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/BetterCallFirewall/Bastion/internal/config"
)

// NewProvider builds the provider for the configured backend.
// Returns (nil, nil) when the backend needs an API key and none is set: the service still
// runs, the heuristic gate keeps working and model-backed calls report missing credentials.
func NewProvider(ctx context.Context, cfg config.LLMConfig, policy RetryPolicy) (Provider, error) {
	switch cfg.Provider {
	case "gemini", "openai":
		if cfg.ApiKey == "" {
			log.Printf("⚠️ API_KEY is not set for provider %s, remote classification disabled", cfg.Provider)
			return nil, nil
		}
		fallthrough

	case "ollama", "localai", "lm-studio":
		genkitApp, err := InitGenkitApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		provider, err := NewGenkitProvider(genkitApp, cfg.Provider, ModelName(cfg), policy)
		if err != nil {
			return nil, err
		}
		log.Printf("🤖 LLM provider: %s (%s)", provider.GetName(), provider.GetModel())
		return provider, nil

	case "generic":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("generic provider requires LLM_URL")
		}
		provider := NewGenericProvider(GenericConfig{
			Name:    "generic-" + cfg.Format,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.ApiKey,
			Format:  APIFormat(cfg.Format),
			Retry:   policy,
		})
		log.Printf("🤖 LLM provider: %s (%s)", provider.GetName(), provider.GetModel())
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}

// RetryPolicyFromConfig converts the retry section of the config
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}
	return policy
}
