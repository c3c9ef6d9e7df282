package llm

import (
	"context"
	"fmt"

	"github.com/BetterCallFirewall/Sentinel/internal/config"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// AppFactory builds a Genkit app bound to one API credential.
// The credential is user-editable at runtime, so apps are created per key.
type AppFactory func(ctx context.Context, apiKey string) (*genkit.Genkit, error)

// NewAppFactory returns a factory creating apps for the configured provider
func NewAppFactory(cfg config.LLMConfig) AppFactory {
	return func(ctx context.Context, apiKey string) (*genkit.Genkit, error) {
		return InitGenkitApp(ctx, cfg, apiKey)
	}
}

// InitGenkitApp initializes a Genkit app with the appropriate LLM plugin
// Supports: gemini, openai, ollama, localai, lm-studio
func InitGenkitApp(ctx context.Context, cfg config.LLMConfig, apiKey string) (*genkit.Genkit, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genkit app requires an api key")
	}

	switch cfg.Provider {
	case "gemini":
		return genkit.Init(
			ctx, genkit.WithPlugins(
				&googlegenai.GoogleAI{
					APIKey: apiKey,
				},
			),
		), nil

	case "openai", "ollama", "localai", "lm-studio":
		return genkit.Init(
			ctx, genkit.WithPlugins(
				&compat_oai.OpenAICompatible{
					Provider: cfg.Provider,
					APIKey:   apiKey,
					BaseURL:  cfg.BaseURL,
				},
			),
		), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// ModelName returns the fully qualified Genkit model name, e.g. "googleai/gemini-2.5-flash"
func ModelName(cfg config.LLMConfig) string {
	provider := cfg.Provider
	if provider == "gemini" {
		provider = "googleai"
	}
	return provider + "/" + cfg.Model
}
