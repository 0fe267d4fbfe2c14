package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/candidate-recommender/internal/retry"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON generates JSON content using the specified model tier
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return nil, retry.Permanent(fmt.Errorf("API key is required for %s (set %s)", config.Provider, config.Provider.APIKeyEnv()))
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI, ProviderGroq:
		return NewOpenAIClient(config, apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// generate resolves the tier's model and runs fn under the retry policy
func generate(ctx context.Context, config *Config, tier ModelTier, fn func(ctx context.Context, model string) (string, error)) (string, error) {
	model := config.GetModel(tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	var text string
	err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) error {
		out, err := fn(ctx, model)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", config.Provider, err)
	}
	return text, nil
}
