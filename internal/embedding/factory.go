package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/retry"
)

// Options selects and configures a provider and its decorators
type Options struct {
	Kind      string
	Model     string
	BaseURL   string
	APIKey    string
	Dimension int
	Timeout   time.Duration

	// CacheSize > 0 enables the in-memory LRU
	CacheSize int
	// RequestsPerSecond > 0 enables client-side rate limiting
	RequestsPerSecond float64
	Retry             retry.Policy
	// Probe sends one embedding request during construction so an unreachable
	// provider fails at initialization rather than mid-batch
	Probe bool

	Logger *zap.Logger
}

// New builds the provider described by opts. Remote providers are wrapped for
// retries, then rate limiting, then caching, so cache hits never wait.
func New(ctx context.Context, opts Options) (Provider, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var base Provider
	switch opts.Kind {
	case KindHashing, "":
		base = NewHashingProvider(opts.Dimension)
	case KindOllama:
		base = NewOllamaProvider(OllamaConfig{
			BaseURL:   opts.BaseURL,
			Model:     opts.Model,
			Dimension: opts.Dimension,
			Timeout:   opts.Timeout,
			Logger:    opts.Logger,
		})
	case KindOpenAI:
		p, err := NewOpenAIProvider(OpenAIConfig{APIKey: opts.APIKey, BaseURL: opts.BaseURL, Model: opts.Model})
		if err != nil {
			return nil, err
		}
		base = p
	case KindGemini:
		p, err := NewGeminiProvider(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		base = p
	default:
		return nil, &UnavailableError{
			Provider:  opts.Kind,
			Message:   fmt.Sprintf("unknown embedding provider %q", opts.Kind),
			Permanent: true,
		}
	}

	provider := base
	if opts.Kind != KindHashing && opts.Kind != "" {
		provider = NewResilientProvider(provider, opts.Kind, opts.Retry, opts.Logger)
		if opts.RequestsPerSecond > 0 {
			provider = NewRateLimitedProvider(provider, opts.RequestsPerSecond, 1)
		}
	}
	if opts.Probe && opts.Kind != KindHashing && opts.Kind != "" {
		if _, err := provider.Embed(ctx, []string{"probe"}); err != nil {
			if IsUnavailable(err) {
				return nil, err
			}
			return nil, &UnavailableError{Provider: opts.Kind, Message: "probe request failed", Cause: err}
		}
	}
	if opts.CacheSize > 0 {
		cached, err := NewCachedProvider(provider, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		provider = cached
	}

	opts.Logger.Info("embedding provider ready",
		zap.String("provider", kindOrDefault(opts.Kind)),
		zap.String("model", provider.ModelName()),
		zap.Int("dimension", provider.Dimension()))
	return provider, nil
}

// NewLazyHandle returns a handle that builds the provider from opts on first use
func NewLazyHandle(opts Options) *Handle {
	return NewHandle(kindOrDefault(opts.Kind), func(ctx context.Context) (Provider, error) {
		return New(ctx, opts)
	})
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return KindHashing
	}
	return kind
}
