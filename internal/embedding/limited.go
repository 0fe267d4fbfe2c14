package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider waits on a token bucket before every upstream call
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows requestsPerSecond calls with the given burst
func NewRateLimitedProvider(inner Provider, requestsPerSecond float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed blocks until a token is available or ctx is done. A wait that would
// outlast ctx's deadline fails at once with context.DeadlineExceeded.
func (p *RateLimitedProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embedding rate limit wait: %w", ctxErr)
		}
		if _, ok := ctx.Deadline(); ok {
			return nil, fmt.Errorf("embedding rate limit wait: %w (%v)", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("embedding rate limit wait: %w", err)
	}
	return p.inner.Embed(ctx, texts)
}

// Dimension delegates to the wrapped provider
func (p *RateLimitedProvider) Dimension() int {
	return p.inner.Dimension()
}

// ModelName delegates to the wrapped provider
func (p *RateLimitedProvider) ModelName() string {
	return p.inner.ModelName()
}
