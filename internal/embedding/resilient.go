package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/retry"
)

// ResilientProvider retries transient upstream failures and reports whatever
// is left as an UnavailableError. Context errors and malformed responses pass
// through unchanged so callers can tell a timeout from an outage. Requests the
// provider rejects as invalid wrap ErrInputRejected.
type ResilientProvider struct {
	inner  Provider
	kind   string
	policy retry.Policy
	logger *zap.Logger
}

// NewResilientProvider wraps inner with the retry policy
func NewResilientProvider(inner Provider, kind string, policy retry.Policy, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientProvider{inner: inner, kind: kind, policy: policy, logger: logger}
}

// Embed calls the wrapped provider under the retry policy
func (p *ResilientProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	start := time.Now()
	var vectors []Vector
	attempt := 0
	err := retry.Do(ctx, p.policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.logger.Debug("retrying embedding request",
				zap.String("provider", p.kind),
				zap.Int("attempt", attempt))
		}
		var callErr error
		vectors, callErr = p.inner.Embed(ctx, texts)
		return callErr
	})
	observability.RecordEmbeddingCall(p.kind, len(texts), time.Since(start), err)
	if err == nil {
		return vectors, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrCountMismatch) || errors.Is(err, ErrDimensionMismatch) || IsUnavailable(err) {
		return nil, err
	}

	if retry.IsInvalidRequest(err) {
		p.logger.Debug("embedding input rejected",
			zap.String("provider", p.kind),
			zap.Int("texts", len(texts)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInputRejected, err)
	}

	p.logger.Warn("embedding provider failed",
		zap.String("provider", p.kind),
		zap.String("model", p.inner.ModelName()),
		zap.Error(err))
	return nil, &UnavailableError{
		Provider:  p.kind,
		Message:   "embedding request failed",
		Cause:     err,
		Permanent: retry.IsPermanent(err),
	}
}

// Dimension delegates to the wrapped provider
func (p *ResilientProvider) Dimension() int {
	return p.inner.Dimension()
}

// ModelName delegates to the wrapped provider
func (p *ResilientProvider) ModelName() string {
	return p.inner.ModelName()
}
