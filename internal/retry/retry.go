// Package retry runs calls to remote providers with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxRetries  = 3
	defaultInitBackoff = 500 * time.Millisecond
	defaultMaxBackoff  = 8 * time.Second
	defaultFactor      = 2.0
)

// Policy configures how many times and how fast a call is retried
type Policy struct {
	MaxRetries  int
	InitBackoff time.Duration
	MaxBackoff  time.Duration
	Factor      float64
}

// DefaultPolicy returns 3 retries starting at 500ms, doubling up to 8s
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  defaultMaxRetries,
		InitBackoff: defaultInitBackoff,
		MaxBackoff:  defaultMaxBackoff,
		Factor:      defaultFactor,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitBackoff <= 0 {
		p.InitBackoff = defaultInitBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = defaultMaxBackoff
	}
	if p.Factor < 1 {
		p.Factor = defaultFactor
	}
	return p
}

// PermanentError marks an error that must not be retried
type PermanentError struct {
	Cause error
}

func (e *PermanentError) Error() string {
	return e.Cause.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// Permanent wraps err so Do returns it without retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Cause: err}
}

// IsPermanent reports whether err should never be retried: explicitly marked
// permanent errors, credential/authorization failures and billing errors.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		return true
	}
	return isAuthError(err) || isBillingError(err)
}

// IsRetryable reports whether err is a transient failure worth retrying
func IsRetryable(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || IsInvalidRequest(err) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return isRateLimitError(err) || isServerError(err) || isConnectionError(err)
}

// Do calls fn until it succeeds, returns a non-retryable error, exhausts the
// policy, or ctx is done. The returned error wraps the last failure.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy.BackOff()),
		backoff.WithMaxTries(uint(policy.MaxRetries)+1),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		return nil
	case !IsRetryable(err):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("retry aborted: %w", err)
	default:
		return fmt.Errorf("failed after %d retries: %w", policy.MaxRetries, err)
	}
}

// BackOff builds the exponential schedule for the policy
func (p Policy) BackOff() *backoff.ExponentialBackOff {
	p = p.withDefaults()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitBackoff
	bo.MaxInterval = p.MaxBackoff
	bo.Multiplier = p.Factor
	return bo
}

// IsInvalidRequest reports whether the provider rejected the request itself,
// such as an input over the model's context length. Retrying cannot help and
// the provider is still usable for other inputs.
func IsInvalidRequest(err error) bool {
	if err == nil || isAuthError(err) || isBillingError(err) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "400 bad request") ||
		strings.Contains(errStr, "status 400") ||
		strings.Contains(errStr, "invalid_request") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "context length") ||
		strings.Contains(errStr, "too many tokens") ||
		strings.Contains(errStr, "input is too long") ||
		strings.Contains(errStr, "status 413") ||
		strings.Contains(errStr, "413 request entity too large")
}

func isAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "api key") ||
		strings.Contains(errStr, "api_key") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "credential")
}

func isBillingError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "billing") ||
		strings.Contains(errStr, "payment") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "402")
}

func isRateLimitError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "overloaded")
}

func isServerError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "temporarily unavailable")
}

func isConnectionError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "timeout")
}
