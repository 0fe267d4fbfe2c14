// Package embedding maps text to fixed-dimension vectors through pluggable providers.
// Providers are created lazily behind a Handle so every caller in a process
// shares one initialized instance.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Vector is a dense embedding. All vectors from one provider share a dimension.
type Vector []float32

// Provider converts texts to vectors, one per input, in input order
type Provider interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	// Dimension returns the vector length, or 0 when it is not known until the first call
	Dimension() int
	ModelName() string
}

// Provider kinds accepted by New
const (
	KindHashing = "hashing"
	KindOllama  = "ollama"
	KindOpenAI  = "openai"
	KindGemini  = "gemini"
)

var (
	// ErrDimensionMismatch is returned when two vectors of different lengths are compared
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrCountMismatch is returned when a provider returns a different number of vectors than texts
	ErrCountMismatch = errors.New("embedding count mismatch")
	// ErrInputRejected is returned when the provider refuses a specific input,
	// for example one longer than the model accepts. Other inputs may still succeed.
	ErrInputRejected = errors.New("embedding input rejected")
)

// UnavailableError means the provider could not be initialized or reached.
// It is fatal for a ranking batch.
type UnavailableError struct {
	Provider string
	Message  string
	Cause    error
	// Permanent is set for failures retrying cannot fix, such as missing credentials
	Permanent bool
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding provider %s unavailable: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding provider %s unavailable: %s", e.Provider, e.Message)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// IsUnavailable reports whether err is or wraps an UnavailableError
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// checkBatch verifies a provider response lines up with its request
func checkBatch(texts []string, vectors []Vector) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrCountMismatch, len(vectors), len(texts))
	}
	dim := -1
	for i, v := range vectors {
		if dim == -1 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has length %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

func toVector64(values []float64) Vector {
	v := make(Vector, len(values))
	for i, x := range values {
		v[i] = float32(x)
	}
	return v
}
