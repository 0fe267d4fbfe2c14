// Package ranking scores resumes against a job description and orders candidates.
package ranking

import (
	"fmt"
	"math"

	"github.com/jonathan/candidate-recommender/internal/embedding"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-norm vector on either side yields 0.0 rather than NaN.
func Cosine(a, b embedding.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", embedding.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors slightly past 1.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}
