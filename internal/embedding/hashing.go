package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashingDimension matches the output size of all-MiniLM-L6-v2
const DefaultHashingDimension = 384

var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9+#.\-]*`)

// HashingProvider is an offline, deterministic bag-of-words embedder.
// Tokens and adjacent token pairs are hashed into a fixed number of buckets
// with a sign bit, weighted by 1+log(tf), and L2 normalized. Identical texts
// always produce identical vectors; texts with no tokens produce a zero vector.
type HashingProvider struct {
	dimension int
}

// NewHashingProvider creates a hashing embedder. dimension <= 0 uses the default.
func NewHashingProvider(dimension int) *HashingProvider {
	if dimension <= 0 {
		dimension = DefaultHashingDimension
	}
	return &HashingProvider{dimension: dimension}
}

// Embed hashes each text into a vector
func (p *HashingProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	vectors := make([]Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = p.embedOne(text)
	}
	return vectors, nil
}

// Dimension returns the configured bucket count
func (p *HashingProvider) Dimension() int {
	return p.dimension
}

// ModelName identifies the hashing scheme and size
func (p *HashingProvider) ModelName() string {
	return "hashing-bow"
}

func (p *HashingProvider) embedOne(text string) Vector {
	tokens := Tokenize(text)
	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}

	v := make(Vector, p.dimension)
	for feature, tf := range counts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum64()
		bucket := int(sum % uint64(p.dimension))
		weight := 1 + math.Log(float64(tf))
		if sum&(1<<63) != 0 {
			weight = -weight
		}
		v[bucket] += float32(weight)
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Tokenize lowercases text and splits it into word tokens, trimming trailing punctuation
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimRight(tok, ".-")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
