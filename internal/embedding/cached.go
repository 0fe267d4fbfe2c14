package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of vectors kept in memory
const DefaultCacheSize = 4096

// CachedProvider keeps recently computed vectors in an in-process LRU.
// Nothing is written to disk; the cache lives only as long as the process.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, Vector]
}

// NewCachedProvider wraps inner with an LRU of the given size
func NewCachedProvider(inner Provider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Vector](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Embed serves cached vectors and forwards only the misses, deduplicated, in one call
func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	missIdx := make(map[string][]int)
	var missTexts []string

	for i, text := range texts {
		key := c.key(text)
		if v, ok := c.cache.Get(key); ok {
			out[i] = v
			continue
		}
		if _, seen := missIdx[key]; !seen {
			missTexts = append(missTexts, text)
		}
		missIdx[key] = append(missIdx[key], i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(missTexts, vectors); err != nil {
		return nil, err
	}

	for i, text := range missTexts {
		key := c.key(text)
		c.cache.Add(key, vectors[i])
		for _, idx := range missIdx[key] {
			out[idx] = vectors[i]
		}
	}
	return out, nil
}

// Len returns the number of cached vectors
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}

// Dimension delegates to the wrapped provider
func (c *CachedProvider) Dimension() int {
	return c.inner.Dimension()
}

// ModelName delegates to the wrapped provider
func (c *CachedProvider) ModelName() string {
	return c.inner.ModelName()
}

func (c *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}
