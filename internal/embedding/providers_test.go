package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-recommender/internal/retry"
)

// countingProvider records how many texts it was asked to embed
type countingProvider struct {
	inner Provider
	calls atomic.Int32
	texts atomic.Int32
	err   error
}

func (c *countingProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	c.calls.Add(1)
	c.texts.Add(int32(len(texts)))
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Embed(ctx, texts)
}

func (c *countingProvider) Dimension() int    { return c.inner.Dimension() }
func (c *countingProvider) ModelName() string { return c.inner.ModelName() }

func norm(v Vector) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashingProvider_Deterministic(t *testing.T) {
	p := NewHashingProvider(0)
	assert.Equal(t, DefaultHashingDimension, p.Dimension())

	vectors, err := p.Embed(context.Background(), []string{
		"Go, Kubernetes and PostgreSQL",
		"Go, Kubernetes and PostgreSQL",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, vectors[0], vectors[1])
	assert.InDelta(t, 1.0, norm(vectors[0]), 1e-5)
	assert.Equal(t, 0.0, norm(vectors[2]))
}

func TestHashingProvider_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashingProvider(8).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"built", "c++", "and", "c#", "services", "node.js"},
		Tokenize("Built C++ and C# services. Node.js."))
	assert.Empty(t, Tokenize("  --- "))
}

func TestCachedProvider_ServesRepeatsFromCache(t *testing.T) {
	inner := &countingProvider{inner: NewHashingProvider(16)}
	cached, err := NewCachedProvider(inner, 10)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.Embed(ctx, []string{"a b", "c d", "a b"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, int32(2), inner.texts.Load(), "duplicates are embedded once")
	assert.Equal(t, first[0], first[2])

	second, err := cached.Embed(ctx, []string{"c d", "a b"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.calls.Load(), "all hits, no upstream call")
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, 2, cached.Len())
}

func TestCachedProvider_PropagatesErrors(t *testing.T) {
	inner := &countingProvider{inner: NewHashingProvider(16), err: errors.New("boom")}
	cached, err := NewCachedProvider(inner, 10)
	require.NoError(t, err)

	_, err = cached.Embed(context.Background(), []string{"a"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, cached.Len())
}

func TestRateLimitedProvider_WaitHonorsContext(t *testing.T) {
	p := NewRateLimitedProvider(NewHashingProvider(8), 0.001, 1)
	_, err := p.Embed(context.Background(), []string{"first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Embed(ctx, []string{"second"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitedProvider_WaitPastDeadlineIsDeadlineExceeded(t *testing.T) {
	p := NewRateLimitedProvider(NewHashingProvider(8), 0.5, 1)
	_, err := p.Embed(context.Background(), []string{"first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err = p.Embed(ctx, []string{"second"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err(), "wait fails before the deadline passes")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestResilientProvider_RetriesThenReportsUnavailable(t *testing.T) {
	inner := &countingProvider{inner: NewHashingProvider(8), err: errors.New("503 service unavailable")}
	policy := retry.Policy{MaxRetries: 2, InitBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Factor: 2}
	p := NewResilientProvider(inner, KindOllama, policy, nil)

	_, err := p.Embed(context.Background(), []string{"x"})
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, KindOllama, ue.Provider)
	assert.False(t, ue.Permanent)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilientProvider_PermanentNotRetried(t *testing.T) {
	inner := &countingProvider{inner: NewHashingProvider(8), err: errors.New("401 invalid api key")}
	policy := retry.Policy{MaxRetries: 5, InitBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Factor: 2}
	p := NewResilientProvider(inner, KindOpenAI, policy, nil)

	_, err := p.Embed(context.Background(), []string{"x"})
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Permanent)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestResilientProvider_DeadlineIsNotUnavailable(t *testing.T) {
	inner := &countingProvider{inner: NewHashingProvider(8), err: context.DeadlineExceeded}
	p := NewResilientProvider(inner, KindOllama, retry.Policy{}, nil)

	_, err := p.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsUnavailable(err))
}

func TestResilientProvider_InvalidRequestIsInputRejected(t *testing.T) {
	inner := &countingProvider{
		inner: NewHashingProvider(8),
		err:   errors.New(`POST "https://api.openai.com/v1/embeddings": 400 Bad Request "maximum context length is 8192 tokens"`),
	}
	policy := retry.Policy{MaxRetries: 3, InitBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Factor: 2}
	p := NewResilientProvider(inner, KindOpenAI, policy, nil)

	_, err := p.Embed(context.Background(), []string{"huge"})
	require.ErrorIs(t, err, ErrInputRejected)
	assert.False(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "maximum context length")
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOllamaModel, req.Model)

		resp := ollamaEmbedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1, 0})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL + "/"})
	vectors, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, Vector{1, 1, 0}, vectors[1])
	assert.Equal(t, 384, p.Dimension())
}

func TestOllamaProvider_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
	_, err := p.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestOllamaProvider_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
	_, err := p.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestNewProviders_MissingCredentialsArePermanent(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Permanent)

	_, err = NewGeminiProvider(context.Background(), "", "")
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Permanent)
}

func TestNew_Kinds(t *testing.T) {
	p, err := New(context.Background(), Options{Kind: KindHashing, Dimension: 32, CacheSize: 8})
	require.NoError(t, err)
	assert.Equal(t, 32, p.Dimension())
	_, isCached := p.(*CachedProvider)
	assert.True(t, isCached)

	_, err = New(context.Background(), Options{Kind: "word2vec"})
	assert.True(t, IsUnavailable(err))

	_, err = New(context.Background(), Options{Kind: KindOpenAI})
	assert.True(t, IsUnavailable(err))
}

func TestNew_ProbeFailsForUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(context.Background(), Options{
		Kind:    KindOllama,
		BaseURL: server.URL,
		Probe:   true,
		Retry:   retry.Policy{MaxRetries: 1, InitBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Factor: 2},
	})
	assert.True(t, IsUnavailable(err))
}

func TestNewLazyHandle(t *testing.T) {
	h := NewLazyHandle(Options{Kind: KindHashing, Dimension: 8})
	assert.False(t, h.Initialized())
	vectors, err := h.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vectors[0], 8)
	assert.True(t, h.Initialized())
}

func TestCheckBatch(t *testing.T) {
	assert.NoError(t, checkBatch([]string{"a", "b"}, []Vector{{1, 2}, {3, 4}}))
	assert.ErrorIs(t, checkBatch([]string{"a"}, nil), ErrCountMismatch)
	assert.ErrorIs(t, checkBatch([]string{"a", "b"}, []Vector{{1}, {1, 2}}), ErrDimensionMismatch)
}
