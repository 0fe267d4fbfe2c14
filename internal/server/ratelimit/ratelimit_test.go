package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(limit int) *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  limit,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{},
		Blacklist:     map[string]bool{},
	}
}

func TestBucket_Take(t *testing.T) {
	b := newBucket(3, 1)
	now := time.Now()

	for want := 2; want >= 0; want-- {
		allowed, remaining, _, retryAfter := b.take(now)
		assert.True(t, allowed)
		assert.Equal(t, want, remaining)
		assert.Zero(t, retryAfter)
	}

	allowed, remaining, resetTime, retryAfter := b.take(now)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, resetTime.After(now))
	assert.InDelta(t, time.Second, retryAfter, float64(10*time.Millisecond))
}

func TestBucket_Refill(t *testing.T) {
	b := newBucket(1, 10)
	now := time.Now()

	allowed, _, _, _ := b.take(now)
	require.True(t, allowed)
	allowed, _, _, _ = b.take(now)
	require.False(t, allowed)

	allowed, _, _, _ = b.take(now.Add(150 * time.Millisecond))
	assert.True(t, allowed, "a token refills after 100ms at 10/s")
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(testConfig(5))
	defer limiter.Stop()

	for i := range 5 {
		allowed, info := limiter.Allow("10.0.0.1", "/rank", "POST")
		require.True(t, allowed, "request %d", i)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	allowed, info := limiter.Allow("10.0.0.1", "/rank", "POST")
	assert.False(t, allowed)
	assert.Positive(t, info.RetryAfter)

	allowed, _ = limiter.Allow("10.0.0.2", "/rank", "POST")
	assert.True(t, allowed, "clients have independent buckets")

	allowed, _ = limiter.Allow("10.0.0.1", "/sections", "POST")
	assert.True(t, allowed, "endpoints have independent buckets")
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	cfg := testConfig(1)
	cfg.Whitelist["127.0.0.1"] = true
	cfg.Blacklist["6.6.6.6"] = true
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	for range 10 {
		allowed, _ := limiter.Allow("127.0.0.1", "/rank", "POST")
		assert.True(t, allowed)
	}

	allowed, _ := limiter.Allow("6.6.6.6", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(NewConfig(0, 0))
	defer limiter.Stop()

	for range 100 {
		allowed, info := limiter.Allow("10.0.0.1", "/rank", "POST")
		require.True(t, allowed)
		assert.True(t, info.Allowed)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(NewConfig(10, 100))
	defer limiter.Stop()

	// burst for /rank is 10/5
	for range 2 {
		allowed, info := limiter.Allow("10.0.0.1", "/rank", "POST")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/rank", "POST")
	assert.False(t, allowed)

	for range 50 {
		allowed, _ := limiter.Allow("10.0.0.1", "/health", "GET")
		require.True(t, allowed, "health checks are never limited")
	}

	allowed, info := limiter.Allow("10.0.0.1", "/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(testConfig(50))
	defer limiter.Stop()

	var allowedCount atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("10.0.0.1", "/rank", "POST"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.InDelta(t, 50, allowedCount.Load(), 1)
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(testConfig(5))
	defer limiter.Stop()

	limiter.Allow("10.0.0.1", "/rank", "POST")
	limiter.Allow("10.0.0.2", "/rank", "POST")
	require.Len(t, limiter.buckets, 2)

	limiter.cleanupBuckets(time.Now().Add(time.Second))
	assert.Empty(t, limiter.buckets)
	assert.Empty(t, limiter.lastAccess)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("10.0.0.1", "/rank", "POST")
	assert.True(t, allowed)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/rank", Method: "POST", Limit: 1},
		{Path: "/files/", Method: "GET", Limit: 2},
	}

	assert.Equal(t, 1, MatchEndpoint("/rank", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/rank", "GET", configs))
	assert.Equal(t, 2, MatchEndpoint("/files/a.zip", "GET", configs).Limit)
	assert.Nil(t, MatchEndpoint("/unknown", "POST", configs))
	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(30, 0, "127.0.0.1, ::1")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 600, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["127.0.0.1"])
	assert.True(t, cfg.Whitelist["::1"])
	assert.Len(t, cfg.EndpointConfigs, 4)

	assert.False(t, NewConfig(0, 100).Enabled)
}
