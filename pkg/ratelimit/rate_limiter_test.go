package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  15 * time.Minute,
		DefaultRequests: 100,
		AuthRequests:    5,
		GeneralRequests: 100,
	}
}

func TestFixedWindowCeiling(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testConfig())
	ctx := context.Background()

	// Exactly ceiling requests pass.
	for i := 0; i < 5; i++ {
		result, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}

	// The sixth is rejected with a positive retry hint.
	result, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Positive(t, result.RetryAfter(time.Now()))
}

func TestWindowReset(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	limiter := NewRateLimiter(store, testConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
	result, err := limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// After the window elapses the counter opens again for a full budget.
	now = now.Add(15*time.Minute + time.Second)
	for i := 0; i < 5; i++ {
		result, err := limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d after reset should be allowed", i+1)
	}
}

func TestRejectionDoesNotIncrement(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewRateLimiter(store, testConfig())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := limiter.IsAllowed(ctx, "10.0.0.3", RateLimitTypeAuth)
		require.NoError(t, err)
	}

	store.mu.Lock()
	b := store.buckets["shopino:ratelimit:10.0.0.3:auth"]
	store.mu.Unlock()
	require.NotNil(t, b)
	assert.Equal(t, 5, b.count, "stored count must never exceed the ceiling")
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryStore(), testConfig())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.IsAllowed(ctx, "10.0.0.4", RateLimitTypeAuth)
	}

	// Different IP, same class.
	result, err := limiter.IsAllowed(ctx, "10.0.0.5", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// Same IP, different class.
	result, err = limiter.IsAllowed(ctx, "10.0.0.4", RateLimitTypeGeneral)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestExpiredBucketsSwept(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	limiter := NewRateLimiter(store, testConfig())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		limiter.IsAllowed(ctx, string(rune('a'+i)), RateLimitTypeGeneral)
	}
	assert.Equal(t, 10, store.Len())

	now = now.Add(16 * time.Minute)
	limiter.IsAllowed(ctx, "fresh", RateLimitTypeGeneral)
	assert.Equal(t, 1, store.Len())
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	limiter := NewRateLimiter(NewMemoryStore(), cfg)

	for i := 0; i < 50; i++ {
		result, err := limiter.IsAllowed(context.Background(), "10.0.0.6", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}
