package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter("test", 60) // 1 per second, burst 5

	assert.Equal(t, "test", limiter.Name())
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "request %d should be inside the burst", i)
	}
}

func TestLimiterWait(t *testing.T) {
	limiter := NewLimiter("test", 120)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiterBackoff(t *testing.T) {
	limiter := NewLimiter("test", 60)
	initial := limiter.GetBackoff()

	limiter.SignalRateLimited()
	after1 := limiter.GetBackoff()
	assert.Greater(t, after1, initial)

	limiter.SignalRateLimited()
	after2 := limiter.GetBackoff()
	assert.Greater(t, after2, after1)

	limiter.ResetBackoff()
	assert.Equal(t, initial, limiter.GetBackoff())
}

func TestLimiterCooldownBlocks(t *testing.T) {
	limiter := NewLimiter("test", 600)
	limiter.SignalRateLimited()

	assert.False(t, limiter.Allow(), "no requests during cooldown")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)

	limiter.ResetBackoff()
	assert.True(t, limiter.Allow())
}

func TestLimiterContextCancellation(t *testing.T) {
	limiter := NewLimiter("test", 1)
	for i := 0; i < 5; i++ {
		limiter.Allow()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, limiter.Wait(ctx))
}
