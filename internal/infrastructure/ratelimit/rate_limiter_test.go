package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withClock(rl *RateLimiter, start time.Time) *time.Time {
	now := start
	rl.now = func() time.Time { return now }
	return &now
}

func TestSendMessageBurstThenWait(t *testing.T) {
	rl := NewRateLimiter(3)
	now := withClock(rl, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("u1", ActionSendMessage)
		require.True(t, allowed, "send %d", i+1)
	}

	allowed, wait := rl.Allow("u1", ActionSendMessage)
	assert.False(t, allowed)
	assert.InDelta(t, float64(20*time.Second), float64(wait), float64(time.Millisecond))

	// other senders have their own bucket
	allowed, _ = rl.Allow("u2", ActionSendMessage)
	assert.True(t, allowed)

	*now = now.Add(21 * time.Second)
	allowed, _ = rl.Allow("u1", ActionSendMessage)
	assert.True(t, allowed)
}

func TestDenialDoesNotConsumeToken(t *testing.T) {
	rl := NewRateLimiter(1)
	now := withClock(rl, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	allowed, _ := rl.Allow("u1", ActionSendMessage)
	require.True(t, allowed)
	for i := 0; i < 5; i++ {
		allowed, _ = rl.Allow("u1", ActionSendMessage)
		require.False(t, allowed)
	}

	*now = now.Add(time.Minute + time.Second)
	allowed, _ = rl.Allow("u1", ActionSendMessage)
	assert.True(t, allowed)
}

func TestNonPositiveLimitFallsBackToDefault(t *testing.T) {
	rl := NewRateLimiter(0)
	withClock(rl, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 10; i++ {
		allowed, _ := rl.Allow("u1", ActionSendMessage)
		require.True(t, allowed)
	}
	allowed, _ := rl.Allow("u1", ActionSendMessage)
	assert.False(t, allowed)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1)
	now := withClock(rl, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	rl.Allow("idle", ActionSendMessage)
	*now = now.Add(2 * time.Hour)
	rl.Allow("active", ActionSendMessage)

	rl.Cleanup(time.Hour)

	assert.Len(t, rl.buckets, 1)
	assert.Contains(t, rl.buckets, "active:"+ActionSendMessage)
}
