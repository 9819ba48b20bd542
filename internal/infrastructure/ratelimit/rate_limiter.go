package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionRequest     = "request"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per sender and action.
type RateLimiter struct {
	buckets map[string]*bucket
	limits  map[string]rate.Limit
	bursts  map[string]int
	mutex   sync.Mutex
	now     func() time.Time
}

// NewRateLimiter allows sendPerMinute messages per sender per minute with a
// burst of the same size. Chat creation gets a fixed 30 per minute and
// ActionRequest 60 per minute per client address with a burst of 60.
func NewRateLimiter(sendPerMinute int) *RateLimiter {
	if sendPerMinute <= 0 {
		sendPerMinute = 10
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limits: map[string]rate.Limit{
			ActionSendMessage: rate.Every(time.Minute / time.Duration(sendPerMinute)),
			ActionCreateChat:  rate.Every(2 * time.Second),
			ActionRequest:     rate.Every(time.Second),
		},
		bursts: map[string]int{
			ActionSendMessage: sendPerMinute,
			ActionCreateChat:  30,
			ActionRequest:     60,
		},
		now: time.Now,
	}
}

// Allow consumes a token for the key/action pair. When none is available it
// reports how long until the next one.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	b := rl.bucketFor(key, action)

	now := rl.now()
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) bucketFor(key, action string) *bucket {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	id := key + ":" + action
	b, ok := rl.buckets[id]
	if !ok {
		limit, ok := rl.limits[action]
		burst := rl.bursts[action]
		if !ok {
			limit, burst = rate.Every(3*time.Second), 20
		}
		b = &bucket{limiter: rate.NewLimiter(limit, burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = rl.now()
	return b
}

// Cleanup drops buckets not touched within idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(rl.buckets, id)
		}
	}
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
