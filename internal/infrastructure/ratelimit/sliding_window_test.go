package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/genguard/internal/infrastructure/ratelimit"
	"github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(t *testing.T) (*ratelimit.SlidingWindowLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter, err := ratelimit.NewSlidingWindowLimiter(client, ratelimit.DefaultConfig(), logger.NewNoopLogger(),
		ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	return limiter, mr, clock
}

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	limiter, _, _ := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := limiter.Admit(ctx, "fp-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, int64(9-i), res.Remaining)
		assert.Equal(t, int64(10), res.Limit)
	}

	res, err := limiter.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, 60*time.Second, res.RetryAfter)
}

func TestSlidingWindow_IdentifiersAreIndependent(t *testing.T) {
	limiter, _, _ := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.Admit(ctx, "fp-a")
		require.NoError(t, err)
	}

	res, err := limiter.Admit(ctx, "fp-b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_ReadmitsAfterWindow(t *testing.T) {
	limiter, _, clock := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.Admit(ctx, "fp-a")
		require.NoError(t, err)
	}

	clock.Advance(30 * time.Second)
	res, err := limiter.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	clock.Advance(30 * time.Second)
	res, err = limiter.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_NoBoundaryBurst(t *testing.T) {
	limiter, _, clock := newLimiter(t)
	ctx := context.Background()

	// Ten admissions late in one minute must still block early in the next.
	clock.Advance(59 * time.Second)
	for i := 0; i < 10; i++ {
		res, err := limiter.Admit(ctx, "fp-a")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	clock.Advance(2 * time.Second)
	res, err := limiter.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestSlidingWindow_KeyAndExpiry(t *testing.T) {
	limiter, mr, _ := newLimiter(t)

	_, err := limiter.Admit(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "ratelimit:10.0.0.1", limiter.Key("10.0.0.1"))
	assert.True(t, mr.Exists("ratelimit:10.0.0.1"))
	assert.Equal(t, 60*time.Second, mr.TTL("ratelimit:10.0.0.1"))
}

func TestSlidingWindow_StoreErrorIsDistinguishable(t *testing.T) {
	limiter, mr, _ := newLimiter(t)
	mr.Close()

	res, err := limiter.Admit(context.Background(), "fp-a")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
	assert.False(t, errors.IsRateLimitError(err))
}

func TestSlidingWindow_ConcurrentAdmissionsNeverExceedLimit(t *testing.T) {
	limiter, _, _ := newLimiter(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Admit(ctx, "fp-a")
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}

func TestNewSlidingWindowLimiter_RejectsInvalidConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	_, err := ratelimit.NewSlidingWindowLimiter(client, ratelimit.Config{Limit: 0, Window: time.Minute}, logger.NewNoopLogger())
	assert.Error(t, err)

	_, err = ratelimit.NewSlidingWindowLimiter(nil, ratelimit.DefaultConfig(), logger.NewNoopLogger())
	assert.Error(t, err)
}

func TestSlidingWindow_UsesServerClockByDefault(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	serverNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mr.SetTime(serverNow)

	// Two instances sharing the store, neither with its own clock.
	a, err := ratelimit.NewSlidingWindowLimiter(client, ratelimit.DefaultConfig(), logger.NewNoopLogger())
	require.NoError(t, err)
	b, err := ratelimit.NewSlidingWindowLimiter(client, ratelimit.DefaultConfig(), logger.NewNoopLogger())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		limiter := a
		if i%2 == 1 {
			limiter = b
		}
		res, err := limiter.Admit(ctx, "fp-a")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	scores, err := client.ZRangeWithScores(ctx, "ratelimit:fp-a", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, scores, 10)
	for _, z := range scores {
		assert.Equal(t, float64(serverNow.UnixMilli()), z.Score)
	}

	mr.SetTime(serverNow.Add(20 * time.Second))
	res, err := b.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*time.Second, res.RetryAfter)

	mr.SetTime(serverNow.Add(61 * time.Second))
	res, err = a.Admit(ctx, "fp-a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
