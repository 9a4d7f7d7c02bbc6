// Package ratelimit provides the distributed sliding-window limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
)

var _ service.RateLimitService = (*SlidingWindowLimiter)(nil)

// Config holds limiter configuration.
type Config struct {
	// Limit is the number of admissions per window
	Limit int64
	// Window is the length of the rolling window
	Window time.Duration
	// KeyPrefix namespaces the per-identifier logs
	KeyPrefix string
}

// DefaultConfig returns 10 admissions per rolling minute.
func DefaultConfig() Config {
	return Config{
		Limit:     constants.RateLimitDefaultLimit,
		Window:    constants.RateLimitDefaultWindow,
		KeyPrefix: constants.RateLimitKeyPrefix,
	}
}

// slidingWindowScript keeps one sorted set per identifier whose scores are
// admission times in unix milliseconds. Entries at or before now-window are
// pruned first, so the count is always the number of admissions in the
// trailing window. Unless ARGV[1] carries a positive time, now is the Redis
// server's clock, so every instance agrees on it.
//
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
if now <= 0 then
    local t = redis.call('TIME')
    now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
end
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window)
    return {1, limit - count - 1, 0}
end

local retry = window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// SlidingWindowLimiter admits at most Limit requests per identifier in any
// trailing Window. All state lives in Redis.
type SlidingWindowLimiter struct {
	client  redis.Scripter
	config  Config
	logger  logger.Logger
	metrics *monitoring.Metrics
	// nil means the server clock is used
	now func() time.Time
}

// Option customises a SlidingWindowLimiter.
type Option func(*SlidingWindowLimiter)

// WithClock makes the limiter pass its own time to the script instead of
// reading the Redis server clock. Only tests should need it.
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindowLimiter) { l.now = now }
}

// WithMetrics records decisions on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(l *SlidingWindowLimiter) { l.metrics = m }
}

// NewSlidingWindowLimiter creates a limiter evaluating its script on client.
func NewSlidingWindowLimiter(client redis.Scripter, cfg Config, log logger.Logger, opts ...Option) (*SlidingWindowLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("invalid sliding window %d per %s", cfg.Limit, cfg.Window)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = constants.RateLimitKeyPrefix
	}

	l := &SlidingWindowLimiter{
		client: client,
		config: cfg,
		logger: log.WithComponent("ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.logger.Info(context.Background(), "Sliding window limiter initialized",
		logger.Int64("limit", cfg.Limit),
		logger.Duration("window", cfg.Window),
		logger.String("key_prefix", cfg.KeyPrefix),
	)

	return l, nil
}

// Key returns the store key holding identifier's admission log.
func (l *SlidingWindowLimiter) Key(identifier string) string {
	return l.config.KeyPrefix + ":" + identifier
}

// Admit records an admission for identifier if its window has room. A store
// failure is returned as an errors.CodeStoreUnavailable error.
func (l *SlidingWindowLimiter) Admit(ctx context.Context, identifier string) (*models.RateLimitResult, error) {
	var now int64
	if l.now != nil {
		now = l.now().UnixMilli()
	}
	windowMs := l.config.Window.Milliseconds()

	raw, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.Key(identifier)},
		now, windowMs, l.config.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		l.metrics.RecordRateLimit("error")
		l.metrics.RecordStoreError("ratelimit_admit")
		l.logger.Error(ctx, "Sliding window evaluation failed", err,
			logger.String("identifier", identifier),
		)
		return nil, errors.ErrStoreUnavailable("ratelimit_admit", err)
	}
	if len(raw) != 3 {
		return nil, errors.ErrStoreUnavailable("ratelimit_admit",
			fmt.Errorf("unexpected script reply of length %d", len(raw)))
	}

	result := &models.RateLimitResult{
		Allowed:   raw[0] == 1,
		Limit:     l.config.Limit,
		Remaining: raw[1],
	}
	if !result.Allowed {
		result.RetryAfter = time.Duration(raw[2]) * time.Millisecond
		l.metrics.RecordRateLimit("denied")
		l.logger.Debug(ctx, "Request throttled",
			logger.String("identifier", identifier),
			logger.Duration("retry_after", result.RetryAfter),
		)
		return result, nil
	}

	l.metrics.RecordRateLimit("allowed")
	return result, nil
}

// Limit returns the configured admissions per window.
func (l *SlidingWindowLimiter) Limit() int64 {
	return l.config.Limit
}
