// Package usage meters guarded operations against a per-identifier daily
// budget kept in Redis.
package usage

import (
	"context"
	"strconv"
	"time"

	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

var _ service.UsageService = (*Tracker)(nil)

// Config holds quota configuration.
type Config struct {
	DailyLimit int64
	// Period is the TTL given to a counter by its first increment
	Period    time.Duration
	KeyPrefix string
}

// DefaultConfig returns two operations per fifteen hours.
func DefaultConfig() Config {
	return Config{
		DailyLimit: constants.UsageDefaultDailyLimit,
		Period:     constants.UsageDefaultPeriod,
		KeyPrefix:  constants.UsageKeyPrefix,
	}
}

// Tracker implements service.UsageService. Reads fail open and increments
// never fail the caller; the store stays the only source of truth.
type Tracker struct {
	store   service.KeyValueStore
	config  Config
	logger  logger.Logger
	metrics *monitoring.Metrics
}

// NewTracker creates a tracker on store. A nil metrics disables recording.
func NewTracker(store service.KeyValueStore, cfg Config, log logger.Logger, metrics *monitoring.Metrics) *Tracker {
	def := DefaultConfig()
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = def.DailyLimit
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	return &Tracker{
		store:   store,
		config:  cfg,
		logger:  log.WithComponent("usage"),
		metrics: metrics,
	}
}

// Key returns the counter key for identifier.
func (t *Tracker) Key(identifier string) string {
	return t.config.KeyPrefix + ":" + identifier
}

func (t *Tracker) Limit() int64 {
	return t.config.DailyLimit
}

// CheckStatus reports whether identifier has spent its budget.
func (t *Tracker) CheckStatus(ctx context.Context, identifier string) *models.UsageStatus {
	status := &models.UsageStatus{
		Identifier: identifier,
		Limit:      t.config.DailyLimit,
	}
	key := t.Key(identifier)

	raw, found, err := t.store.Get(ctx, key)
	if err != nil {
		t.failOpen(ctx, "usage_get", identifier, err)
		return status
	}
	if found {
		count, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			t.failOpen(ctx, "usage_parse", identifier, convErr)
			return status
		}
		status.Count = count
	}

	if status.Count < t.config.DailyLimit {
		t.metrics.RecordUsageCheck("under_limit")
		return status
	}

	status.AtLimit = true
	t.metrics.RecordUsageCheck("at_limit")

	ttl, exists, err := t.store.TTL(ctx, key)
	switch {
	case err != nil:
		// The count alone is enough to refuse; the message falls back to
		// "come back tomorrow".
		t.logger.Warn(ctx, "Failed to read usage counter TTL",
			logger.String("identifier", identifier),
			logger.Error(err),
		)
	case !exists:
		// Expired between the two reads.
	case ttl < 0:
		ttl = t.repairExpiry(ctx, key, identifier)
		status.SecondsToReset = secondsPtr(ttl)
	default:
		status.SecondsToReset = secondsPtr(ttl)
	}

	return status
}

// repairExpiry gives a counter that lost its first-increment EXPIRE the full
// period so it cannot block the identifier forever.
func (t *Tracker) repairExpiry(ctx context.Context, key, identifier string) time.Duration {
	if err := t.store.Expire(ctx, key, t.config.Period); err != nil {
		t.logger.Error(ctx, "Failed to repair usage counter expiry", err,
			logger.String("identifier", identifier),
		)
	} else {
		t.logger.Warn(ctx, "Repaired usage counter without expiry",
			logger.String("identifier", identifier),
			logger.Duration("period", t.config.Period),
		)
	}
	return t.config.Period
}

// Increment charges one unit to identifier. The first increment of a counter
// starts its period; later ones leave the expiry untouched. Errors are logged
// and swallowed and 0 is returned.
func (t *Tracker) Increment(ctx context.Context, identifier string) int64 {
	key := t.Key(identifier)

	count, err := t.store.Incr(ctx, key)
	if err != nil {
		t.metrics.RecordUsageIncrement(false)
		t.metrics.RecordStoreError("usage_incr")
		t.logger.Error(ctx, "Failed to increment usage counter", err,
			logger.String("identifier", identifier),
		)
		return 0
	}

	if count == 1 {
		if err := t.store.Expire(ctx, key, t.config.Period); err != nil {
			// CheckStatus repairs the missing expiry on the next refusal.
			t.metrics.RecordStoreError("usage_expire")
			t.logger.Error(ctx, "Failed to set usage counter expiry", err,
				logger.String("identifier", identifier),
			)
		}
	}

	t.metrics.RecordUsageIncrement(true)
	t.logger.Debug(ctx, "Usage recorded",
		logger.String("identifier", identifier),
		logger.Int64("count", count),
	)
	return count
}

func (t *Tracker) failOpen(ctx context.Context, operation, identifier string, err error) {
	t.metrics.RecordUsageCheck("error")
	t.metrics.RecordStoreError(operation)
	t.logger.Error(ctx, "Usage check failed, allowing request", err,
		logger.String("identifier", identifier),
		logger.String("operation", operation),
	)
}

func secondsPtr(d time.Duration) *int64 {
	s := int64(d / time.Second)
	return &s
}
