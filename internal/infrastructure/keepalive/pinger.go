// Package keepalive periodically writes to Redis so hosted plans that evict
// idle databases keep this one.
package keepalive

import (
	"context"
	"time"

	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

// Pinger writes the current time to Key every Interval.
type Pinger struct {
	store    service.KeyValueStore
	key      string
	interval time.Duration
	logger   logger.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// NewPinger creates a pinger. Zero values fall back to the defaults.
func NewPinger(store service.KeyValueStore, key string, interval time.Duration, log logger.Logger, metrics *monitoring.Metrics) *Pinger {
	if key == "" {
		key = constants.KeepaliveKey
	}
	if interval <= 0 {
		interval = constants.KeepaliveDefaultInterval
	}
	return &Pinger{
		store:    store,
		key:      key,
		interval: interval,
		logger:   log.WithComponent("keepalive"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Ping writes one timestamp.
func (p *Pinger) Ping(ctx context.Context) error {
	ts := p.now().UTC().Format(time.RFC3339)
	if err := p.store.Set(ctx, p.key, ts, 0); err != nil {
		p.metrics.RecordStoreError("keepalive")
		p.logger.Error(ctx, "Keepalive write failed", err, logger.String("key", p.key))
		return err
	}
	p.logger.Debug(ctx, "Keepalive written", logger.String("timestamp", ts))
	return nil
}

// Run pings once immediately and then every interval until ctx is done.
// Failures are logged and never stop the loop.
func (p *Pinger) Run(ctx context.Context) {
	_ = p.Ping(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Ping(ctx)
		}
	}
}
