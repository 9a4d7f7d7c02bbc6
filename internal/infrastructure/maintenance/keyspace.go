// Package maintenance implements the administrative keyspace operations used
// by the admin CLI.
package maintenance

import (
	"context"
	"fmt"

	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

// ClearResult reports what ClearByPrefix removed.
type ClearResult struct {
	Prefix     string
	Identifier string
	Matched    int
	Deleted    int64
}

// Keyspace clears limiter and usage records.
type Keyspace struct {
	store     service.KeyValueStore
	logger    logger.Logger
	metrics   *monitoring.Metrics
	pageSize  int64
	batchSize int
}

// NewKeyspace creates a Keyspace on store. metrics may be nil.
func NewKeyspace(store service.KeyValueStore, log logger.Logger, metrics *monitoring.Metrics) *Keyspace {
	return &Keyspace{
		store:     store,
		logger:    log.WithComponent("maintenance"),
		metrics:   metrics,
		pageSize:  constants.ScanPageSize,
		batchSize: constants.DeleteBatchSize,
	}
}

// ClearByPrefix deletes {prefix}:{identifier} when identifier is set, or
// every key under {prefix}:* otherwise. No matches is not an error.
func (k *Keyspace) ClearByPrefix(ctx context.Context, prefix, identifier string) (*ClearResult, error) {
	if prefix == "" {
		return nil, fmt.Errorf("prefix is required")
	}
	result := &ClearResult{Prefix: prefix, Identifier: identifier}

	if identifier != "" {
		key := prefix + ":" + identifier
		deleted, err := k.store.Delete(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", key, err)
		}
		result.Matched = int(deleted)
		result.Deleted = deleted
		k.report(ctx, result)
		return result, nil
	}

	keys, err := k.scanAll(ctx, prefix+":*")
	if err != nil {
		return nil, err
	}
	result.Matched = len(keys)

	for start := 0; start < len(keys); start += k.batchSize {
		end := min(start+k.batchSize, len(keys))
		deleted, err := k.store.Delete(ctx, keys[start:end]...)
		if err != nil {
			return result, fmt.Errorf("delete batch %d-%d under %s: %w", start, end, prefix, err)
		}
		result.Deleted += deleted
	}

	k.report(ctx, result)
	return result, nil
}

// scanAll walks the cursor until it returns to 0. SCAN may repeat keys, so
// the result is deduplicated.
func (k *Keyspace) scanAll(ctx context.Context, match string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
		seen   = make(map[string]struct{})
	)
	for {
		page, next, err := k.store.Scan(ctx, cursor, match, k.pageSize)
		if err != nil {
			return nil, fmt.Errorf("scan %s at cursor %d: %w", match, cursor, err)
		}
		for _, key := range page {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// FlushAll empties the configured database.
func (k *Keyspace) FlushAll(ctx context.Context) error {
	if err := k.store.FlushAll(ctx); err != nil {
		return fmt.Errorf("flush database: %w", err)
	}
	k.logger.Warn(ctx, "Database flushed")
	return nil
}

func (k *Keyspace) report(ctx context.Context, r *ClearResult) {
	k.metrics.RecordKeysCleared(r.Prefix, r.Deleted)
	k.logger.Info(ctx, "Cleared keys",
		logger.String("prefix", r.Prefix),
		logger.String("identifier", r.Identifier),
		logger.Int("matched", r.Matched),
		logger.Int64("deleted", r.Deleted),
	)
}
