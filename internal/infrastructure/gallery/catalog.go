// Package gallery serves the paginated list of generated images, cached in
// Redis and briefly in process.
package gallery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

var _ service.ImageCatalog = (*Catalog)(nil)

// Config holds gallery settings.
type Config struct {
	CacheKey         string
	DefaultPageLimit int
	MaxPageLimit     int
	// LocalTTL bounds how stale another instance's invalidation can leave
	// this one.
	LocalTTL time.Duration
}

// Catalog reads through three tiers: an in-process go-cache copy, the
// Redis document, and finally the upstream blob listing. Concurrent misses
// on one instance share a single upstream call.
type Catalog struct {
	store    service.KeyValueStore
	upstream service.ImageUpstream
	local    *cache.Cache
	sf       singleflight.Group
	config   Config
	logger   logger.Logger
	metrics  *monitoring.Metrics
}

// NewCatalog creates a catalog. metrics may be nil.
func NewCatalog(store service.KeyValueStore, upstream service.ImageUpstream, cfg Config, log logger.Logger, metrics *monitoring.Metrics) *Catalog {
	if cfg.CacheKey == "" {
		cfg.CacheKey = constants.GalleryCacheKey
	}
	if cfg.DefaultPageLimit <= 0 {
		cfg.DefaultPageLimit = constants.GalleryDefaultPageLimit
	}
	if cfg.MaxPageLimit < cfg.DefaultPageLimit {
		cfg.MaxPageLimit = max(constants.GalleryMaxPageLimit, cfg.DefaultPageLimit)
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = constants.GalleryDefaultLocalTTL
	}
	return &Catalog{
		store:    store,
		upstream: upstream,
		local:    cache.New(cfg.LocalTTL, 2*cfg.LocalTTL),
		config:   cfg,
		logger:   log.WithComponent("gallery"),
		metrics:  metrics,
	}
}

// Page returns one page of the gallery. Non-positive page or limit select
// the defaults; limit is capped at MaxPageLimit.
func (c *Catalog) Page(ctx context.Context, page, limit int) (*models.GalleryPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = c.config.DefaultPageLimit
	}
	limit = min(limit, c.config.MaxPageLimit)

	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return Paginate(doc.AllImages, doc.TotalBlobs, page, limit), nil
}

// Invalidate drops the cached gallery after a new image was stored.
func (c *Catalog) Invalidate(ctx context.Context) error {
	c.local.Delete(c.config.CacheKey)
	if _, err := c.store.Delete(ctx, c.config.CacheKey); err != nil {
		c.logger.Error(ctx, "Failed to invalidate gallery cache", err)
		return err
	}
	c.logger.Debug(ctx, "Gallery cache invalidated")
	return nil
}

func (c *Catalog) load(ctx context.Context) (*models.GalleryCache, error) {
	if v, ok := c.local.Get(c.config.CacheKey); ok {
		c.metrics.RecordCacheAccess("local", true)
		return v.(*models.GalleryCache), nil
	}
	c.metrics.RecordCacheAccess("local", false)

	// Shared by every waiting caller, so one client going away must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.sf.Do(c.config.CacheKey, func() (interface{}, error) {
		ctx := loadCtx
		if doc, ok := c.loadShared(ctx); ok {
			c.local.SetDefault(c.config.CacheKey, doc)
			return doc, nil
		}

		blobs, err := c.upstream.ListImages(ctx)
		if err != nil {
			return nil, err
		}
		doc := &models.GalleryCache{
			AllImages:  GroupBlobs(blobs),
			TotalBlobs: len(blobs),
		}
		c.logger.Info(ctx, "Gallery rebuilt from storage",
			logger.Int("blobs", len(blobs)),
			logger.Int("images", len(doc.AllImages)),
		)

		c.storeShared(ctx, doc)
		c.local.SetDefault(c.config.CacheKey, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.GalleryCache), nil
}

// loadShared reads the Redis copy. Any failure is treated as a miss.
func (c *Catalog) loadShared(ctx context.Context) (*models.GalleryCache, bool) {
	raw, found, err := c.store.Get(ctx, c.config.CacheKey)
	if err != nil {
		c.logger.Warn(ctx, "Gallery cache read failed, falling back to storage", logger.Error(err))
		return nil, false
	}
	if !found {
		c.metrics.RecordCacheAccess("redis", false)
		return nil, false
	}

	var doc models.GalleryCache
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		c.logger.Warn(ctx, "Discarding unreadable gallery cache", logger.Error(err))
		return nil, false
	}
	c.metrics.RecordCacheAccess("redis", true)
	return &doc, true
}

func (c *Catalog) storeShared(ctx context.Context, doc *models.GalleryCache) {
	payload, err := json.Marshal(doc)
	if err != nil {
		c.logger.Error(ctx, "Failed to encode gallery cache", err)
		return
	}
	if err := c.store.Set(ctx, c.config.CacheKey, string(payload), 0); err != nil {
		c.logger.Warn(ctx, "Failed to write gallery cache", logger.Error(err))
	}
}
