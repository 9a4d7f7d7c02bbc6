package service

import (
	"context"
	"time"

	"github.com/turtacn/genguard/internal/domain/models"
)

// KeyValueStore is the subset of Redis the limiter, the usage tracker and the
// maintenance tooling rely on.
type KeyValueStore interface {
	// Get returns found=false for a missing key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes keys and reports how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns exists=false for a missing key. A key without expiry is
	// reported as exists=true with a negative ttl.
	TTL(ctx context.Context, key string) (ttl time.Duration, exists bool, err error)
	// Scan returns one page of keys matching match and the next cursor; a
	// returned cursor of 0 ends the iteration.
	Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)
	FlushAll(ctx context.Context) error
	Ping(ctx context.Context) error
}

// RateLimitService admits or refuses requests under a rolling window.
//
//go:generate mockery --name RateLimitService --output mocks --outpkg mocks
type RateLimitService interface {
	// Admit records an admission if the identifier has room in its window.
	// Store failures are returned as errors and never count as a decision.
	Admit(ctx context.Context, identifier string) (*models.RateLimitResult, error)
}

// UsageService meters guarded operations against a daily budget.
//
//go:generate mockery --name UsageService --output mocks --outpkg mocks
type UsageService interface {
	// CheckStatus never fails. Store errors yield a not-at-limit status.
	CheckStatus(ctx context.Context, identifier string) *models.UsageStatus
	// Increment charges one unit. Store errors are logged and swallowed.
	// It returns the new count, or 0 when the increment failed.
	Increment(ctx context.Context, identifier string) int64
	// Limit returns the configured budget.
	Limit() int64
}

// ImageUpstream is the external generation service.
//
//go:generate mockery --name ImageUpstream --output mocks --outpkg mocks
type ImageUpstream interface {
	OptimizePrompt(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*models.GeneratedImage, error)
	SuggestPrompt(ctx context.Context, style string) (string, error)
	ListImages(ctx context.Context) ([]models.StoredBlob, error)
}

// ImageCatalog serves the cached gallery.
//
//go:generate mockery --name ImageCatalog --output mocks --outpkg mocks
type ImageCatalog interface {
	Page(ctx context.Context, page, limit int) (*models.GalleryPage, error)
	Invalidate(ctx context.Context) error
}

// UsageEventPublisher ships usage events to the audit pipeline.
//
//go:generate mockery --name UsageEventPublisher --output mocks --outpkg mocks
type UsageEventPublisher interface {
	Publish(ctx context.Context, event *models.UsageEvent) error
	Close() error
}
