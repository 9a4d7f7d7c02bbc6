// Package constants defines system-wide constants for the genguard service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Identifier Resolution Constants
// ================================================================================

const (
	// HeaderFingerprint carries the browser fingerprint computed by the frontend
	HeaderFingerprint = "x-fingerprint"

	// HeaderForwardedFor carries the proxy chain, client address first
	HeaderForwardedFor = "x-forwarded-for"

	// FallbackIdentifier is used when neither header yields an identifier
	FallbackIdentifier = "127.0.0.1"
)

// ================================================================================
// Sliding-Window Rate Limit Constants
// ================================================================================

const (
	// RateLimitDefaultLimit is the number of admissions per rolling window
	RateLimitDefaultLimit = 10

	// RateLimitDefaultWindow is the length of the rolling window
	RateLimitDefaultWindow = 60 * time.Second

	// RateLimitKeyPrefix namespaces window counter records
	RateLimitKeyPrefix = "ratelimit"
)

// ================================================================================
// Daily Usage Quota Constants
// ================================================================================

const (
	// UsageDefaultDailyLimit is the number of guarded operations per quota period
	UsageDefaultDailyLimit = 2

	// UsageDefaultPeriod is the TTL set on a usage counter when it is created
	UsageDefaultPeriod = 15 * time.Hour

	// UsageResetSoonThreshold selects the "resets shortly" message below this TTL
	UsageResetSoonThreshold = 6 * time.Hour

	// UsageKeyPrefix namespaces usage counter records
	UsageKeyPrefix = "usagelimit"
)

// ================================================================================
// Maintenance Constants
// ================================================================================

const (
	// ScanPageSize is the COUNT hint passed to every SCAN call
	ScanPageSize = 100

	// DeleteBatchSize caps the number of keys in a single DEL
	DeleteBatchSize = 500
)

// ================================================================================
// Gallery Constants
// ================================================================================

const (
	// GalleryCacheKey holds the full, sorted gallery as JSON
	GalleryCacheKey = "images:all"

	// GalleryDefaultPageLimit is the page size used when none is requested
	GalleryDefaultPageLimit = 9

	// GalleryMaxPageLimit caps the page size a client may request
	GalleryMaxPageLimit = 100

	// GalleryDefaultLocalTTL is the lifetime of the in-process gallery copy
	GalleryDefaultLocalTTL = 5 * time.Second

	// OriginalImageSuffix marks blobs that are not a processed size variant
	OriginalImageSuffix = "_original"
)

// ImageVariantSuffixes lists processed variant suffixes in the order they are
// matched against blob names.
var ImageVariantSuffixes = []string{"_small", "_medium", "_large"}

// DefaultURLPreference is the order in which variants are picked for the
// default gallery URL.
var DefaultURLPreference = []string{"_medium", "_large", "_small"}

// ================================================================================
// Prompt Constants
// ================================================================================

const (
	// InsufficientDetailKey is returned by the optimiser for prompts that are too vague
	InsufficientDetailKey = "insufficient_detail"

	// PromptSourceCustom marks prompts typed by the user
	PromptSourceCustom = "custom"

	// PromptSourceSuggestion marks prompts produced by the suggestion endpoint
	PromptSourceSuggestion = "suggestion"
)

// ================================================================================
// Keepalive Constants
// ================================================================================

const (
	// KeepaliveKey receives the timestamp of the last keepalive write
	KeepaliveKey = "ping:timestamp"

	// KeepaliveDefaultInterval matches the daily schedule of the hosted store
	KeepaliveDefaultInterval = 24 * time.Hour
)

// ================================================================================
// Usage Event Constants
// ================================================================================

// UsageEventType identifies the kind of usage event published to Kafka
type UsageEventType string

const (
	// EventUsageRecorded is emitted after a usage counter increment
	EventUsageRecorded UsageEventType = "usage.recorded"

	// EventUsageExhausted is emitted when a caller is refused for quota
	EventUsageExhausted UsageEventType = "usage.exhausted"

	// EventRequestThrottled is emitted when the sliding window refuses a request
	EventRequestThrottled UsageEventType = "request.throttled"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type used for values stored in request contexts
type ContextKey string

const (
	// ContextKeyRequestID holds the request id
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyIdentifier holds the resolved caller identifier
	ContextKeyIdentifier ContextKey = "identifier"
)

// GinKeyIdentifier is the gin.Context key for the resolved caller identifier.
const GinKeyIdentifier = "identifier"

// ================================================================================
// Logging
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
