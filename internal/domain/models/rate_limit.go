package models

import "time"

// RateLimitResult is the outcome of one sliding-window admission attempt.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// RetryAfter is zero when Allowed is true.
	RetryAfter time.Duration
}
