package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/genguard/pkg/constants"
)

// UsageStatus describes how much of the daily quota an identifier has spent.
type UsageStatus struct {
	AtLimit    bool
	Identifier string
	Count      int64
	Limit      int64
	// SecondsToReset is only set when AtLimit is true and the counter still
	// existed when its TTL was read.
	SecondsToReset *int64
}

// TTL returns SecondsToReset as a duration, or nil.
func (s *UsageStatus) TTL() *time.Duration {
	if s == nil || s.SecondsToReset == nil {
		return nil
	}
	d := time.Duration(*s.SecondsToReset) * time.Second
	return &d
}

// UsageEvent is published whenever a caller is metered, refused or throttled.
type UsageEvent struct {
	ID         string                   `json:"id"`
	Type       constants.UsageEventType `json:"type"`
	Identifier string                   `json:"identifier"`
	Count      int64                    `json:"count"`
	Limit      int64                    `json:"limit"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// NewUsageEvent creates an event stamped with a fresh id and the current time.
func NewUsageEvent(eventType constants.UsageEventType, identifier string, count, limit int64) *UsageEvent {
	return &UsageEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Identifier: identifier,
		Count:      count,
		Limit:      limit,
		OccurredAt: time.Now().UTC(),
	}
}
