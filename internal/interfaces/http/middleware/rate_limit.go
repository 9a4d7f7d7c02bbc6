package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/internal/application/dto"
	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitMiddleware admits the caller through the sliding window. A refused
// caller gets 429; a store failure gets a 500 and the request is not served.
func RateLimitMiddleware(limiter service.RateLimitService, publisher service.UsageEventPublisher, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("RateLimitMiddleware")
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := IdentifierFrom(c)

		result, err := limiter.Admit(ctx, id)
		if err != nil {
			log.Error(ctx, "rate limiter unavailable, refusing request", err, logger.String("identifier", id))
			if _, ok := errors.AsAppError(err); !ok {
				err = errors.ErrStoreUnavailable("ratelimit_admit", err)
			}
			dto.SendError(c, err)
			return
		}

		c.Header(HeaderRateLimitLimit, strconv.FormatInt(result.Limit, 10))
		c.Header(HeaderRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			retry := retryAfterSeconds(result.RetryAfter)
			c.Header(HeaderRetryAfter, strconv.FormatInt(retry, 10))
			log.Warn(ctx, "rate limit exceeded",
				logger.String("identifier", id),
				logger.Int64("limit", result.Limit),
				logger.Int64("retry_after_seconds", retry),
			)
			publishEvent(ctx, publisher, log, models.NewUsageEvent(constants.EventRequestThrottled, id, result.Limit, result.Limit))
			dto.SendError(c, errors.ErrRateLimitExceeded(id, result.Limit, result.RetryAfter))
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// publishEvent is best effort; failures are logged only.
func publishEvent(ctx context.Context, publisher service.UsageEventPublisher, log logger.Logger, event *models.UsageEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Warn(ctx, "failed to publish usage event",
			logger.String("event_type", string(event.Type)),
			logger.Error(err),
		)
	}
}
