package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/internal/application/dto"
	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/errors"
	"github.com/turtacn/genguard/pkg/logger"
)

// UsageQuotaMiddleware refuses callers whose daily budget is spent. The check
// fails open: CheckStatus never reports a store failure as at-limit.
func UsageQuotaMiddleware(usage service.UsageService, resetSoonThreshold time.Duration, publisher service.UsageEventPublisher, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("UsageQuotaMiddleware")
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := IdentifierFrom(c)

		status := usage.CheckStatus(ctx, id)
		if status == nil || !status.AtLimit {
			c.Next()
			return
		}

		ttl := status.TTL()
		fields := []logger.Field{
			logger.String("identifier", id),
			logger.Int64("count", status.Count),
			logger.Int64("limit", status.Limit),
		}
		if ttl != nil {
			fields = append(fields, logger.Duration("ttl", *ttl))
		}
		log.Info(ctx, "daily usage limit reached", fields...)

		publishEvent(ctx, publisher, log, models.NewUsageEvent(constants.EventUsageExhausted, id, status.Count, status.Limit))
		dto.SendError(c, errors.ErrQuotaExhausted(id, ttl, resetSoonThreshold))
	}
}
