package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

// ObservabilityMiddleware opens a span per request and records latency and
// in-flight metrics. Paths are the route templates to keep label cardinality low.
func ObservabilityMiddleware(tracer trace.Tracer, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.RequestsInFlight.Inc()
			defer metrics.RequestsInFlight.Dec()
		}

		c.Next()

		status := c.Writer.Status()
		metrics.ObserveRequest(path, c.Request.Method, strconv.Itoa(status), time.Since(start))

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", path),
			attribute.Int("http.status_code", status),
			attribute.String("genguard.identifier", c.GetString(constants.GinKeyIdentifier)),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id))
		c.Next()
	}
}

// AccessLog logs one line per request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "request processed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()),
			logger.String("identifier", c.GetString(constants.GinKeyIdentifier)),
		)
	}
}
