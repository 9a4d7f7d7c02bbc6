// Package http wires the gin engine: global middleware, the guarded API
// routes and the operational endpoints.
package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/internal/domain/service"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/internal/interfaces/http/handlers"
	"github.com/turtacn/genguard/internal/interfaces/http/middleware"
	"github.com/turtacn/genguard/pkg/logger"
)

// Dependencies are the collaborators the router hands to middleware and
// handlers. Metrics, Gatherer, Tracer and Publisher are optional.
type Dependencies struct {
	RateLimiter   service.RateLimitService
	Usage         service.UsageService
	Publisher     service.UsageEventPublisher
	ImageHandler  *handlers.ImageHandler
	HealthHandler *handlers.HealthHandler
	Metrics       *monitoring.Metrics
	Gatherer      prometheus.Gatherer
	Tracer        trace.Tracer
}

// Router owns the gin engine and the HTTP server.
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger logger.Logger
	deps   Dependencies
	server *http.Server
}

// NewRouter creates the router and registers every route.
func NewRouter(cfg *config.Config, log logger.Logger, deps Dependencies) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("genguard/http")
	}

	r := &Router{
		engine: gin.New(),
		config: cfg,
		logger: log.WithComponent("Router"),
		deps:   deps,
	}
	r.setupRoutes()
	r.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r.engine,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	return r
}

// Engine exposes the handler, mainly for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.ObservabilityMiddleware(r.deps.Tracer, r.deps.Metrics))
	r.engine.Use(middleware.AccessLog(r.logger))
	r.engine.Use(cors.New(r.corsConfig()))

	r.engine.GET("/health/live", r.deps.HealthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.deps.HealthHandler.ReadinessCheck)
	r.engine.GET("/metrics", gin.WrapH(r.metricsHandler()))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	rateLimit := middleware.RateLimitMiddleware(r.deps.RateLimiter, r.deps.Publisher, r.logger)
	usageQuota := middleware.UsageQuotaMiddleware(r.deps.Usage, r.config.Usage.ResetSoonThreshold, r.deps.Publisher, r.logger)

	api := r.engine.Group("/api")
	api.Use(middleware.Identifier(), rateLimit)
	{
		// Throttle first, then meter: a throttled request never reads the quota.
		api.POST("/create-image", usageQuota, r.deps.ImageHandler.CreateImage)
		api.GET("/list-images", r.deps.ImageHandler.ListImages)
		api.POST("/generate-suggestion", r.deps.ImageHandler.GenerateSuggestion)
		api.GET("/generate-suggestion", r.deps.ImageHandler.GenerateSuggestion)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "The requested resource was not found"})
	})
}

func (r *Router) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "X-Fingerprint", middleware.HeaderRequestID},
		ExposeHeaders: []string{
			middleware.HeaderRequestID,
			middleware.HeaderRateLimitLimit,
			middleware.HeaderRateLimitRemaining,
			middleware.HeaderRetryAfter,
		},
		MaxAge: 12 * time.Hour,
	}
	origins := r.config.Server.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (r *Router) metricsHandler() http.Handler {
	if r.deps.Gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))
	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}
