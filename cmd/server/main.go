package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	appservice "github.com/turtacn/genguard/internal/application/service"
	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/internal/infrastructure/audit"
	"github.com/turtacn/genguard/internal/infrastructure/gallery"
	"github.com/turtacn/genguard/internal/infrastructure/keepalive"
	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/internal/infrastructure/persistence/redis"
	"github.com/turtacn/genguard/internal/infrastructure/ratelimit"
	"github.com/turtacn/genguard/internal/infrastructure/upstream"
	"github.com/turtacn/genguard/internal/infrastructure/usage"
	"github.com/turtacn/genguard/internal/interfaces/http"
	"github.com/turtacn/genguard/internal/interfaces/http/handlers"
	"github.com/turtacn/genguard/pkg/logger"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to config file")
	pflag.Parse()

	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		log.Fatalf("Failed to create startup logger: %v", err)
	}

	loader := config.NewLoader(*configFile, startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	loader.WatchLogLevel(appLogger.SetLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(context.Background(), "Server exited with error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger logger.Logger) error {
	// Tracing
	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	// Redis
	redisConn := redis.NewRedisConnection(cfg.Redis, appLogger)
	if err := tracing.TraceOperation(ctx, "redis.connect", redisConn.Connect); err != nil {
		return err
	}
	defer redisConn.Close()
	store := redis.NewKVStore(redisConn.GetClient())

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetricsWith(registry)

	// Guards
	limiter, err := ratelimit.NewSlidingWindowLimiter(redisConn.GetClient(), ratelimit.Config{
		Limit:     cfg.RateLimit.Limit,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: cfg.RateLimit.KeyPrefix,
	}, appLogger, ratelimit.WithMetrics(metrics))
	if err != nil {
		return err
	}
	tracker := usage.NewTracker(store, usage.Config{
		DailyLimit: cfg.Usage.DailyLimit,
		Period:     cfg.Usage.Period,
		KeyPrefix:  cfg.Usage.KeyPrefix,
	}, appLogger, metrics)

	// Downstream collaborators
	upstreamClient, err := upstream.NewClient(cfg.Upstream, appLogger)
	if err != nil {
		return err
	}
	catalog := gallery.NewCatalog(store, upstreamClient, gallery.Config{
		CacheKey:         cfg.Gallery.CacheKey,
		DefaultPageLimit: cfg.Gallery.DefaultPageLimit,
		MaxPageLimit:     cfg.Gallery.MaxPageLimit,
		LocalTTL:         cfg.Gallery.LocalTTL,
	}, appLogger, metrics)

	publisher, err := audit.NewPublisher(cfg.Kafka, appLogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	if cfg.Keepalive.Enabled {
		pinger := keepalive.NewPinger(store, cfg.Keepalive.Key, cfg.Keepalive.Interval, appLogger, metrics)
		go pinger.Run(ctx)
	}

	// Application service, handlers and router
	images := appservice.NewImageAppService(upstreamClient, tracker, catalog, publisher, appLogger)

	router := http.NewRouter(cfg, appLogger, http.Dependencies{
		RateLimiter:   limiter,
		Usage:         tracker,
		Publisher:     publisher,
		ImageHandler:  handlers.NewImageHandler(images, cfg.Gallery.DefaultPageLimit),
		HealthHandler: handlers.NewHealthHandler(redisConn, appLogger),
		Metrics:       metrics,
		Gatherer:      registry,
		Tracer:        tracing.Tracer(),
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- router.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info(context.Background(), "Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-serveErr
}
