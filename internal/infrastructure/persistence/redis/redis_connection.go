// Package redis provides Redis connection management and the key-value store
// adapter used by the limiter, the usage tracker and the maintenance tooling.
// It supports standalone, cluster and sentinel deployment modes.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/pkg/logger"
)

var _ RedisConnectionManager = (*RedisConnection)(nil)

// RedisConnectionManager is what the rest of the application needs from a
// connection: a client and a way to check it.
type RedisConnectionManager interface {
	GetClient() redis.UniversalClient
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) (map[string]interface{}, error)
	Close() error
}

// ConnectionMode defines Redis deployment mode
type ConnectionMode string

const (
	// ModeStandalone represents single Redis instance
	ModeStandalone ConnectionMode = "standalone"
	// ModeCluster represents Redis cluster mode
	ModeCluster ConnectionMode = "cluster"
	// ModeSentinel represents Redis sentinel mode for high availability
	ModeSentinel ConnectionMode = "sentinel"
)

// RedisConnection manages Redis client lifecycle and health monitoring.
type RedisConnection struct {
	config        config.RedisConfig
	client        redis.UniversalClient
	logger        logger.Logger
	isInitialized bool
}

// NewRedisConnection creates a connection manager. Call Connect before use.
func NewRedisConnection(cfg config.RedisConfig, log logger.Logger) *RedisConnection {
	return &RedisConnection{
		config: cfg,
		logger: log.WithComponent("redis"),
	}
}

// NewRedisConnectionFromClient wraps an existing client, e.g. one pointed at
// miniredis in tests.
func NewRedisConnectionFromClient(client redis.UniversalClient, log logger.Logger) *RedisConnection {
	return &RedisConnection{
		client:        client,
		logger:        log.WithComponent("redis"),
		isInitialized: true,
	}
}

// Connect establishes the connection according to the configured mode and
// verifies it with a PING.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.isInitialized {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}

	rc.setDefaults()

	var client redis.UniversalClient
	var err error

	switch ConnectionMode(rc.config.Mode) {
	case ModeStandalone:
		client, err = rc.connectStandalone(ctx)
	case ModeCluster:
		client, err = rc.connectCluster(ctx)
	case ModeSentinel:
		client, err = rc.connectSentinel(ctx)
	default:
		return fmt.Errorf("unsupported Redis mode: %s", rc.config.Mode)
	}
	if err != nil {
		rc.logger.Error(ctx, "Failed to establish Redis connection", err,
			logger.String("mode", rc.config.Mode),
		)
		return fmt.Errorf("redis connection failed: %w", err)
	}

	if rc.config.Instrument {
		if err := instrument(client); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis instrumentation failed: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, rc.config.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err)
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.isInitialized = true
	rc.logger.Info(ctx, "Redis connection established",
		logger.String("mode", rc.config.Mode),
		logger.Int("pool_size", rc.config.PoolSize),
	)

	return nil
}

func instrument(client redis.UniversalClient) error {
	if err := redisotel.InstrumentTracing(client); err != nil {
		return err
	}
	return redisotel.InstrumentMetrics(client)
}

func (rc *RedisConnection) connectStandalone(ctx context.Context) (redis.UniversalClient, error) {
	addr := fmt.Sprintf("%s:%d", rc.config.Host, rc.config.Port)

	opts := &redis.Options{
		Addr:         addr,
		Username:     rc.config.Username,
		Password:     rc.config.Password,
		DB:           rc.config.DB,
		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,
		MaxRetries:   rc.config.MaxRetries,
		TLSConfig:    rc.buildTLSConfig(),
	}

	rc.logger.Info(ctx, "Connecting to Redis standalone",
		logger.String("addr", addr),
		logger.Int("db", rc.config.DB),
	)

	return redis.NewClient(opts), nil
}

func (rc *RedisConnection) connectCluster(ctx context.Context) (redis.UniversalClient, error) {
	if len(rc.config.ClusterAddrs) == 0 {
		return nil, fmt.Errorf("cluster addresses not configured")
	}

	opts := &redis.ClusterOptions{
		Addrs:        rc.config.ClusterAddrs,
		Username:     rc.config.Username,
		Password:     rc.config.Password,
		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,
		MaxRetries:   rc.config.MaxRetries,
		TLSConfig:    rc.buildTLSConfig(),
	}

	rc.logger.Info(ctx, "Connecting to Redis cluster",
		logger.Any("addrs", rc.config.ClusterAddrs),
	)

	return redis.NewClusterClient(opts), nil
}

func (rc *RedisConnection) connectSentinel(ctx context.Context) (redis.UniversalClient, error) {
	if len(rc.config.SentinelAddrs) == 0 {
		return nil, fmt.Errorf("sentinel addresses not configured")
	}
	if rc.config.SentinelMaster == "" {
		return nil, fmt.Errorf("sentinel master name not configured")
	}

	opts := &redis.FailoverOptions{
		MasterName:    rc.config.SentinelMaster,
		SentinelAddrs: rc.config.SentinelAddrs,
		Username:      rc.config.Username,
		Password:      rc.config.Password,
		DB:            rc.config.DB,
		PoolSize:      rc.config.PoolSize,
		MinIdleConns:  rc.config.MinIdleConns,
		DialTimeout:   rc.config.DialTimeout,
		ReadTimeout:   rc.config.ReadTimeout,
		WriteTimeout:  rc.config.WriteTimeout,
		MaxRetries:    rc.config.MaxRetries,
		TLSConfig:     rc.buildTLSConfig(),
	}

	rc.logger.Info(ctx, "Connecting to Redis sentinel",
		logger.String("master", rc.config.SentinelMaster),
		logger.Any("sentinels", rc.config.SentinelAddrs),
	)

	return redis.NewFailoverClient(opts), nil
}

// buildTLSConfig returns nil when TLS is disabled.
func (rc *RedisConnection) buildTLSConfig() *tls.Config {
	if !rc.config.EnableTLS {
		return nil
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: rc.config.TLSSkipVerify, //nolint:gosec // opt-in for managed Redis with private CAs
	}
}

func (rc *RedisConnection) setDefaults() {
	if rc.config.Mode == "" {
		rc.config.Mode = string(ModeStandalone)
	}
	if rc.config.Host == "" {
		rc.config.Host = "localhost"
	}
	if rc.config.Port == 0 {
		rc.config.Port = 6379
	}
	if rc.config.PoolSize == 0 {
		rc.config.PoolSize = 10
	}
	if rc.config.MinIdleConns == 0 {
		rc.config.MinIdleConns = 2
	}
	if rc.config.DialTimeout == 0 {
		rc.config.DialTimeout = 5 * time.Second
	}
	if rc.config.ReadTimeout == 0 {
		rc.config.ReadTimeout = 3 * time.Second
	}
	if rc.config.WriteTimeout == 0 {
		rc.config.WriteTimeout = 3 * time.Second
	}
	if rc.config.MaxRetries == 0 {
		rc.config.MaxRetries = 3
	}
}

// GetClient returns the client, or nil before Connect.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	if !rc.isInitialized {
		return nil
	}
	return rc.client
}

// Ping checks Redis server connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	if !rc.isInitialized {
		return fmt.Errorf("redis connection not initialized")
	}
	return rc.client.Ping(ctx).Err()
}

// HealthCheck pings Redis and reports latency and pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if !rc.isInitialized {
		return nil, fmt.Errorf("redis connection not initialized")
	}

	health := make(map[string]interface{})

	start := time.Now()
	err := rc.client.Ping(ctx).Err()
	health["connected"] = err == nil
	health["latency_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		health["error"] = err.Error()
		return health, err
	}

	stats := rc.client.PoolStats()
	health["total_conns"] = stats.TotalConns
	health["idle_conns"] = stats.IdleConns
	health["pool_timeouts"] = stats.Timeouts

	return health, nil
}

// Close releases the client.
func (rc *RedisConnection) Close() error {
	if !rc.isInitialized {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return err
	}
	rc.isInitialized = false
	rc.logger.Info(context.Background(), "Redis connection closed")
	return nil
}
