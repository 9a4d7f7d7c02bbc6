package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Usage      UsageConfig      `mapstructure:"usage"`
	Gallery    GalleryConfig    `mapstructure:"gallery"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Keepalive  KeepaliveConfig  `mapstructure:"keepalive"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RedisConfig struct {
	Mode           string        `mapstructure:"mode"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ClusterAddrs   []string      `mapstructure:"cluster_addrs"`
	SentinelAddrs  []string      `mapstructure:"sentinel_addrs"`
	SentinelMaster string        `mapstructure:"sentinel_master"`
	PoolSize       int           `mapstructure:"pool_size"`
	MinIdleConns   int           `mapstructure:"min_idle_conns"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	EnableTLS      bool          `mapstructure:"enable_tls"`
	TLSSkipVerify  bool          `mapstructure:"tls_skip_verify"`
	Instrument     bool          `mapstructure:"instrument"`
}

type RateLimitConfig struct {
	Limit     int64         `mapstructure:"limit"`
	Window    time.Duration `mapstructure:"window"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type UsageConfig struct {
	DailyLimit         int64         `mapstructure:"daily_limit"`
	Period             time.Duration `mapstructure:"period"`
	ResetSoonThreshold time.Duration `mapstructure:"reset_soon_threshold"`
	KeyPrefix          string        `mapstructure:"key_prefix"`
}

type GalleryConfig struct {
	CacheKey         string        `mapstructure:"cache_key"`
	DefaultPageLimit int           `mapstructure:"default_page_limit"`
	MaxPageLimit     int           `mapstructure:"max_page_limit"`
	LocalTTL         time.Duration `mapstructure:"local_ttl"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	UsageTopic   string        `mapstructure:"usage_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

type KeepaliveConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Key      string        `mapstructure:"key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate_limit.limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Usage.DailyLimit <= 0 {
		return fmt.Errorf("usage.daily_limit must be positive, got %d", c.Usage.DailyLimit)
	}
	if c.Usage.Period <= 0 {
		return fmt.Errorf("usage.period must be positive, got %s", c.Usage.Period)
	}
	if c.RateLimit.KeyPrefix == "" || c.Usage.KeyPrefix == "" {
		return fmt.Errorf("rate_limit.key_prefix and usage.key_prefix must be set")
	}
	if c.RateLimit.KeyPrefix == c.Usage.KeyPrefix {
		return fmt.Errorf("rate_limit.key_prefix and usage.key_prefix must differ, both are %q", c.Usage.KeyPrefix)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must be set when kafka is enabled")
	}
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint must be set when tracing is enabled")
	}
	return nil
}
