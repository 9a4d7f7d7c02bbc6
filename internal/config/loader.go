package config

import (
	"context"
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

// EnvPrefix is prepended to every environment override, e.g. GENGUARD_REDIS_HOST.
const EnvPrefix = "GENGUARD"

// Loader reads configuration from file, environment variables and defaults.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
}

// NewLoader creates a loader. configFile may be empty, in which case
// config.yaml is searched in /etc/genguard/ and the working directory.
func NewLoader(configFile string, log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/genguard/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		l.log.Info(context.Background(), "No config file found, using defaults and environment")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WatchLogLevel re-reads log.level whenever the config file changes and hands
// it to apply. Only the log level is hot-reloaded; every other setting needs a
// restart.
func (l *Loader) WatchLogLevel(apply func(level string) error) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		level := l.v.GetString("log.level")
		if err := apply(level); err != nil {
			l.log.Warn(context.Background(), "Ignoring invalid log level from config change",
				logger.String("file", e.Name),
				logger.String("level", level),
			)
			return
		}
		l.log.Info(context.Background(), "Log level reloaded",
			logger.String("file", e.Name),
			logger.String("level", level),
		)
	})
	l.v.WatchConfig()
}

// LoadConfig is a convenience wrapper around NewLoader(configFile).Load().
func LoadConfig(configFile string, log logger.Logger) (*Config, error) {
	return NewLoader(configFile, log).Load()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("redis.mode", "standalone")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.instrument", true)

	v.SetDefault("rate_limit.limit", constants.RateLimitDefaultLimit)
	v.SetDefault("rate_limit.window", constants.RateLimitDefaultWindow)
	v.SetDefault("rate_limit.key_prefix", constants.RateLimitKeyPrefix)

	v.SetDefault("usage.daily_limit", constants.UsageDefaultDailyLimit)
	v.SetDefault("usage.period", constants.UsageDefaultPeriod)
	v.SetDefault("usage.reset_soon_threshold", constants.UsageResetSoonThreshold)
	v.SetDefault("usage.key_prefix", constants.UsageKeyPrefix)

	v.SetDefault("gallery.cache_key", constants.GalleryCacheKey)
	v.SetDefault("gallery.default_page_limit", constants.GalleryDefaultPageLimit)
	v.SetDefault("gallery.max_page_limit", constants.GalleryMaxPageLimit)
	v.SetDefault("gallery.local_ttl", constants.GalleryDefaultLocalTTL)

	v.SetDefault("upstream.base_url", "http://localhost:9090")
	v.SetDefault("upstream.timeout", "90s")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.usage_topic", "genguard.usage")
	v.SetDefault("kafka.write_timeout", "5s")
	v.SetDefault("kafka.batch_timeout", "50ms")
	v.SetDefault("kafka.required_acks", 1)

	v.SetDefault("keepalive.enabled", true)
	v.SetDefault("keepalive.interval", constants.KeepaliveDefaultInterval)
	v.SetDefault("keepalive.key", constants.KeepaliveKey)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "genguard")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("monitoring.pprof_enabled", false)
}
