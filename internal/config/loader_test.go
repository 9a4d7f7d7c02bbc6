package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/genguard/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := LoadConfig(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(10), cfg.RateLimit.Limit)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "ratelimit", cfg.RateLimit.KeyPrefix)
	assert.Equal(t, int64(2), cfg.Usage.DailyLimit)
	assert.Equal(t, 15*time.Hour, cfg.Usage.Period)
	assert.Equal(t, 6*time.Hour, cfg.Usage.ResetSoonThreshold)
	assert.Equal(t, "usagelimit", cfg.Usage.KeyPrefix)
	assert.Equal(t, 9, cfg.Gallery.DefaultPageLimit)
	assert.Equal(t, 100, cfg.Gallery.MaxPageLimit)
	assert.Equal(t, "ping:timestamp", cfg.Keepalive.Key)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
rate_limit:
  limit: 5
  window: 30s
usage:
  daily_limit: 4
  period: 24h
redis:
  host: cache.internal
`)

	cfg, err := LoadConfig(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, int64(4), cfg.Usage.DailyLimit)
	assert.Equal(t, 24*time.Hour, cfg.Usage.Period)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GENGUARD_REDIS_HOST", "from-env")
	t.Setenv("GENGUARD_USAGE_DAILY_LIMIT", "7")
	path := writeConfig(t, "redis:\n  host: from-file\n")

	cfg, err := LoadConfig(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Redis.Host)
	assert.Equal(t, int64(7), cfg.Usage.DailyLimit)
}

func TestLoad_RejectsSharedPrefix(t *testing.T) {
	path := writeConfig(t, "usage:\n  key_prefix: ratelimit\n")

	_, err := LoadConfig(path, logger.NewNoopLogger())
	assert.ErrorContains(t, err, "must differ")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			RateLimit: RateLimitConfig{Limit: 10, Window: time.Minute, KeyPrefix: "ratelimit"},
			Usage:     UsageConfig{DailyLimit: 2, Period: 15 * time.Hour, KeyPrefix: "usagelimit"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero limit", mutate: func(c *Config) { c.RateLimit.Limit = 0 }, wantErr: true},
		{name: "zero period", mutate: func(c *Config) { c.Usage.Period = 0 }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "tracing without endpoint", mutate: func(c *Config) { c.Tracing.Enabled = true }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
