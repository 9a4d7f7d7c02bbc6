package redis

import "github.com/turtacn/genguard/internal/config"

func configWithMode(mode string) config.RedisConfig {
	return config.RedisConfig{Mode: mode}
}
