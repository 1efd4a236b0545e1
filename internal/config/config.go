// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings, read from environment variables.
// A .env file is loaded by godotenv before this is parsed.
type Config struct {
	// Port the HTTP/WebSocket server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// RedisAddr is the host:port of the shared Redis instance.
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	// RedisDB selects the Redis logical database.
	RedisDB int `env:"REDIS_DB" envDefault:"0"`

	// SessionTTL bounds how long a socket->lobby binding survives without
	// cleanup. Self-healing against missed disconnects, not active eviction.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// StoreTimeout bounds each round trip against the store so a stalled
	// Redis does not leak suspended handler goroutines.
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
