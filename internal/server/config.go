package server

import (
	"errors"
	"time"

	"github.com/tronmegateam/statsgate/internal/signup"
)

// Config configures the gateway HTTP server.
type Config struct {
	// Addr is the address to listen on.
	// Defaults to :8080.
	Addr string `yaml:"addr"`

	// CORSOrigin is served in Access-Control-Allow-Origin on /api/
	// routes. Defaults to *.
	CORSOrigin string `yaml:"cors_origin"`

	// ReadTimeout bounds request reads. Defaults to 10s.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes. Defaults to 30s.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Relay lists the signup forwarding destinations.
	Relay signup.RelayConfig `yaml:"relay"`

	// Cache configures the optional dashboard response cache.
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig configures the Redis-backed dashboard cache. An empty
// Addr disables caching.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// TTL is how long a cached dashboard bundle stays fresh.
	// Defaults to 30s.
	TTL time.Duration `yaml:"ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		CORSOrigin:   "*",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}

	if c.Cache.Addr != "" && c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive when cache.addr is set")
	}

	return nil
}
