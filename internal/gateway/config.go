package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tronmegateam/statsgate/internal/coingecko"
	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/server"
	"github.com/tronmegateam/statsgate/internal/trongrid"
	"github.com/tronmegateam/statsgate/internal/tronscan"
)

// Config is the top-level configuration for the statsgate gateway.
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Tronscan configures the explorer API connection.
	Tronscan tronscan.Config `yaml:"tronscan"`

	// Coingecko configures the price API connection.
	Coingecko coingecko.Config `yaml:"coingecko"`

	// Trongrid configures the node directory connection.
	Trongrid trongrid.Config `yaml:"trongrid"`

	// Server configures the gateway HTTP API.
	Server server.Config `yaml:"server"`

	// Health configures the Prometheus health metrics server.
	Health health.Config `yaml:"health"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server:   server.DefaultConfig(),
		Health: health.Config{
			Addr: ":9090",
		},
	}
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for required fields and
// consistency.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}
