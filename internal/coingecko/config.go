package coingecko

import "time"

// Config holds configuration for the CoinGecko price API client.
type Config struct {
	// Endpoint is the base URL of the price API.
	// Defaults to https://api.coingecko.com/api/v3.
	Endpoint string `yaml:"endpoint"`

	// Timeout for HTTP requests to the price API.
	// Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultEndpoint is the public CoinGecko API base URL.
const DefaultEndpoint = "https://api.coingecko.com/api/v3"
