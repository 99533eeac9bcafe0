package tronscan

import "time"

// Config holds configuration for the TRON explorer API client.
type Config struct {
	// Endpoint is the base URL of the explorer API.
	// Defaults to https://apilist.tronscanapi.com/api.
	Endpoint string `yaml:"endpoint"`

	// APIKey is sent as TRON-PRO-API-KEY when set.
	APIKey string `yaml:"api_key"`

	// Timeout for HTTP requests to the explorer API.
	// Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`

	// BatchDelay is the politeness delay inserted between requests
	// of a batch fan-out, to stay clear of the explorer's rate
	// limits. Defaults to 300ms.
	BatchDelay time.Duration `yaml:"batch_delay"`
}

// DefaultEndpoint is the public explorer API base URL.
const DefaultEndpoint = "https://apilist.tronscanapi.com/api"
