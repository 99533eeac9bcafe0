// Package trongrid provides a thin passthrough client for the
// trongrid node directory, used by the generic stats dispatcher.
package trongrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/upstream"
)

const upstreamName = "trongrid"

// DefaultEndpoint is the public trongrid API base URL.
const DefaultEndpoint = "https://api.trongrid.io"

// Config holds configuration for the trongrid client.
type Config struct {
	// Endpoint is the base URL of the trongrid API.
	// Defaults to https://api.trongrid.io.
	Endpoint string `yaml:"endpoint"`

	// APIKey is sent as TRON-PRO-API-KEY when set.
	APIKey string `yaml:"api_key"`

	// Timeout for HTTP requests. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// Client defines the interface for the node directory API.
type Client interface {
	// FetchNodes retrieves the raw node directory payload.
	FetchNodes(ctx context.Context) (map[string]any, error)
}

type client struct {
	log      logrus.FieldLogger
	endpoint string
	apiKey   string
	metrics  *health.Metrics
	http     *http.Client
}

// NewClient creates a new node directory client. metrics may be nil.
func NewClient(
	log logrus.FieldLogger,
	cfg Config,
	metrics *health.Metrics,
) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &client{
		log:      log.WithField("component", "trongrid"),
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   cfg.APIKey,
		metrics:  metrics,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *client) FetchNodes(ctx context.Context) (map[string]any, error) {
	url := c.endpoint + "/v1/nodes"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, upstream.Unavailable(
			upstreamName, "nodes",
			fmt.Errorf("creating request: %w", err),
		)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MEGATEAM/1.0")

	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(
			upstreamName, "nodes", "error", time.Since(start),
		)

		return nil, upstream.Unavailable(
			upstreamName, "nodes",
			fmt.Errorf("executing request: %w", err),
		)
	}
	defer resp.Body.Close()

	c.metrics.ObserveUpstream(
		upstreamName, "nodes",
		fmt.Sprintf("%d", resp.StatusCode),
		time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, upstream.Unavailable(
			upstreamName, "nodes",
			fmt.Errorf(
				"unexpected status %d: %s",
				resp.StatusCode,
				string(body),
			),
		)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, upstream.Malformed(
			upstreamName, "nodes",
			fmt.Errorf("decoding response: %w", err),
		)
	}

	return payload, nil
}
