// Package coingecko provides a client for the public CoinGecko price
// API. Two endpoints are exposed: the comprehensive coin endpoint and
// the simple price endpoint used as a secondary source when the
// comprehensive one is rate limited.
package coingecko

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

const upstreamName = "coingecko"

// Coin is the comprehensive market data for one coin.
type Coin struct {
	Price       float64
	Volume24h   float64
	Change24h   float64
	Change30d   float64
	Change1y    float64
	MarketCap   float64
	Rank        int
	ATH         float64
	ATL         float64
	LastUpdated string
}

// SimplePrice is the reduced market data from the simple endpoint.
type SimplePrice struct {
	USD       float64
	Change24h float64
	MarketCap float64
}

// Client defines the interface for the price API.
type Client interface {
	// FetchCoin retrieves comprehensive market data for the coin id.
	FetchCoin(ctx context.Context, id string) (*Coin, error)
	// FetchSimplePrice retrieves reduced market data for the coin id.
	FetchSimplePrice(ctx context.Context, id string) (*SimplePrice, error)
}

type client struct {
	log      logrus.FieldLogger
	endpoint string
	metrics  *health.Metrics
	http     *http.Client
}

// NewClient creates a new price API client. metrics may be nil.
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
		log:      log.WithField("component", "coingecko"),
		endpoint: strings.TrimSuffix(endpoint, "/"),
		metrics:  metrics,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *client) FetchCoin(
	ctx context.Context,
	id string,
) (*Coin, error) {
	var resp struct {
		MarketCapRank int `json:"market_cap_rank"`
		MarketData    struct {
			CurrentPrice struct {
				USD float64 `json:"usd"`
			} `json:"current_price"`
			TotalVolume struct {
				USD float64 `json:"usd"`
			} `json:"total_volume"`
			MarketCap struct {
				USD float64 `json:"usd"`
			} `json:"market_cap"`
			ATH struct {
				USD float64 `json:"usd"`
			} `json:"ath"`
			ATL struct {
				USD float64 `json:"usd"`
			} `json:"atl"`
			Change24h   float64 `json:"price_change_percentage_24h"`
			Change30d   float64 `json:"price_change_percentage_30d"`
			Change1y    float64 `json:"price_change_percentage_1y"`
			LastUpdated string  `json:"last_updated"`
		} `json:"market_data"`
	}

	path := fmt.Sprintf(
		"coins/%s?localization=false&tickers=false&market_data=true"+
			"&community_data=false&developer_data=false&sparkline=false",
		id,
	)

	if err := c.getJSON(ctx, "coins", path, &resp); err != nil {
		return nil, err
	}

	md := resp.MarketData
	if md.CurrentPrice.USD == 0 {
		return nil, upstream.Malformed(
			upstreamName, "coins",
			fmt.Errorf("missing current price for %s", id),
		)
	}

	return &Coin{
		Price:       md.CurrentPrice.USD,
		Volume24h:   md.TotalVolume.USD,
		Change24h:   md.Change24h,
		Change30d:   md.Change30d,
		Change1y:    md.Change1y,
		MarketCap:   md.MarketCap.USD,
		Rank:        resp.MarketCapRank,
		ATH:         md.ATH.USD,
		ATL:         md.ATL.USD,
		LastUpdated: md.LastUpdated,
	}, nil
}

func (c *client) FetchSimplePrice(
	ctx context.Context,
	id string,
) (*SimplePrice, error) {
	var resp map[string]struct {
		USD       float64 `json:"usd"`
		Change24h float64 `json:"usd_24h_change"`
		MarketCap float64 `json:"usd_market_cap"`
	}

	path := fmt.Sprintf(
		"simple/price?ids=%s&vs_currencies=usd"+
			"&include_24hr_change=true&include_market_cap=true",
		id,
	)

	if err := c.getJSON(ctx, "simple_price", path, &resp); err != nil {
		return nil, err
	}

	entry, ok := resp[id]
	if !ok || entry.USD == 0 {
		return nil, upstream.Malformed(
			upstreamName, "simple_price",
			fmt.Errorf("missing price entry for %s", id),
		)
	}

	return &SimplePrice{
		USD:       entry.USD,
		Change24h: entry.Change24h,
		MarketCap: entry.MarketCap,
	}, nil
}

func (c *client) getJSON(
	ctx context.Context,
	endpointLabel, path string,
	target any,
) error {
	url := c.endpoint + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return upstream.Unavailable(
			upstreamName, endpointLabel,
			fmt.Errorf("creating request: %w", err),
		)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(
			upstreamName, endpointLabel, "error", time.Since(start),
		)

		return upstream.Unavailable(
			upstreamName, endpointLabel,
			fmt.Errorf("executing request: %w", err),
		)
	}
	defer resp.Body.Close()

	c.metrics.ObserveUpstream(
		upstreamName, endpointLabel,
		fmt.Sprintf("%d", resp.StatusCode),
		time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return upstream.Unavailable(
			upstreamName, endpointLabel,
			fmt.Errorf(
				"unexpected status %d: %s",
				resp.StatusCode,
				string(body),
			),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return upstream.Malformed(
			upstreamName, endpointLabel,
			fmt.Errorf("decoding response: %w", err),
		)
	}

	return nil
}
