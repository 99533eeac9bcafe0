package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tronmegateam/statsgate/internal/upstream"
)

func newClientFor(t *testing.T, mux *http.ServeMux) Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	return NewClient(log, Config{
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
	}, nil)
}

func TestFetchCoin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/tron", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("localization"))
		assert.Equal(t, "true", r.URL.Query().Get("market_data"))

		json.NewEncoder(w).Encode(map[string]any{
			"market_cap_rank": 9,
			"market_data": map[string]any{
				"current_price":               map[string]any{"usd": 0.341},
				"total_volume":                map[string]any{"usd": 980000000},
				"market_cap":                  map[string]any{"usd": 29500000000},
				"ath":                         map[string]any{"usd": 0.4314},
				"atl":                         map[string]any{"usd": 0.001091},
				"price_change_percentage_24h": 1.8,
				"price_change_percentage_30d": 8.4,
				"price_change_percentage_1y":  45.2,
				"last_updated":                "2025-06-15T12:00:00.000Z",
			},
		})
	})

	client := newClientFor(t, mux)

	coin, err := client.FetchCoin(context.Background(), "tron")
	require.NoError(t, err)
	assert.Equal(t, 0.341, coin.Price)
	assert.Equal(t, float64(980000000), coin.Volume24h)
	assert.Equal(t, 1.8, coin.Change24h)
	assert.Equal(t, 9, coin.Rank)
	assert.Equal(t, 0.4314, coin.ATH)
	assert.Equal(t, 0.001091, coin.ATL)
	assert.Equal(t, "2025-06-15T12:00:00.000Z", coin.LastUpdated)
}

func TestFetchCoinMissingPriceIsMalformed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/tron", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"market_data": map[string]any{}})
	})

	client := newClientFor(t, mux)

	_, err := client.FetchCoin(context.Background(), "tron")
	require.Error(t, err)

	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, upstream.KindMalformed, uerr.Kind)
}

func TestFetchSimplePrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tron", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		json.NewEncoder(w).Encode(map[string]any{
			"tron": map[string]any{
				"usd":            0.338,
				"usd_24h_change": -0.9,
				"usd_market_cap": 29100000000,
			},
		})
	})

	client := newClientFor(t, mux)

	price, err := client.FetchSimplePrice(context.Background(), "tron")
	require.NoError(t, err)
	assert.Equal(t, 0.338, price.USD)
	assert.Equal(t, -0.9, price.Change24h)
	assert.Equal(t, float64(29100000000), price.MarketCap)
}

func TestFetchSimplePriceMissingEntryIsMalformed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	client := newClientFor(t, mux)

	_, err := client.FetchSimplePrice(context.Background(), "tron")
	require.Error(t, err)

	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, upstream.KindMalformed, uerr.Kind)
}

func TestRateLimitedIsUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/tron", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	})

	client := newClientFor(t, mux)

	_, err := client.FetchCoin(context.Background(), "tron")
	require.Error(t, err)

	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, upstream.KindUnavailable, uerr.Kind)
	assert.Equal(t, "coingecko", uerr.Upstream)
}
