// Package tronscan provides a typed client for the public TRON
// explorer API, normalizing its loosely-typed payloads into stable
// value shapes.
package tronscan

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

const upstreamName = "tronscan"

// TPS is the current network throughput reading.
type TPS struct {
	Current     float64
	Max         float64
	BlockHeight int64
}

// Block is the latest block summary.
type Block struct {
	Height       int64
	Hash         string
	Transactions int64
	Timestamp    int64
	Size         int64
}

// TransactionDay is one day's transaction totals. The series is
// ordered oldest first; the last entry is the current day.
type TransactionDay struct {
	Date             string
	NewTransactions  int64
	USDTTransactions int64
}

// DailyTransactions holds the daily transaction series.
type DailyTransactions struct {
	Total int64
	Days  []TransactionDay
}

// AccountOverview holds account population counters.
type AccountOverview struct {
	TotalAccounts int64
	Change24h     int64
}

// Witness is one raw entry of the witness (validator) list.
type Witness struct {
	Name            string
	Address         string
	URL             string
	VoteCount       int64
	RealTimeVotes   int64
	RealTimeRanking int
	Efficiency      float64
	IsJobs          bool
}

// Client defines the interface for the TRON explorer API.
type Client interface {
	// FetchTPS retrieves the current transactions-per-second reading.
	FetchTPS(ctx context.Context) (*TPS, error)
	// FetchLatestBlock retrieves the most recent block summary.
	FetchLatestBlock(ctx context.Context) (*Block, error)
	// FetchDailyTransactions retrieves the daily transaction series.
	FetchDailyTransactions(ctx context.Context) (*DailyTransactions, error)
	// FetchAccountOverview retrieves account population counters.
	FetchAccountOverview(ctx context.Context) (*AccountOverview, error)
	// FetchWitnesses retrieves the raw witness list in upstream order.
	FetchWitnesses(ctx context.Context) ([]Witness, error)
	// FetchSystemStatus retrieves the raw node status payload.
	FetchSystemStatus(ctx context.Context) (map[string]any, error)
	// FetchRaw retrieves an arbitrary explorer path as a raw object.
	FetchRaw(ctx context.Context, path string) (map[string]any, error)
	// BatchFetch retrieves several paths sequentially with a
	// politeness delay between requests, returning whatever
	// succeeded keyed by the last segment of each path.
	BatchFetch(ctx context.Context, paths []string) map[string]map[string]any
}

type client struct {
	log        logrus.FieldLogger
	endpoint   string
	apiKey     string
	batchDelay time.Duration
	metrics    *health.Metrics
	http       *http.Client
}

// NewClient creates a new explorer API client. metrics may be nil.
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

	batchDelay := cfg.BatchDelay
	if batchDelay == 0 {
		batchDelay = 300 * time.Millisecond
	}

	return &client{
		log:        log.WithField("component", "tronscan"),
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     cfg.APIKey,
		batchDelay: batchDelay,
		metrics:    metrics,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *client) FetchTPS(ctx context.Context) (*TPS, error) {
	var resp struct {
		Data struct {
			CurrentTPS  float64 `json:"currentTps"`
			MaxTPS      float64 `json:"maxTps"`
			BlockHeight int64   `json:"blockHeight"`
		} `json:"data"`
	}

	if err := c.getJSON(ctx, "system/tps", &resp); err != nil {
		return nil, err
	}

	return &TPS{
		Current:     resp.Data.CurrentTPS,
		Max:         resp.Data.MaxTPS,
		BlockHeight: resp.Data.BlockHeight,
	}, nil
}

func (c *client) FetchLatestBlock(ctx context.Context) (*Block, error) {
	var resp struct {
		Number    int64  `json:"number"`
		Hash      string `json:"hash"`
		NrOfTrx   int64  `json:"nrOfTrx"`
		Timestamp int64  `json:"timestamp"`
		Size      int64  `json:"size"`
	}

	if err := c.getJSON(ctx, "block/latest", &resp); err != nil {
		return nil, err
	}

	if resp.Number == 0 {
		return nil, upstream.Malformed(
			upstreamName, "block/latest",
			fmt.Errorf("missing block number"),
		)
	}

	return &Block{
		Height:       resp.Number,
		Hash:         resp.Hash,
		Transactions: resp.NrOfTrx,
		Timestamp:    resp.Timestamp,
		Size:         resp.Size,
	}, nil
}

func (c *client) FetchDailyTransactions(
	ctx context.Context,
) (*DailyTransactions, error) {
	var resp struct {
		TotalTransaction int64 `json:"totalTransaction"`
		Data             []struct {
			DateDayStr         string `json:"dateDayStr"`
			NewTransactionSeen int64  `json:"newTransactionSeen"`
			USDTTransaction    int64  `json:"usdt_transaction"`
		} `json:"data"`
	}

	if err := c.getJSON(
		ctx, "overview/dailytransactionnum", &resp,
	); err != nil {
		return nil, err
	}

	days := make([]TransactionDay, 0, len(resp.Data))
	for _, d := range resp.Data {
		days = append(days, TransactionDay{
			Date:             d.DateDayStr,
			NewTransactions:  d.NewTransactionSeen,
			USDTTransactions: d.USDTTransaction,
		})
	}

	return &DailyTransactions{
		Total: resp.TotalTransaction,
		Days:  days,
	}, nil
}

func (c *client) FetchAccountOverview(
	ctx context.Context,
) (*AccountOverview, error) {
	var resp struct {
		AccountNumber        int64 `json:"account_number"`
		Last24hAccountChange int64 `json:"last_24h_account_change"`
		RangeTotal           int64 `json:"rangeTotal"`
		Total                int64 `json:"total"`
	}

	if err := c.getJSON(ctx, "account/list?limit=1", &resp); err != nil {
		return nil, err
	}

	total := resp.AccountNumber
	if total == 0 {
		total = resp.RangeTotal
	}

	if total == 0 {
		total = resp.Total
	}

	return &AccountOverview{
		TotalAccounts: total,
		Change24h:     resp.Last24hAccountChange,
	}, nil
}

func (c *client) FetchWitnesses(ctx context.Context) ([]Witness, error) {
	var resp struct {
		Data []struct {
			Name            string  `json:"name"`
			Address         string  `json:"address"`
			URL             string  `json:"url"`
			VoteCount       int64   `json:"voteCount"`
			RealTimeVotes   int64   `json:"realTimeVotes"`
			RealTimeRanking int     `json:"realTimeRanking"`
			Efficiency      float64 `json:"efficiency"`
			IsJobs          bool    `json:"isJobs"`
		} `json:"data"`
	}

	if err := c.getJSON(ctx, "vote/witness", &resp); err != nil {
		return nil, err
	}

	witnesses := make([]Witness, 0, len(resp.Data))
	for _, w := range resp.Data {
		witnesses = append(witnesses, Witness{
			Name:            w.Name,
			Address:         w.Address,
			URL:             w.URL,
			VoteCount:       w.VoteCount,
			RealTimeVotes:   w.RealTimeVotes,
			RealTimeRanking: w.RealTimeRanking,
			Efficiency:      w.Efficiency,
			IsJobs:          w.IsJobs,
		})
	}

	return witnesses, nil
}

func (c *client) FetchSystemStatus(
	ctx context.Context,
) (map[string]any, error) {
	return c.FetchRaw(ctx, "system/status")
}

func (c *client) FetchRaw(
	ctx context.Context,
	path string,
) (map[string]any, error) {
	var resp map[string]any
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *client) BatchFetch(
	ctx context.Context,
	paths []string,
) map[string]map[string]any {
	results := make(map[string]map[string]any, len(paths))

	for i, path := range paths {
		if i > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(c.batchDelay):
			}
		}

		data, err := c.FetchRaw(ctx, path)
		if err != nil {
			c.log.WithError(err).WithField("path", path).
				Warn("Batch fetch source failed")

			continue
		}

		results[batchKey(path)] = data
	}

	return results
}

// batchKey derives a result key from a path: the last path segment
// with any query string stripped (e.g. "vote/witness?limit=100"
// becomes "witness").
func batchKey(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}

	return path
}

func (c *client) getJSON(
	ctx context.Context,
	path string,
	target any,
) error {
	url := c.endpoint + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return upstream.Unavailable(
			upstreamName, path,
			fmt.Errorf("creating request: %w", err),
		)
	}

	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(
			upstreamName, path, "error", time.Since(start),
		)

		return upstream.Unavailable(
			upstreamName, path,
			fmt.Errorf("executing request: %w", err),
		)
	}
	defer resp.Body.Close()

	c.metrics.ObserveUpstream(
		upstreamName, path,
		fmt.Sprintf("%d", resp.StatusCode),
		time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return upstream.Unavailable(
			upstreamName, path,
			fmt.Errorf(
				"unexpected status %d: %s",
				resp.StatusCode,
				string(body),
			),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return upstream.Malformed(
			upstreamName, path,
			fmt.Errorf("decoding response: %w", err),
		)
	}

	return nil
}
