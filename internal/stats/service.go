package stats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/coingecko"
	"github.com/tronmegateam/statsgate/internal/geo"
	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/tronscan"
)

// superRepresentativeCount is the number of top-voted witnesses that
// form the active validator set.
const superRepresentativeCount = 27

// ExplorerClient is the subset of the explorer API the service needs.
type ExplorerClient interface {
	FetchTPS(ctx context.Context) (*tronscan.TPS, error)
	FetchLatestBlock(ctx context.Context) (*tronscan.Block, error)
	FetchDailyTransactions(ctx context.Context) (*tronscan.DailyTransactions, error)
	FetchAccountOverview(ctx context.Context) (*tronscan.AccountOverview, error)
	FetchWitnesses(ctx context.Context) ([]tronscan.Witness, error)
}

// PriceClient is the subset of the price API the service needs.
type PriceClient interface {
	FetchCoin(ctx context.Context, id string) (*coingecko.Coin, error)
	FetchSimplePrice(ctx context.Context, id string) (*coingecko.SimplePrice, error)
}

// coinID is the price API identifier for the network's native token.
const coinID = "tron"

// Service produces metric snapshots. Upstream failures never escape:
// each operation resolves to its fallback snapshot instead.
type Service struct {
	log      logrus.FieldLogger
	explorer ExplorerClient
	prices   PriceClient
	metrics  *health.Metrics
	now      func() time.Time
}

// New creates a new stats service. metrics may be nil.
func New(
	log logrus.FieldLogger,
	explorer ExplorerClient,
	prices PriceClient,
	metrics *health.Metrics,
) *Service {
	return &Service{
		log:      log.WithField("component", "stats"),
		explorer: explorer,
		prices:   prices,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Throughput returns the current TPS snapshot.
func (s *Service) Throughput(ctx context.Context) ThroughputSnapshot {
	tps, err := s.explorer.FetchTPS(ctx)
	if err != nil {
		s.fallback("tps", err)

		return s.FallbackThroughput()
	}

	return ThroughputSnapshot{
		Current:     tps.Current,
		Max:         tps.Max,
		BlockHeight: tps.BlockHeight,
		Timestamp:   s.now().UnixMilli(),
	}
}

// LatestBlock returns the latest block snapshot.
func (s *Service) LatestBlock(ctx context.Context) BlockSnapshot {
	block, err := s.explorer.FetchLatestBlock(ctx)
	if err != nil {
		s.fallback("block", err)

		return s.FallbackBlock()
	}

	timestamp := block.Timestamp
	if timestamp == 0 {
		timestamp = s.now().UnixMilli()
	}

	return BlockSnapshot{
		Height:       block.Height,
		Hash:         block.Hash,
		Transactions: block.Transactions,
		Timestamp:    timestamp,
		Size:         block.Size,
	}
}

// TransactionStats returns the daily transaction snapshot. The 24h
// delta needs at least 2 data points and the 7d delta at least 7;
// with fewer the static change values are used instead of computing
// a misleading ratio.
func (s *Service) TransactionStats(ctx context.Context) TransactionSnapshot {
	daily, err := s.explorer.FetchDailyTransactions(ctx)
	if err != nil {
		s.fallback("transactions", err)

		return s.FallbackTransactions()
	}

	days := daily.Days
	if len(days) == 0 {
		s.fallback("transactions", fmt.Errorf("empty day series"))

		return s.FallbackTransactions()
	}

	today := days[len(days)-1]

	snap := TransactionSnapshot{
		Today:             today.NewTransactions,
		Date:              today.Date,
		TotalTransactions: daily.Total,
		USDTTransactions:  today.USDTTransactions,
		USDTVolume:        fallbackUSDTVolume,
		Change24h:         fallbackTxChange24h,
		Change7d:          fallbackTxChange7d,
	}

	if snap.Date == "" {
		snap.Date = s.now().UTC().Format("2006-01-02")
	}

	if len(days) >= 2 {
		yesterday := days[len(days)-2].NewTransactions
		snap.Change24h = percentChange(
			float64(today.NewTransactions),
			float64(yesterday),
			fallbackTxChange24h,
		)
	}

	if len(days) >= 7 {
		weekAgo := days[len(days)-7].NewTransactions
		snap.Change7d = percentChange(
			float64(today.NewTransactions),
			float64(weekAgo),
			fallbackTxChange7d,
		)
	}

	return snap
}

// percentChange computes (today-reference)/reference*100, resolving
// to fallback when the reference is zero so the result is never NaN
// or Inf.
func percentChange(today, reference, fallback float64) float64 {
	if reference == 0 {
		return fallback
	}

	return (today - reference) / reference * 100
}

// SpotPrice returns the spot price snapshot. The comprehensive price
// endpoint is tried first; if it fails (commonly rate limiting) the
// simple endpoint is tried, and only when both fail is the static
// fallback served.
func (s *Service) SpotPrice(ctx context.Context) PriceSnapshot {
	coin, err := s.prices.FetchCoin(ctx, coinID)
	if err == nil {
		return PriceSnapshot{
			Price:       coin.Price,
			Volume24h:   coin.Volume24h,
			Change24h:   coin.Change24h,
			Change30d:   coin.Change30d,
			Change1y:    coin.Change1y,
			MarketCap:   coin.MarketCap,
			Rank:        coin.Rank,
			ATH:         coin.ATH,
			ATL:         coin.ATL,
			LastUpdated: coin.LastUpdated,
		}
	}

	s.log.WithError(err).
		Debug("Comprehensive price source failed, trying simple source")

	simple, err := s.prices.FetchSimplePrice(ctx, coinID)
	if err != nil {
		s.fallback("price", err)

		return s.FallbackPrice()
	}

	// The simple endpoint only knows price, 24h change and market
	// cap; the remaining fields keep their static values.
	return PriceSnapshot{
		Price:       simple.USD,
		Volume24h:   fallbackPriceVolume,
		Change24h:   simple.Change24h,
		Change30d:   fallbackPriceChange30d,
		Change1y:    fallbackPriceChange1y,
		MarketCap:   simple.MarketCap,
		Rank:        fallbackRank,
		LastUpdated: s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// AccountStats returns the account population snapshot.
func (s *Service) AccountStats(ctx context.Context) AccountSnapshot {
	overview, err := s.explorer.FetchAccountOverview(ctx)
	if err != nil {
		s.fallback("accounts", err)

		return s.FallbackAccounts()
	}

	total := overview.TotalAccounts
	if total == 0 {
		total = fallbackTotalAccounts
	}

	active := overview.Change24h
	if active == 0 {
		active = fallbackActiveDaily
	}

	return AccountSnapshot{
		TotalAccounts: total,
		ActiveDaily:   active,
		Timestamp:     s.now().UnixMilli(),
	}
}

// Witnesses returns the ranked validator listing. Witnesses are
// sorted by descending vote count (stable, so upstream order breaks
// ties), ranked from 1, and partitioned into the top 27 super
// representatives and the candidate remainder.
func (s *Service) Witnesses(ctx context.Context) WitnessSet {
	raw, err := s.explorer.FetchWitnesses(ctx)
	if err != nil {
		s.fallback("witnesses", err)

		return s.FallbackWitnesses()
	}

	if len(raw) == 0 {
		s.fallback("witnesses", fmt.Errorf("empty witness list"))

		return s.FallbackWitnesses()
	}

	witnesses := make([]Witness, 0, len(raw))

	for i, w := range raw {
		name := w.Name
		if name == "" {
			name = w.Address
		}

		if name == "" {
			name = fmt.Sprintf("Node %d", i+1)
		}

		efficiency := w.Efficiency
		if efficiency == 0 {
			efficiency = 100
		}

		witnesses = append(witnesses, Witness{
			Name:          name,
			Address:       w.Address,
			URL:           w.URL,
			Votes:         w.VoteCount,
			Efficiency:    efficiency,
			RealTimeVotes: w.RealTimeVotes,
			IsJobs:        w.IsJobs,
			Location:      geo.Resolve(name, w.URL),
		})
	}

	sort.SliceStable(witnesses, func(i, j int) bool {
		return witnesses[i].Votes > witnesses[j].Votes
	})

	for i := range witnesses {
		witnesses[i].Rank = i + 1
	}

	split := superRepresentativeCount
	if split > len(witnesses) {
		split = len(witnesses)
	}

	return WitnessSet{
		Witnesses:            witnesses,
		TotalWitnesses:       len(witnesses),
		SuperRepresentatives: witnesses[:split],
		Candidates:           witnesses[split:],
		Timestamp:            s.now().UnixMilli(),
	}
}

// NodeRecords returns the node listing for map rendering, in upstream
// order. A record with an unresolvable location carries zero
// coordinates; filtering those out is the renderer's concern.
func (s *Service) NodeRecords(ctx context.Context) []NodeRecord {
	raw, err := s.explorer.FetchWitnesses(ctx)
	if err != nil {
		s.fallback("nodes", err)

		return nil
	}

	records := make([]NodeRecord, 0, len(raw))

	for i, w := range raw {
		name := w.Name
		if name == "" {
			name = w.Address
		}

		if name == "" {
			name = fmt.Sprintf("Validator %d", i+1)
		}

		votes := w.VoteCount
		if votes == 0 {
			votes = w.RealTimeVotes
		}

		rank := w.RealTimeRanking
		if rank == 0 {
			rank = i + 1
		}

		efficiency := w.Efficiency
		if efficiency == 0 {
			efficiency = 100
		}

		loc := geo.Resolve(name, w.URL)

		records = append(records, NodeRecord{
			Name:         name,
			Address:      w.Address,
			URL:          w.URL,
			Votes:        votes,
			IsActive:     w.IsJobs || i < superRepresentativeCount,
			Rank:         rank,
			Country:      loc.Country,
			Latitude:     loc.Lat,
			Longitude:    loc.Lng,
			Productivity: 100,
			Efficiency:   efficiency,
			Type:         loc.Category,
		})
	}

	return records
}

// SupernodeOverview returns the processed node listing with active
// counts, or nil when the witness source is unavailable.
func (s *Service) SupernodeOverview(ctx context.Context) *SupernodeSummary {
	records := s.NodeRecords(ctx)
	if records == nil {
		return nil
	}

	active := 0

	for _, r := range records {
		if r.IsActive {
			active++
		}
	}

	return &SupernodeSummary{
		Total:     len(records),
		Active:    active,
		Data:      records,
		Timestamp: s.now().UnixMilli(),
		Source:    "live_api",
	}
}

// Dashboard returns the aggregate bundle. The five upstream calls
// run concurrently and are joined regardless of individual outcome;
// a failed sub-call resolves to its own fallback, so partial failure
// is isolated per field.
func (s *Service) Dashboard(ctx context.Context) DashboardBundle {
	var (
		bundle DashboardBundle
		wg     sync.WaitGroup
	)

	wg.Add(5)

	go func() {
		defer wg.Done()

		bundle.TPS = s.Throughput(ctx)
	}()

	go func() {
		defer wg.Done()

		bundle.Block = s.LatestBlock(ctx)
	}()

	go func() {
		defer wg.Done()

		bundle.Transactions = s.TransactionStats(ctx)
	}()

	go func() {
		defer wg.Done()

		bundle.Accounts = s.AccountStats(ctx)
	}()

	go func() {
		defer wg.Done()

		bundle.Price = s.SpotPrice(ctx)
	}()

	wg.Wait()

	bundle.Timestamp = s.now().UnixMilli()
	bundle.Cached = false

	return bundle
}

func (s *Service) fallback(metric string, err error) {
	s.metrics.RecordFallback(metric)
	s.log.WithError(err).WithField("metric", metric).
		Warn("Serving fallback data")
}
