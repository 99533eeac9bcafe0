package stats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tronmegateam/statsgate/internal/coingecko"
	"github.com/tronmegateam/statsgate/internal/tronscan"
)

type fakeExplorer struct {
	tps      *tronscan.TPS
	block    *tronscan.Block
	daily    *tronscan.DailyTransactions
	accounts *tronscan.AccountOverview
	witness  []tronscan.Witness
	err      error
}

func (f *fakeExplorer) FetchTPS(_ context.Context) (*tronscan.TPS, error) {
	return f.tps, f.err
}

func (f *fakeExplorer) FetchLatestBlock(_ context.Context) (*tronscan.Block, error) {
	return f.block, f.err
}

func (f *fakeExplorer) FetchDailyTransactions(_ context.Context) (*tronscan.DailyTransactions, error) {
	return f.daily, f.err
}

func (f *fakeExplorer) FetchAccountOverview(_ context.Context) (*tronscan.AccountOverview, error) {
	return f.accounts, f.err
}

func (f *fakeExplorer) FetchWitnesses(_ context.Context) ([]tronscan.Witness, error) {
	return f.witness, f.err
}

type fakePrices struct {
	coin      *coingecko.Coin
	coinErr   error
	simple    *coingecko.SimplePrice
	simpleErr error
}

func (f *fakePrices) FetchCoin(_ context.Context, _ string) (*coingecko.Coin, error) {
	return f.coin, f.coinErr
}

func (f *fakePrices) FetchSimplePrice(_ context.Context, _ string) (*coingecko.SimplePrice, error) {
	return f.simple, f.simpleErr
}

func newTestService(explorer ExplorerClient, prices PriceClient) *Service {
	svc := New(logrus.New(), explorer, prices, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	return svc
}

func TestThroughput(t *testing.T) {
	explorer := &fakeExplorer{
		tps: &tronscan.TPS{Current: 61.5, Max: 2000, BlockHeight: 76000000},
	}

	snap := newTestService(explorer, &fakePrices{}).Throughput(context.Background())

	assert.Equal(t, 61.5, snap.Current)
	assert.Equal(t, float64(2000), snap.Max)
	assert.Equal(t, int64(76000000), snap.BlockHeight)
	assert.NotZero(t, snap.Timestamp)
}

func TestThroughputFallback(t *testing.T) {
	explorer := &fakeExplorer{err: errors.New("boom")}

	snap := newTestService(explorer, &fakePrices{}).Throughput(context.Background())

	assert.Equal(t, float64(fallbackTPSCurrent), snap.Current)
	assert.Equal(t, float64(fallbackTPSMax), snap.Max)
}

func TestLatestBlockFillsTimestamp(t *testing.T) {
	explorer := &fakeExplorer{
		block: &tronscan.Block{Height: 76000001, Transactions: 250},
	}

	snap := newTestService(explorer, &fakePrices{}).LatestBlock(context.Background())

	assert.Equal(t, int64(76000001), snap.Height)
	assert.NotZero(t, snap.Timestamp)
}

func TestTransactionStats(t *testing.T) {
	days := make([]tronscan.TransactionDay, 0, 8)
	for i := 0; i < 8; i++ {
		days = append(days, tronscan.TransactionDay{
			Date:            fmt.Sprintf("2025-06-%02d", 8+i),
			NewTransactions: int64(1000 + i*100),
		})
	}

	explorer := &fakeExplorer{
		daily: &tronscan.DailyTransactions{Total: 9000000000, Days: days},
	}

	snap := newTestService(explorer, &fakePrices{}).TransactionStats(context.Background())

	assert.Equal(t, int64(1700), snap.Today)
	assert.Equal(t, "2025-06-15", snap.Date)
	assert.Equal(t, int64(9000000000), snap.TotalTransactions)
	// (1700-1600)/1600 and (1700-1100)/1100.
	assert.InDelta(t, 6.25, snap.Change24h, 0.001)
	assert.InDelta(t, 54.545, snap.Change7d, 0.001)
}

func TestTransactionStatsShortSeries(t *testing.T) {
	explorer := &fakeExplorer{
		daily: &tronscan.DailyTransactions{
			Total: 100,
			Days: []tronscan.TransactionDay{
				{Date: "2025-06-15", NewTransactions: 500},
			},
		},
	}

	snap := newTestService(explorer, &fakePrices{}).TransactionStats(context.Background())

	assert.Equal(t, int64(500), snap.Today)
	assert.Equal(t, float64(fallbackTxChange24h), snap.Change24h)
	assert.Equal(t, float64(fallbackTxChange7d), snap.Change7d)
}

func TestTransactionStatsEmptySeries(t *testing.T) {
	explorer := &fakeExplorer{daily: &tronscan.DailyTransactions{}}

	snap := newTestService(explorer, &fakePrices{}).TransactionStats(context.Background())

	assert.Equal(t, int64(fallbackTxToday), snap.Today)
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, percentChange(110, 100, -1), 0.001)
	assert.InDelta(t, -50.0, percentChange(50, 100, -1), 0.001)
	assert.Equal(t, -1.0, percentChange(50, 0, -1))
}

func TestSpotPriceComprehensive(t *testing.T) {
	prices := &fakePrices{
		coin: &coingecko.Coin{
			Price:     0.35,
			Volume24h: 1e9,
			Change24h: 2.1,
			MarketCap: 3e10,
			Rank:      9,
			ATH:       0.4314,
		},
	}

	snap := newTestService(&fakeExplorer{}, prices).SpotPrice(context.Background())

	assert.Equal(t, 0.35, snap.Price)
	assert.Equal(t, 9, snap.Rank)
	assert.Equal(t, 0.4314, snap.ATH)
}

func TestSpotPriceSimpleTier(t *testing.T) {
	prices := &fakePrices{
		coinErr: errors.New("rate limited"),
		simple:  &coingecko.SimplePrice{USD: 0.33, Change24h: -1.2, MarketCap: 2.9e10},
	}

	snap := newTestService(&fakeExplorer{}, prices).SpotPrice(context.Background())

	assert.Equal(t, 0.33, snap.Price)
	assert.Equal(t, -1.2, snap.Change24h)
	assert.Equal(t, float64(fallbackPriceVolume), snap.Volume24h)
	assert.Zero(t, snap.ATH)
}

func TestSpotPriceFallback(t *testing.T) {
	prices := &fakePrices{
		coinErr:   errors.New("down"),
		simpleErr: errors.New("also down"),
	}

	snap := newTestService(&fakeExplorer{}, prices).SpotPrice(context.Background())

	assert.Equal(t, fallbackPrice, snap.Price)
	assert.Equal(t, fallbackRank, snap.Rank)
}

func TestWitnessesRankingAndPartition(t *testing.T) {
	raw := make([]tronscan.Witness, 0, 30)
	for i := 0; i < 30; i++ {
		raw = append(raw, tronscan.Witness{
			Name:      fmt.Sprintf("witness-%d", i),
			Address:   fmt.Sprintf("T%033d", i),
			VoteCount: int64(i * 1000),
		})
	}

	set := newTestService(&fakeExplorer{witness: raw}, &fakePrices{}).
		Witnesses(context.Background())

	require.Len(t, set.Witnesses, 30)
	assert.Equal(t, 30, set.TotalWitnesses)
	assert.Len(t, set.SuperRepresentatives, 27)
	assert.Len(t, set.Candidates, 3)

	assert.Equal(t, "witness-29", set.Witnesses[0].Name)
	assert.Equal(t, 1, set.Witnesses[0].Rank)
	assert.Equal(t, "witness-0", set.Witnesses[29].Name)
	assert.Equal(t, 30, set.Witnesses[29].Rank)
}

func TestWitnessesStableOrderOnTies(t *testing.T) {
	raw := []tronscan.Witness{
		{Name: "first", VoteCount: 100},
		{Name: "second", VoteCount: 100},
	}

	set := newTestService(&fakeExplorer{witness: raw}, &fakePrices{}).
		Witnesses(context.Background())

	require.Len(t, set.Witnesses, 2)
	assert.Equal(t, "first", set.Witnesses[0].Name)
	assert.Equal(t, "second", set.Witnesses[1].Name)
}

func TestWitnessesFallback(t *testing.T) {
	svc := newTestService(&fakeExplorer{err: errors.New("boom")}, &fakePrices{})

	set := svc.Witnesses(context.Background())

	require.NotEmpty(t, set.Witnesses)
	assert.Equal(t, fallbackTotalWitnesses, set.TotalWitnesses)
	assert.NotNil(t, set.Candidates)
}

func TestNodeRecords(t *testing.T) {
	raw := []tronscan.Witness{
		{Name: "Binance Staking", URL: "https://binance.com", VoteCount: 9000},
		{Address: "TAddrOnly0000000000000000000000000"},
	}

	records := newTestService(&fakeExplorer{witness: raw}, &fakePrices{}).
		NodeRecords(context.Background())

	require.Len(t, records, 2)
	assert.Equal(t, "Malta", records[0].Country)
	assert.Equal(t, "Exchange", records[0].Type)
	assert.True(t, records[0].IsActive)
	assert.Equal(t, "TAddrOnly0000000000000000000000000", records[1].Name)
	assert.Equal(t, float64(100), records[1].Productivity)
}

func TestDashboardIsolatesFailures(t *testing.T) {
	explorer := &fakeExplorer{
		tps: &tronscan.TPS{Current: 50, Max: 2000, BlockHeight: 76000000},
		// Block, daily and accounts left nil would panic without the
		// error short-circuit, so fail the whole explorer instead.
	}
	explorer.block = &tronscan.Block{Height: 76000000, Timestamp: 1750000000000}
	explorer.daily = &tronscan.DailyTransactions{
		Days: []tronscan.TransactionDay{{Date: "2025-06-15", NewTransactions: 100}},
	}
	explorer.accounts = &tronscan.AccountOverview{TotalAccounts: 310000000}

	prices := &fakePrices{
		coinErr:   errors.New("down"),
		simpleErr: errors.New("down"),
	}

	bundle := newTestService(explorer, prices).Dashboard(context.Background())

	assert.Equal(t, float64(50), bundle.TPS.Current)
	assert.Equal(t, int64(310000000), bundle.Accounts.TotalAccounts)
	assert.Equal(t, fallbackPrice, bundle.Price.Price)
	assert.False(t, bundle.Cached)
	assert.NotZero(t, bundle.Timestamp)
}
