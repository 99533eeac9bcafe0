package stats

import "github.com/tronmegateam/statsgate/internal/geo"

// Static fallback data served when an upstream is unreachable or
// returns something unusable. Values are refreshed by hand against
// the live network every so often; they only need to be plausible.
const (
	fallbackTPSCurrent     = 45
	fallbackTPSMax         = 2000
	fallbackBlockHeight    = 75850596
	fallbackBlockTxCount   = 312
	fallbackTxToday        = 9124874
	fallbackTxTotal        = 8500000000
	fallbackUSDTTxToday    = 2400000
	fallbackUSDTVolume     = 35000000000
	fallbackTxChange24h    = 2.5
	fallbackTxChange7d     = 5.2
	fallbackPrice          = 0.341
	fallbackPriceVolume    = 980000000
	fallbackPriceChange24h = 1.8
	fallbackPriceChange30d = 8.4
	fallbackPriceChange1y  = 45.2
	fallbackMarketCap      = 29500000000
	fallbackRank           = 9
	fallbackATH            = 0.4314
	fallbackATL            = 0.001091
	fallbackTotalAccounts  = 300000000
	fallbackActiveDaily    = 2500000
	fallbackTotalWitnesses = 427
)

// FallbackThroughput returns the static throughput snapshot with a
// fresh timestamp.
func (s *Service) FallbackThroughput() ThroughputSnapshot {
	return ThroughputSnapshot{
		Current:     fallbackTPSCurrent,
		Max:         fallbackTPSMax,
		BlockHeight: fallbackBlockHeight,
		Timestamp:   s.now().UnixMilli(),
	}
}

// FallbackBlock returns the static latest-block snapshot.
func (s *Service) FallbackBlock() BlockSnapshot {
	return BlockSnapshot{
		Height:       fallbackBlockHeight,
		Hash:         "",
		Transactions: fallbackBlockTxCount,
		Timestamp:    s.now().UnixMilli(),
		Size:         0,
	}
}

// FallbackTransactions returns the static daily-transaction snapshot.
func (s *Service) FallbackTransactions() TransactionSnapshot {
	return TransactionSnapshot{
		Today:             fallbackTxToday,
		Date:              s.now().UTC().Format("2006-01-02"),
		TotalTransactions: fallbackTxTotal,
		USDTTransactions:  fallbackUSDTTxToday,
		USDTVolume:        fallbackUSDTVolume,
		Change24h:         fallbackTxChange24h,
		Change7d:          fallbackTxChange7d,
	}
}

// FallbackPrice returns the static spot-price snapshot.
func (s *Service) FallbackPrice() PriceSnapshot {
	return PriceSnapshot{
		Price:       fallbackPrice,
		Volume24h:   fallbackPriceVolume,
		Change24h:   fallbackPriceChange24h,
		Change30d:   fallbackPriceChange30d,
		Change1y:    fallbackPriceChange1y,
		MarketCap:   fallbackMarketCap,
		Rank:        fallbackRank,
		ATH:         fallbackATH,
		ATL:         fallbackATL,
		LastUpdated: s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// FallbackAccounts returns the static account snapshot.
func (s *Service) FallbackAccounts() AccountSnapshot {
	return AccountSnapshot{
		TotalAccounts: fallbackTotalAccounts,
		ActiveDaily:   fallbackActiveDaily,
		Timestamp:     s.now().UnixMilli(),
	}
}

// FallbackWitnesses returns a small static witness set so the
// validator listing is never empty.
func (s *Service) FallbackWitnesses() WitnessSet {
	witnesses := []Witness{
		{Name: "Binance Staking", URL: "https://www.binance.com", Votes: 13400000000, Efficiency: 100},
		{Name: "TRON Foundation", URL: "https://tron.network", Votes: 11200000000, Efficiency: 100},
		{Name: "TRONLink", URL: "https://www.tronlink.org", Votes: 9800000000, Efficiency: 100},
		{Name: "Poloniex", URL: "https://poloniex.com", Votes: 8100000000, Efficiency: 100},
		{Name: "TRONScan", URL: "https://tronscan.org", Votes: 7400000000, Efficiency: 100},
	}

	for i := range witnesses {
		witnesses[i].Location = geo.Resolve(
			witnesses[i].Name, witnesses[i].URL,
		)
		witnesses[i].Rank = i + 1
	}

	return WitnessSet{
		Witnesses:            witnesses,
		TotalWitnesses:       fallbackTotalWitnesses,
		SuperRepresentatives: witnesses,
		Candidates:           []Witness{},
		Timestamp:            s.now().UnixMilli(),
	}
}

// FallbackDashboard returns the all-fallback aggregate bundle.
func (s *Service) FallbackDashboard() DashboardBundle {
	return DashboardBundle{
		TPS:          s.FallbackThroughput(),
		Block:        s.FallbackBlock(),
		Transactions: s.FallbackTransactions(),
		Price:        s.FallbackPrice(),
		Accounts:     s.FallbackAccounts(),
		Timestamp:    s.now().UnixMilli(),
		Cached:       false,
	}
}
