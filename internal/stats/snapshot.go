// Package stats turns upstream explorer and price payloads into the
// gateway's stable per-metric snapshots. Every snapshot has a static
// fallback; consumers never see a missing field.
package stats

import "github.com/tronmegateam/statsgate/internal/geo"

// ThroughputSnapshot is the transactions-per-second metric.
type ThroughputSnapshot struct {
	Current     float64 `json:"current"`
	Max         float64 `json:"max"`
	BlockHeight int64   `json:"blockHeight"`
	Timestamp   int64   `json:"timestamp"`
}

// BlockSnapshot is the latest block metric.
type BlockSnapshot struct {
	Height       int64  `json:"height"`
	Hash         string `json:"hash"`
	Transactions int64  `json:"transactions"`
	Timestamp    int64  `json:"timestamp"`
	Size         int64  `json:"size"`
}

// TransactionSnapshot is the daily transaction metric with
// percentage deltas against the prior day and week.
type TransactionSnapshot struct {
	Today             int64   `json:"today"`
	Date              string  `json:"date"`
	TotalTransactions int64   `json:"totalTransactions"`
	USDTTransactions  int64   `json:"usdtTransactions"`
	USDTVolume        float64 `json:"usdtVolume"`
	Change24h         float64 `json:"change24h"`
	Change7d          float64 `json:"change7d"`
}

// PriceSnapshot is the spot price metric. ATH/ATL are only known on
// the comprehensive price path and omitted otherwise.
type PriceSnapshot struct {
	Price       float64 `json:"price"`
	Volume24h   float64 `json:"volume24h"`
	Change24h   float64 `json:"change24h"`
	Change30d   float64 `json:"change30d"`
	Change1y    float64 `json:"change1y"`
	MarketCap   float64 `json:"marketCap"`
	Rank        int     `json:"rank"`
	ATH         float64 `json:"ath,omitempty"`
	ATL         float64 `json:"atl,omitempty"`
	LastUpdated string  `json:"lastUpdated"`
}

// AccountSnapshot is the account population metric.
type AccountSnapshot struct {
	TotalAccounts int64 `json:"totalAccounts"`
	ActiveDaily   int64 `json:"activeDaily"`
	Timestamp     int64 `json:"timestamp"`
}

// Witness is one ranked validator with a resolved location.
type Witness struct {
	Name          string       `json:"name"`
	Address       string       `json:"address"`
	URL           string       `json:"url"`
	Votes         int64        `json:"votes"`
	Efficiency    float64      `json:"efficiency"`
	RealTimeVotes int64        `json:"realTimeVotes"`
	IsJobs        bool         `json:"isJobs"`
	Location      geo.Location `json:"location"`
	Rank          int          `json:"rank"`
}

// WitnessSet is the full ranked validator listing, partitioned into
// the top 27 super representatives and the candidate remainder.
type WitnessSet struct {
	Witnesses            []Witness `json:"witnesses"`
	TotalWitnesses       int       `json:"totalWitnesses"`
	SuperRepresentatives []Witness `json:"superRepresentatives"`
	Candidates           []Witness `json:"candidates"`
	Timestamp            int64     `json:"timestamp"`
}

// NodeRecord is one geographically-locatable network participant, as
// served by the generic stats dispatcher for map rendering.
type NodeRecord struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	URL          string  `json:"url"`
	Votes        int64   `json:"votes"`
	IsActive     bool    `json:"isActive"`
	Rank         int     `json:"rank"`
	Country      string  `json:"country"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Productivity float64 `json:"productivity"`
	Efficiency   float64 `json:"efficiency"`
	Type         string  `json:"type"`
}

// SupernodeSummary is the processed node listing served by the
// combined stats view.
type SupernodeSummary struct {
	Total     int          `json:"total"`
	Active    int          `json:"active"`
	Data      []NodeRecord `json:"data"`
	Timestamp int64        `json:"timestamp"`
	Source    string       `json:"source"`
}

// DashboardBundle aggregates all metric snapshots for one response.
type DashboardBundle struct {
	TPS          ThroughputSnapshot  `json:"tps"`
	Block        BlockSnapshot       `json:"block"`
	Transactions TransactionSnapshot `json:"transactions"`
	Price        PriceSnapshot       `json:"price"`
	Accounts     AccountSnapshot     `json:"accounts"`
	Timestamp    int64               `json:"timestamp"`
	Cached       bool                `json:"cached"`
}
