// Package analytics computes read-only statistics over the competitor
// table and the bid audit ledger.
package analytics

// Quartiles are the 25th/50th/75th percentiles of a sample.
type Quartiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// CompetitiveLandscape summarizes the competitor table.
type CompetitiveLandscape struct {
	Competitors         int       `json:"competitors"`
	MeanAggression      float64   `json:"mean_aggression"`
	StdDevAggression    float64   `json:"stddev_aggression"`
	MeanWinRatePct      float64   `json:"mean_win_rate_pct"`
	AggressionQuartiles Quartiles `json:"aggression_quartiles"`
	HighAggression      int       `json:"high_aggression"`
}

// BidStatistics summarizes the audit ledger.
type BidStatistics struct {
	Bids            int       `json:"bids"`
	TotalValue      float64   `json:"total_value"`
	MeanValue       float64   `json:"mean_value"`
	MaxValue        float64   `json:"max_value"`
	FloorClampRate  float64   `json:"floor_clamp_rate"`
	MarginQuartiles Quartiles `json:"margin_quartiles"`
}

// BidSamples are the raw per-bid series statistics are computed from.
type BidSamples struct {
	Values       []float64
	Margins      []float64
	FloorClamped int
}
