// Package refdata manages the reference tables that feed the pricing
// pipeline and the immutable snapshots built from them.
package refdata

import "time"

// RateHistoryEntry is one recorded material rate observation.
type RateHistoryEntry struct {
	MaterialID string    `json:"material_id"`
	RatePerKg  float64   `json:"rate_per_kg"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ReloadReport summarizes a snapshot rebuild.
type ReloadReport struct {
	Version     int64         `json:"version"`
	Products    int           `json:"products"`
	Materials   int           `json:"materials"`
	Zones       int           `json:"zones"`
	Competitors int           `json:"competitors"`
	Clients     int           `json:"clients"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"duration_ms"`
}

// RateAlertItem is one material flagged by the volatility scan.
type RateAlertItem struct {
	MaterialID string  `json:"material_id"`
	ChangePct  float64 `json:"change_pct"`
	MeanRate   float64 `json:"mean_rate"`
	StdDev     float64 `json:"std_dev"`
	Samples    int     `json:"samples"`
}

// VolatilityEntry is one material's standing in the rate-watch report.
type VolatilityEntry struct {
	MaterialID string  `json:"material_id"`
	Volatility string  `json:"volatility"`
	ChangePct  float64 `json:"change_pct"`
	MeanRate   float64 `json:"mean_rate"`
	StdDev     float64 `json:"std_dev"`
	Samples    int     `json:"samples"`
}

// VolatilityReport is the read-only rate-watch view: every material with
// enough history, plus the scan parameters the numbers were computed with.
type VolatilityReport struct {
	WindowDays   int               `json:"window_days"`
	ThresholdPct float64           `json:"threshold_pct"`
	Materials    []VolatilityEntry `json:"materials"`
}
