package settings

// SettingDefaults holds the default value for every configurable setting.
// Numeric settings are stored as float64, string settings as string; the
// admin key is deliberately absent (env only, never persisted).
var SettingDefaults = map[string]interface{}{
	// Pricing policy overrides (see pricing.DefaultPolicy)
	"pricing_base_margin_pct":     0.22,   // Starting margin before order adjustments
	"pricing_margin_floor_pct":    0.04,   // Hard floor the adjusted margin is clamped to
	"pricing_overhead_pct":        0.12,   // Factory overhead applied on material cost
	"pricing_hedging_buffer_pct":  0.02,   // Buffer on high-volatility material lines
	"pricing_cost_of_capital_pct": 0.12,   // Annual rate for credit-period interest
	"pricing_base_freight_rate":   0.0059, // Freight cost per kg per km before zone surcharge
	"pricing_drum_capacity_m":     500.0,  // Metres of cable per drum
	"pricing_drum_cost_hv":        12000.0,
	"pricing_drum_cost_lv":        4500.0,
	"pricing_default_credit_days": 0.0, // Credit days assumed when terms cannot be parsed

	// Matching
	"matching_min_confidence": 0.5, // Confidence below which a match is flagged weak

	// Material rate watch
	"volatility_window_days":   30.0, // Rate history window the scan looks back over
	"volatility_threshold_pct": 5.0,  // Absolute rate-of-change that flags high volatility

	// Backups
	"backup_retention_days": 7.0, // Days to keep local backups (most recent always kept)
	"s3_endpoint_url":       "",  // S3-compatible endpoint (empty = AWS)
	"s3_access_key":         "",
	"s3_secret_key":         "",
	"s3_bucket":             "",
	"s3_prefix":             "quotient-backups",
	"s3_retention_days":     30.0, // Days to keep remote backups
}

// StringSettings marks which settings hold strings rather than numbers
var StringSettings = map[string]bool{
	"s3_endpoint_url": true,
	"s3_access_key":   true,
	"s3_secret_key":   true,
	"s3_bucket":       true,
	"s3_prefix":       true,
}

// SettingDescriptions holds human-readable descriptions for settings
// surfaced in the admin UI
var SettingDescriptions = map[string]string{
	"pricing_base_margin_pct":     "Starting margin percentage before order-specific adjustments (0.22 = 22%)",
	"pricing_margin_floor_pct":    "Minimum margin percentage a bid is ever priced at (0.04 = 4%)",
	"pricing_hedging_buffer_pct":  "Cost buffer applied to high-volatility material lines (0.02 = 2%)",
	"matching_min_confidence":     "Match confidence below which a resolution is flagged weak (0-1)",
	"volatility_threshold_pct":    "Absolute rate swing percentage that reclassifies a material as high volatility",
	"backup_retention_days":       "Days to keep local database backups",
	"s3_retention_days":           "Days to keep remote backups in object storage",
	"pricing_default_credit_days": "Credit days assumed when payment terms cannot be parsed",
}

// IsKnown reports whether key is a recognized setting.
func IsKnown(key string) bool {
	_, ok := SettingDefaults[key]
	return ok
}

// SettingUpdate represents a setting value update request
type SettingUpdate struct {
	Value interface{} `json:"value"`
}
