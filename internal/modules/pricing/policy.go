package pricing

import "github.com/bidfoundry/quotient/internal/domain"

// Default policy values. These mirror the commercial guardrails the pricing
// desk works from; runtime overrides come from the settings store.
const (
	DefaultBaseMarginPct    = 0.22
	DefaultMarginFloorPct   = 0.04
	DefaultOverheadPct      = 0.12
	DefaultHedgingBufferPct = 0.02
	DefaultCostOfCapitalPct = 0.12

	// DefaultBaseFreightRate is the cost per kg per km before zone surcharges.
	DefaultBaseFreightRate = 0.0059

	// DefaultDrumCapacityM is how many metres of cable fit on one drum.
	DefaultDrumCapacityM = 500.0

	// Drum unit costs: HV cable ships on steel drums, LV on wooden ones.
	DefaultDrumCostHV = 12000.0
	DefaultDrumCostLV = 4500.0

	// DefaultCreditDays is applied when payment terms cannot be parsed.
	DefaultCreditDays = 0
)

// Policy holds every tunable used by the bid pipeline. A Policy is resolved
// once per quote and embedded in the result, so an audited bid can always be
// replayed against the exact numbers that produced it.
type Policy struct {
	BaseMarginPct     float64 `json:"base_margin_pct"`
	MarginFloorPct    float64 `json:"margin_floor_pct"`
	OverheadPct       float64 `json:"overhead_pct"`
	HedgingBufferPct  float64 `json:"hedging_buffer_pct"`
	CostOfCapitalPct  float64 `json:"cost_of_capital_pct"`
	BaseFreightRate   float64 `json:"base_freight_rate"`
	DrumCapacityM     float64 `json:"drum_capacity_m"`
	DrumCostHV        float64 `json:"drum_cost_hv"`
	DrumCostLV        float64 `json:"drum_cost_lv"`
	DefaultCreditDays int     `json:"default_credit_days"`
}

// DefaultPolicy returns the compiled-in policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseMarginPct:     DefaultBaseMarginPct,
		MarginFloorPct:    DefaultMarginFloorPct,
		OverheadPct:       DefaultOverheadPct,
		HedgingBufferPct:  DefaultHedgingBufferPct,
		CostOfCapitalPct:  DefaultCostOfCapitalPct,
		BaseFreightRate:   DefaultBaseFreightRate,
		DrumCapacityM:     DefaultDrumCapacityM,
		DrumCostHV:        DefaultDrumCostHV,
		DrumCostLV:        DefaultDrumCostLV,
		DefaultCreditDays: DefaultCreditDays,
	}
}

// DrumCost returns the per-drum packaging cost for a voltage class.
func (p Policy) DrumCost(class domain.VoltageClass) float64 {
	if class == domain.VoltageHV {
		return p.DrumCostHV
	}
	return p.DrumCostLV
}

// PolicySource resolves the active pricing policy. Implementations layer
// runtime setting overrides on top of DefaultPolicy.
type PolicySource interface {
	ActivePolicy() Policy
}

// staticPolicySource always returns the same policy. Used when no settings
// store is wired, and by tests.
type staticPolicySource struct {
	policy Policy
}

func (s staticPolicySource) ActivePolicy() Policy {
	return s.policy
}

// StaticPolicy wraps a fixed policy in a PolicySource.
func StaticPolicy(p Policy) PolicySource {
	return staticPolicySource{policy: p}
}
