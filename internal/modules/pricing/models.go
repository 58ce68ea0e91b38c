package pricing

import (
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
)

// BOMLineCost is the costed form of one bill-of-materials line.
type BOMLineCost struct {
	MaterialID   string  `json:"material_id"`
	MaterialName string  `json:"material_name"`
	QtyPerUnit   float64 `json:"qty_per_unit"`
	RatePerKg    float64 `json:"rate_per_kg"`
	Contribution float64 `json:"contribution"`
	Volatile     bool    `json:"volatile"`
}

// FactoryCostBreakdown decomposes the ex-works cost of a line item.
// MaterialCost already includes the hedging buffer.
type FactoryCostBreakdown struct {
	Lines         []BOMLineCost `json:"lines"`
	MaterialCost  float64       `json:"material_cost"`
	HedgingBuffer float64       `json:"hedging_buffer"`
	Overhead      float64       `json:"overhead"`
	DrumCount     int           `json:"drum_count"`
	PackagingCost float64       `json:"packaging_cost"`
	TestCost      float64       `json:"test_cost"`
	FactoryCost   float64       `json:"factory_cost"`
}

// FreightBreakdown decomposes delivery cost. RiskPct is carried through from
// the matched zone for the margin stage; it is never part of FreightCost.
type FreightBreakdown struct {
	ZoneName            string  `json:"zone_name"`
	SurchargeMultiplier float64 `json:"surcharge_multiplier"`
	RiskPct             float64 `json:"risk_pct"`
	TotalWeightKg       float64 `json:"total_weight_kg"`
	FreightCost         float64 `json:"freight_cost"`
}

// InterestBreakdown is the working-capital cost of the client's credit terms.
type InterestBreakdown struct {
	RawTerms       string  `json:"raw_terms"`
	CreditDays     int     `json:"credit_days"`
	TermsDefaulted bool    `json:"terms_defaulted"`
	InterestCost   float64 `json:"interest_cost"`
}

// Adjustment is one named delta applied on top of the base margin.
type Adjustment struct {
	Reason string  `json:"reason"`
	Delta  float64 `json:"delta"`
}

// MarginBreakdown records how the final margin was reached. RawPct is the
// pre-clamp sum; AdjustedPct is what the bid actually uses.
type MarginBreakdown struct {
	BasePct      float64      `json:"base_pct"`
	Adjustments  []Adjustment `json:"adjustments"`
	RawPct       float64      `json:"raw_pct"`
	AdjustedPct  float64      `json:"adjusted_pct"`
	FloorClamped bool         `json:"floor_clamped"`
}

// BidResult is the full decomposition of one priced bid. It is a pure
// function of the request, the snapshot and the policy, both of which it
// embeds, so two calls with the same inputs produce identical results.
type BidResult struct {
	Request         domain.BidRequest    `json:"request"`
	SnapshotVersion int64                `json:"snapshot_version"`
	Policy          Policy               `json:"policy"`
	Factory         FactoryCostBreakdown `json:"factory"`
	Freight         FreightBreakdown     `json:"freight"`
	Interest        InterestBreakdown    `json:"interest"`
	Margin          MarginBreakdown      `json:"margin"`
	TotalCostBase   float64              `json:"total_cost_base"`
	FinalBidValue   float64              `json:"final_bid_value"`
}

// BidRecord is an audited bid as persisted to the ledger.
type BidRecord struct {
	ID                 string    `json:"id"`
	TenderID           string    `json:"tender_id"`
	SnapshotVersion    int64     `json:"snapshot_version"`
	FinalBidValue      float64   `json:"final_bid_value"`
	TotalCostBase      float64   `json:"total_cost_base"`
	AdjustedMarginPct  float64   `json:"adjusted_margin_pct"`
	MarginFloorClamped bool      `json:"margin_floor_clamped"`
	TermsDefaulted     bool      `json:"terms_defaulted"`
	Breakdown          BidResult `json:"breakdown"`
	CreatedAt          time.Time `json:"created_at"`
}
