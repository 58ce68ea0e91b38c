// Package domain provides core domain models and types.
package domain

// VoltageClass is the product voltage tier that drives test and packaging cost lookups
type VoltageClass string

const (
	VoltageHV VoltageClass = "HV"
	VoltageLV VoltageClass = "LV"
)

// LoyaltyTier represents a client relationship tier
type LoyaltyTier string

const (
	LoyaltyNone   LoyaltyTier = "none"
	LoyaltyBronze LoyaltyTier = "bronze"
	LoyaltySilver LoyaltyTier = "silver"
	LoyaltyGold   LoyaltyTier = "gold"
)

// Volatility classifies a material's price stability
type Volatility string

const (
	VolatilityNormal Volatility = "normal"
	VolatilityHigh   Volatility = "high"
)

// BOMLine is one bill-of-materials entry: how much of a material one unit of product consumes
type BOMLine struct {
	MaterialID string  `json:"material_id"`
	QtyPerUnit float64 `json:"qty_per_unit"` // kg consumed per metre of product
}

// Product is a catalog SKU with its bill of materials and the attributes
// the matcher scores against
type Product struct {
	SKU               string       `json:"sku"`
	Description       string       `json:"description"`
	Category          string       `json:"category"` // drives factory utilization lookup
	VoltageClass      VoltageClass `json:"voltage_class"`
	VoltageKV         float64      `json:"voltage_kv"`
	Cores             int          `json:"cores"`
	CrossSectionMM2   float64      `json:"cross_section_mm2"`
	ConductorMaterial string       `json:"conductor_material"`
	Insulation        string       `json:"insulation"`
	Sheath            string       `json:"sheath"`
	Armour            string       `json:"armour"`
	Standards         []string     `json:"standards,omitempty"` // compliance standards (IS/IEC codes)
	WeightPerUnitKg   float64      `json:"weight_per_unit_kg"`  // kg per metre
	BOM               []BOMLine    `json:"bom"`
}

// Material is a raw material reference entry
type Material struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	RatePerKg  float64    `json:"rate_per_kg"`
	Volatility Volatility `json:"volatility"`
}

// TestCost is the mandatory type-test cost for a voltage class
type TestCost struct {
	VoltageClass VoltageClass `json:"voltage_class"`
	Cost         float64      `json:"cost"`
}

// LogisticsZone is a delivery-zone surcharge entry, matched by keyword
// against the delivery location text. Position controls first-match-wins order.
type LogisticsZone struct {
	Keyword             string  `json:"keyword"`
	Name                string  `json:"name"`
	SurchargeMultiplier float64 `json:"surcharge_multiplier"`
	RiskPct             float64 `json:"risk_pct"` // added to margin, never to freight
	Position            int     `json:"position"`
}

// DefaultZone is the fallback when no keyword matches the delivery location
func DefaultZone() LogisticsZone {
	return LogisticsZone{
		Keyword:             "",
		Name:                "Plains_Highway",
		SurchargeMultiplier: 1.0,
		RiskPct:             0,
		Position:            -1,
	}
}

// Competitor is a competitor-intelligence reference entry
type Competitor struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	AggressionScore float64  `json:"aggression_score"` // 1-10 ordinal
	WinRatePct      float64  `json:"win_rate_pct"`     // 0-100
	CollidingSKUs   []string `json:"colliding_skus,omitempty"`
}

// Client is a client reference entry
type Client struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	LoyaltyTier  LoyaltyTier `json:"loyalty_tier"`
	PaymentTerms string      `json:"payment_terms"` // free-text default terms, e.g. "90 Days Credit"
}

// Utilization is the factory capacity in use for a product category
type Utilization struct {
	Category string  `json:"category"`
	Pct      float64 `json:"pct"` // 0-100
}

// BidRequest is a fully resolved pricing request: the external collaborator
// has already matched the RFP line item to a product and a client
type BidRequest struct {
	ProductSKU       string   `json:"product_sku"`
	ConfirmedQty     float64  `json:"confirmed_qty"` // metres
	DeliveryLocation string   `json:"delivery_location"`
	DistanceKm       float64  `json:"distance_km"`
	PaymentTerms     string   `json:"payment_terms"` // free text, parsed to credit days
	ClientID         string   `json:"client_id"`
	CompetitorIDs    []string `json:"competitor_ids,omitempty"`
}
