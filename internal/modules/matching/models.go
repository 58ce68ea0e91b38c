// Package matching resolves structured tender requirements to catalog SKUs.
package matching

// Requirement is the structured technical ask extracted from one tender
// line item. Zero or empty fields mean the requirement does not constrain
// that attribute.
type Requirement struct {
	VoltageKV         float64  `json:"voltage_kv"`
	Cores             int      `json:"cores"`
	CrossSectionMM2   float64  `json:"cross_section_mm2"`
	ConductorMaterial string   `json:"conductor_material"`
	Insulation        string   `json:"insulation"`
	Sheath            string   `json:"sheath"`
	Armour            string   `json:"armour"`
	Standards         []string `json:"standards,omitempty"`
	ProductHint       string   `json:"product_hint,omitempty"`
}

// Match is one scored catalog candidate.
type Match struct {
	SKU         string             `json:"sku"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Score       float64            `json:"score"`      // 0-100 weighted points
	Confidence  float64            `json:"confidence"` // score / 100
	Weak        bool               `json:"weak"`       // below the confidence threshold
	Components  map[string]float64 `json:"components"` // per-factor points earned
}

// Resolution is the ranked outcome for one requirement.
type Resolution struct {
	Matches             []Match  `json:"matches"`
	BestSKU             string   `json:"best_sku"`
	BestConfidence      float64  `json:"best_confidence"`
	LikelyCompetitorIDs []string `json:"likely_competitor_ids"`
}
