package tenders

import (
	"errors"
	"fmt"
	"time"
)

// Tender statuses.
const (
	StatusOpen      = "open"
	StatusPriced    = "priced"
	StatusSubmitted = "submitted"
	StatusClosed    = "closed"
)

// Pipeline stages tracked per tender.
const (
	StageMatching = "matching"
	StagePricing  = "pricing"
	StageRanking  = "ranking"
)

// Stage states.
const (
	StageStatePending = "pending"
	StageStateDone    = "done"
	StageStateFailed  = "failed"
)

// UnrankedPriority marks tenders that have not been ranked yet or are
// excluded from ranking (archived).
const UnrankedPriority = -1

// LineItem is the resolved commercial line of a tender: what to supply,
// how much, where, and on what terms. CompetitorIDs may be empty, in
// which case matching can infer the likely rival set.
type LineItem struct {
	ProductSKU       string   `json:"product_sku"`
	ConfirmedQty     float64  `json:"confirmed_qty"`
	DeliveryLocation string   `json:"delivery_location"`
	DistanceKm       float64  `json:"distance_km"`
	PaymentTerms     string   `json:"payment_terms"`
	CompetitorIDs    []string `json:"competitor_ids"`
}

// Tender is a tracked RFP with its lifecycle state, resolved line item
// and ranking position.
type Tender struct {
	ID               string     `json:"id"`
	ReferenceCode    string     `json:"reference_code"`
	Title            string     `json:"title"`
	ClientID         string     `json:"client_id"`
	Status           string     `json:"status"`
	Archived         bool       `json:"archived"`
	MatchingStage    string     `json:"matching_stage"`
	PricingStage     string     `json:"pricing_stage"`
	RankingStage     string     `json:"ranking_stage"`
	ProductSKU       string     `json:"product_sku"`
	ConfirmedQty     float64    `json:"confirmed_qty"`
	DeliveryLocation string     `json:"delivery_location"`
	DistanceKm       float64    `json:"distance_km"`
	PaymentTerms     string     `json:"payment_terms"`
	CompetitorIDs    []string   `json:"competitor_ids"`
	RequirementHint  string     `json:"requirement_hint"`
	MatchConfidence  *float64   `json:"match_confidence,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	PriorityRank     int        `json:"priority_rank"`
	PriorityScore    float64    `json:"priority_score"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LineItem returns the tender's resolved commercial line.
func (t *Tender) LineItem() LineItem {
	return LineItem{
		ProductSKU:       t.ProductSKU,
		ConfirmedQty:     t.ConfirmedQty,
		DeliveryLocation: t.DeliveryLocation,
		DistanceKm:       t.DistanceKm,
		PaymentTerms:     t.PaymentTerms,
		CompetitorIDs:    t.CompetitorIDs,
	}
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status   string
	ClientID string
	Archived *bool
}

// RankAssignment is one tender's position after a ranking pass.
type RankAssignment struct {
	TenderID string  `json:"tender_id"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
}

// DashboardStats are the headline numbers for the overview screen.
type DashboardStats struct {
	ActiveTenders    int       `json:"active_tenders"`
	PricedTenders    int       `json:"priced_tenders"`
	TotalBidValue    float64   `json:"total_bid_value"`
	FloorClampedBids int       `json:"floor_clamped_bids"`
	SnapshotVersion  int64     `json:"snapshot_version"`
	SnapshotBuiltAt  time.Time `json:"snapshot_built_at"`
}

// DuplicateReferenceError is returned when a tender reference code is
// already taken. Reference codes identify tenders externally and must
// stay unique.
type DuplicateReferenceError struct {
	ReferenceCode string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("tender with reference code %s already exists", e.ReferenceCode)
}

// IsDuplicateReference reports whether err is a DuplicateReferenceError.
func IsDuplicateReference(err error) bool {
	var dup *DuplicateReferenceError
	return errors.As(err, &dup)
}

// NotPriceableError is returned when a tender cannot be priced in its
// current state (archived, or no product resolved yet).
type NotPriceableError struct {
	TenderID string
	Reason   string
}

func (e *NotPriceableError) Error() string {
	return fmt.Sprintf("tender %s cannot be priced: %s", e.TenderID, e.Reason)
}

// IsNotPriceable reports whether err is a NotPriceableError.
func IsNotPriceable(err error) bool {
	var np *NotPriceableError
	return errors.As(err, &np)
}
