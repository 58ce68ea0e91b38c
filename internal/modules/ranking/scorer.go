// Package ranking orders the tender pipeline by expected value of
// effort: win probability scaled by deadline pressure.
package ranking

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
)

// MaxUrgencyDays is the horizon beyond which a due date adds no urgency.
const MaxUrgencyDays = 90.0

// urgencyGamma scales how much deadline pressure can lift a priority.
const urgencyGamma = 0.5

// Relationship scores by client loyalty tier.
const (
	relationshipGold    = 0.9
	relationshipSilver  = 0.8
	relationshipBronze  = 0.7
	relationshipKnown   = 0.6
	relationshipUnknown = 0.5
)

// Token-overlap tiers for the hint fallback when no verified match exists.
const (
	strongOverlap   = 0.65
	partialOverlap  = 0.40
	marginalOverlap = 0.20
)

var wordPattern = regexp.MustCompile(`\w+`)

// PriorityScorer scores a tender's claim on the team's attention.
type PriorityScorer struct{}

// PriorityScore is the scored result for one tender.
type PriorityScore struct {
	TenderID   string             `json:"tender_id"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
}

// NewPriorityScorer creates a new priority scorer
func NewPriorityScorer() *PriorityScorer {
	return &PriorityScorer{}
}

// Calculate scores one tender against the snapshot.
// Components:
// - product_fit: verified match confidence, or hint/description overlap
// - relationship: client loyalty tier
// - urgency: deadline proximity on a 90-day horizon
//
// priority = pWin * (1 + gamma*urgency), with pWin = (fit + relationship)/2.
func (ps *PriorityScorer) Calculate(tender *tenders.Tender, snap *refdata.Snapshot, now time.Time) PriorityScore {
	fit := ps.productFit(tender, snap)
	relationship := ps.relationshipScore(tender.ClientID, snap)
	urgency := ps.urgencyScore(tender.DueDate, now)

	pWin := (fit + relationship) / 2
	priority := pWin * (1 + urgencyGamma*urgency)

	return PriorityScore{
		TenderID: tender.ID,
		Score:    round3(priority),
		Components: map[string]float64{
			"product_fit":  round3(fit),
			"relationship": round3(relationship),
			"urgency":      round3(urgency),
			"p_win":        round3(pWin),
		},
	}
}

// productFit prefers the verified matching confidence. A product picked
// directly off the catalog counts as a full fit. Failing both, the
// requirement hint is compared against catalog descriptions and the
// best token overlap is mapped onto coarse tiers.
func (ps *PriorityScorer) productFit(tender *tenders.Tender, snap *refdata.Snapshot) float64 {
	if tender.MatchConfidence != nil {
		return *tender.MatchConfidence
	}
	if tender.ProductSKU != "" {
		if _, err := snap.ProductBySKU(tender.ProductSKU); err == nil {
			return 1.0
		}
	}

	hintTokens := tokenize(tender.RequirementHint)
	if len(hintTokens) == 0 {
		return 0
	}

	best := 0.0
	for _, product := range snap.Products() {
		sim := jaccard(hintTokens, tokenize(product.Description))
		if sim > best {
			best = sim
		}
	}

	switch {
	case best >= strongOverlap:
		return 1.0
	case best >= partialOverlap:
		return 0.7
	case best >= marginalOverlap:
		return 0.4
	default:
		return 0
	}
}

func (ps *PriorityScorer) relationshipScore(clientID string, snap *refdata.Snapshot) float64 {
	client, err := snap.ClientByID(clientID)
	if err != nil {
		return relationshipUnknown
	}

	switch client.LoyaltyTier {
	case domain.LoyaltyGold:
		return relationshipGold
	case domain.LoyaltySilver:
		return relationshipSilver
	case domain.LoyaltyBronze:
		return relationshipBronze
	default:
		return relationshipKnown
	}
}

// urgencyScore climbs as the due date approaches. No due date means no
// deadline pressure; an overdue tender is maximally urgent.
func (ps *PriorityScorer) urgencyScore(due *time.Time, now time.Time) float64 {
	if due == nil {
		return 0
	}

	daysLeft := due.Sub(now).Hours() / 24
	clamped := math.Max(0, math.Min(daysLeft, MaxUrgencyDays))
	return 1 - clamped/MaxUrgencyDays
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[word] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
