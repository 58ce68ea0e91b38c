package matching

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/modules/refdata"
)

// DefaultMinConfidence is the threshold below which a match is flagged weak.
const DefaultMinConfidence = 0.5

// SnapshotSource provides the active reference snapshot.
type SnapshotSource interface {
	Snapshot() (*refdata.Snapshot, error)
}

// Service scores requirements against the active catalog snapshot.
type Service struct {
	snapshots     SnapshotSource
	scorer        *MatchScorer
	minConfidence float64
	log           zerolog.Logger
}

// NewService creates a new matching service
func NewService(snapshots SnapshotSource, minConfidence float64, log zerolog.Logger) *Service {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Service{
		snapshots:     snapshots,
		scorer:        NewMatchScorer(),
		minConfidence: minConfidence,
		log:           log.With().Str("service", "matching").Logger(),
	}
}

// MinConfidence returns the weak-match threshold in use.
func (s *Service) MinConfidence() float64 {
	return s.minConfidence
}

// Resolve scores the requirement against every catalog product and returns
// the ranked candidates plus the rival set inferred for the best match.
func (s *Service) Resolve(req Requirement) (*Resolution, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, err
	}

	products := snap.Products()
	matches := make([]Match, 0, len(products))
	for _, product := range products {
		score, components := s.scorer.Score(req, product)
		confidence := round3(score / 100)
		matches = append(matches, Match{
			SKU:         product.SKU,
			Description: product.Description,
			Category:    product.Category,
			Score:       score,
			Confidence:  confidence,
			Weak:        confidence < s.minConfidence,
			Components:  components,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].SKU < matches[j].SKU
	})

	resolution := &Resolution{Matches: matches}
	if len(matches) > 0 && matches[0].Score > 0 {
		best := matches[0]
		resolution.BestSKU = best.SKU
		resolution.BestConfidence = best.Confidence
		resolution.LikelyCompetitorIDs = inferCompetitors(best.SKU, snap)
	}

	s.log.Debug().
		Str("best_sku", resolution.BestSKU).
		Float64("best_confidence", resolution.BestConfidence).
		Int("candidates", len(matches)).
		Msg("Requirement resolved")

	return resolution, nil
}

// InferCompetitors returns the ids of competitors whose catalog collides
// with the given SKU.
func (s *Service) InferCompetitors(sku string) ([]string, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, err
	}
	return inferCompetitors(sku, snap), nil
}

func inferCompetitors(sku string, snap *refdata.Snapshot) []string {
	var ids []string
	for _, competitor := range snap.Competitors() {
		for _, colliding := range competitor.CollidingSKUs {
			if strings.EqualFold(colliding, sku) {
				ids = append(ids, competitor.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}
