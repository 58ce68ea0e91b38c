package analytics

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bidfoundry/quotient/internal/modules/refdata"
)

// Competitors above this aggression score trigger margin cuts during
// pricing.
const highAggressionThreshold = 8.0

// SnapshotSource provides the competitor table statistics run against.
type SnapshotSource interface {
	Snapshot() (*refdata.Snapshot, error)
}

// Service computes the competitive and bid statistics behind the
// dashboard. Everything here is read-only.
type Service struct {
	snapshots  SnapshotSource
	bidSamples *BidSampleRepository
	log        zerolog.Logger
}

// NewService creates the analytics service.
func NewService(snapshots SnapshotSource, bidSamples *BidSampleRepository, log zerolog.Logger) *Service {
	return &Service{
		snapshots:  snapshots,
		bidSamples: bidSamples,
		log:        log.With().Str("service", "analytics").Logger(),
	}
}

// CompetitiveLandscape aggregates the competitor table: how aggressive
// the field is, how often rivals win, and how many sit in the band that
// forces margin cuts.
func (s *Service) CompetitiveLandscape() (*CompetitiveLandscape, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	competitors := snap.Competitors()
	landscape := &CompetitiveLandscape{Competitors: len(competitors)}
	if len(competitors) == 0 {
		return landscape, nil
	}

	aggression := make([]float64, 0, len(competitors))
	winRates := make([]float64, 0, len(competitors))
	for _, rival := range competitors {
		aggression = append(aggression, rival.AggressionScore)
		winRates = append(winRates, rival.WinRatePct)
		if rival.AggressionScore > highAggressionThreshold {
			landscape.HighAggression++
		}
	}

	// Sort for percentile calculations
	sort.Float64s(aggression)

	landscape.MeanAggression = stat.Mean(aggression, nil)
	if len(aggression) > 1 {
		landscape.StdDevAggression = stat.StdDev(aggression, nil)
	}
	landscape.MeanWinRatePct = stat.Mean(winRates, nil)
	landscape.AggressionQuartiles = quartiles(aggression)

	return landscape, nil
}

// BidStatistics aggregates the audit ledger: money quoted, how often
// pricing hit the margin floor, and where margins landed.
func (s *Service) BidStatistics() (*BidStatistics, error) {
	samples, err := s.bidSamples.Samples()
	if err != nil {
		return nil, err
	}

	statistics := &BidStatistics{Bids: len(samples.Values)}
	if len(samples.Values) == 0 {
		return statistics, nil
	}

	statistics.TotalValue = floats.Sum(samples.Values)
	statistics.MeanValue = stat.Mean(samples.Values, nil)
	statistics.MaxValue = floats.Max(samples.Values)
	statistics.FloorClampRate = float64(samples.FloorClamped) / float64(len(samples.Values))

	margins := append([]float64(nil), samples.Margins...)
	sort.Float64s(margins)
	statistics.MarginQuartiles = quartiles(margins)

	return statistics, nil
}

// quartiles expects sorted input.
func quartiles(sorted []float64) Quartiles {
	return Quartiles{
		P25: stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P75: stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
}
