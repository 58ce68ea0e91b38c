package work

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotReloaderInterface rebuilds the reference snapshot
type SnapshotReloaderInterface interface {
	ReloadSnapshot() error
}

// RankerInterface recomputes tender priority ranks
type RankerInterface interface {
	RankAll(ctx context.Context) error
}

// RepriceScannerInterface finds tenders whose latest bid predates the
// active snapshot
type RepriceScannerInterface interface {
	StaleBidTenderIDs() ([]string, error)
}

// TenderPricerInterface reprices a tender against the active snapshot
type TenderPricerInterface interface {
	RepriceTender(tenderID string) error
}

// VolatilityScannerInterface reclassifies material volatility from recent
// rate history
type VolatilityScannerInterface interface {
	ScanVolatility() error
}

// PipelineDeps contains all dependencies for pipeline work types
type PipelineDeps struct {
	Snapshot       SnapshotReloaderInterface
	Ranker         RankerInterface
	RepriceScanner RepriceScannerInterface
	TenderPricer   TenderPricerInterface
	Volatility     VolatilityScannerInterface
	Log            zerolog.Logger
}

// RegisterPipelineWorkTypes registers the bid pipeline work types with the registry
func RegisterPipelineWorkTypes(registry *Registry, deps *PipelineDeps) {
	// snapshot:reload - Rebuild the reference snapshot. Reference mutations
	// rebuild inline, so the loop never schedules this; it is the manual
	// lever (work API), and its completion gates repricing.
	registry.Register(&WorkType{
		ID:       "snapshot:reload",
		Priority: PriorityCritical,
		Timing:   AnyTime,
		FindSubjects: func() []string {
			return nil
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Snapshot.ReloadSnapshot(); err != nil {
				return fmt.Errorf("failed to reload snapshot: %w", err)
			}
			return nil
		},
	})

	// tenders:reprice - Re-quote tenders whose latest bid predates the
	// active snapshot. Subjects drain themselves: once repriced, a tender
	// no longer shows up as stale.
	registry.Register(&WorkType{
		ID:        "tenders:reprice",
		DependsOn: []string{"snapshot:reload"},
		Priority:  PriorityHigh,
		Timing:    AnyTime,
		FindSubjects: func() []string {
			ids, err := deps.RepriceScanner.StaleBidTenderIDs()
			if err != nil {
				deps.Log.Warn().Err(err).Msg("Failed to scan for stale bids")
				return nil
			}
			return ids
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.TenderPricer.RepriceTender(subject); err != nil {
				return fmt.Errorf("failed to reprice tender %s: %w", subject, err)
			}
			return nil
		},
	})

	// tenders:rerank - Recompute priority ranks. Lifecycle events clear the
	// completion for an immediate pass; the interval is the safety net.
	registry.Register(&WorkType{
		ID:       "tenders:rerank",
		Priority: PriorityMedium,
		Timing:   AnyTime,
		Interval: 1 * time.Hour,
		FindSubjects: func() []string {
			return []string{""}
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Ranker.RankAll(ctx); err != nil {
				return fmt.Errorf("failed to rerank tenders: %w", err)
			}
			return nil
		},
	})

	// refdata:volatility_scan - Reclassify material volatility daily
	registry.Register(&WorkType{
		ID:       "refdata:volatility_scan",
		Priority: PriorityMedium,
		Timing:   AnyTime,
		Interval: 24 * time.Hour,
		FindSubjects: func() []string {
			return []string{""}
		},
		Execute: func(ctx context.Context, subject string) error {
			if err := deps.Volatility.ScanVolatility(); err != nil {
				return fmt.Errorf("failed to scan volatility: %w", err)
			}
			return nil
		},
	})
}
