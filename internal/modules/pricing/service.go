package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/utils"
)

// Service prices bid requests against the active reference snapshot and
// keeps the audit ledger of every bid it records.
type Service struct {
	refdata      *refdata.Service
	bidRepo      *BidRepository
	policySource PolicySource
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new pricing service
func NewService(
	refdataService *refdata.Service,
	bidRepo *BidRepository,
	policySource PolicySource,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		refdata:      refdataService,
		bidRepo:      bidRepo,
		policySource: policySource,
		eventManager: eventManager,
		log:          log.With().Str("service", "pricing").Logger(),
	}
}

// ActivePolicy resolves the policy for the next quote.
func (s *Service) ActivePolicy() Policy {
	if s.policySource == nil {
		return DefaultPolicy()
	}
	return s.policySource.ActivePolicy()
}

// Quote prices a request against the current snapshot without persisting
// anything. Used for what-if quotes and as the first half of PriceAndRecord.
func (s *Service) Quote(req domain.BidRequest) (*BidResult, error) {
	snap, err := s.refdata.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("no reference snapshot available: %w", err)
	}

	calc := NewCalculator(s.ActivePolicy(), s.log)
	return calc.Quote(req, snap)
}

// PriceAndRecord quotes a request on behalf of a tender and appends the
// result to the audit ledger. Every call produces a fresh record; earlier
// bids for the same tender are kept untouched.
func (s *Service) PriceAndRecord(tenderID string, req domain.BidRequest) (*BidRecord, error) {
	timer := utils.NewTimer("price_and_record", s.log)
	defer timer.Stop()

	result, err := s.Quote(req)
	if err != nil {
		return nil, err
	}

	record := BidRecord{
		ID:                 uuid.New().String(),
		TenderID:           tenderID,
		SnapshotVersion:    result.SnapshotVersion,
		FinalBidValue:      result.FinalBidValue,
		TotalCostBase:      result.TotalCostBase,
		AdjustedMarginPct:  result.Margin.AdjustedPct,
		MarginFloorClamped: result.Margin.FloorClamped,
		TermsDefaulted:     result.Interest.TermsDefaulted,
		Breakdown:          *result,
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.bidRepo.Insert(record); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("bid_id", record.ID).
		Str("tender_id", tenderID).
		Int64("snapshot_version", record.SnapshotVersion).
		Float64("final_bid_value", record.FinalBidValue).
		Bool("floor_clamped", record.MarginFloorClamped).
		Msg("Bid recorded")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.BidPriced, "pricing", &events.BidPricedData{
			BidID:           record.ID,
			TenderID:        tenderID,
			SnapshotVersion: record.SnapshotVersion,
			FinalBidValue:   record.FinalBidValue,
			MarginPct:       record.AdjustedMarginPct,
			FloorClamped:    record.MarginFloorClamped,
		})
	}

	return &record, nil
}

// Bid returns one audited bid by id, or nil when unknown.
func (s *Service) Bid(id string) (*BidRecord, error) {
	return s.bidRepo.GetByID(id)
}

// BidsForTender returns the audit trail for one tender, newest first.
func (s *Service) BidsForTender(tenderID string) ([]BidRecord, error) {
	return s.bidRepo.GetByTender(tenderID)
}

// LatestBidForTender returns the most recent bid for a tender, or nil.
func (s *Service) LatestBidForTender(tenderID string) (*BidRecord, error) {
	return s.bidRepo.LatestForTender(tenderID)
}

// RecentBids returns the most recently recorded bids across all tenders.
func (s *Service) RecentBids(limit int) ([]BidRecord, error) {
	return s.bidRepo.ListRecent(limit)
}

// LatestSnapshotVersions reports the snapshot version behind each tender's
// newest bid.
func (s *Service) LatestSnapshotVersions() (map[string]int64, error) {
	return s.bidRepo.LatestSnapshotVersions()
}

// BidCount returns the total number of audited bids.
func (s *Service) BidCount() (int, error) {
	return s.bidRepo.Count()
}

// FloorClampedBidCount returns how many audited bids hit the margin floor.
func (s *Service) FloorClampedBidCount() (int, error) {
	return s.bidRepo.CountFloorClamped()
}
