package tenders

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/matching"
	"github.com/bidfoundry/quotient/internal/modules/pricing"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
)

// Service owns the tender lifecycle: intake, requirement resolution,
// pricing orchestration and the dashboard rollup. Matching and pricing
// do the actual work; this service wires their results back onto the
// tender record and emits the lifecycle events the ranking pipeline
// listens for.
type Service struct {
	repo         *TenderRepository
	refdata      *refdata.Service
	pricing      *pricing.Service
	matching     *matching.Service
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates the tender service.
func NewService(
	repo *TenderRepository,
	refdataService *refdata.Service,
	pricingService *pricing.Service,
	matchingService *matching.Service,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		refdata:      refdataService,
		pricing:      pricingService,
		matching:     matchingService,
		eventManager: eventManager,
		log:          log.With().Str("service", "tenders").Logger(),
	}
}

// Create registers a new tender. Reference codes must be unique; a
// duplicate returns a DuplicateReferenceError.
func (s *Service) Create(t *Tender) error {
	if t.ReferenceCode == "" {
		return fmt.Errorf("tender reference code is required")
	}
	if t.Title == "" {
		return fmt.Errorf("tender title is required")
	}
	if t.ClientID == "" {
		return fmt.Errorf("tender client id is required")
	}

	existing, err := s.repo.GetByReference(t.ReferenceCode)
	if err != nil {
		return err
	}
	if existing != nil {
		return &DuplicateReferenceError{ReferenceCode: t.ReferenceCode}
	}

	if snap, snapErr := s.refdata.Snapshot(); snapErr == nil {
		if _, clientErr := snap.ClientByID(t.ClientID); clientErr != nil {
			s.log.Warn().
				Str("tender_id", t.ID).
				Str("client_id", t.ClientID).
				Msg("Tender references a client not present in reference data")
		}
	}

	if err := s.repo.Create(t); err != nil {
		return err
	}

	s.log.Info().
		Str("tender_id", t.ID).
		Str("reference_code", t.ReferenceCode).
		Str("client_id", t.ClientID).
		Msg("Tender created")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderCreated, "tenders", &events.TenderCreatedData{
			TenderID:      t.ID,
			ReferenceCode: t.ReferenceCode,
			ClientID:      t.ClientID,
		})
	}
	return nil
}

// Get returns a tender by id, or nil when not found.
func (s *Service) Get(id string) (*Tender, error) {
	return s.repo.GetByID(id)
}

// GetByReference returns a tender by reference code, or nil when not found.
func (s *Service) GetByReference(code string) (*Tender, error) {
	return s.repo.GetByReference(code)
}

// List returns tenders matching the filter.
func (s *Service) List(filter ListFilter) ([]*Tender, error) {
	return s.repo.List(filter)
}

// UpdateLineItem replaces a tender's commercial line. Any previous
// pricing result is stale afterwards, so the pricing stage resets to
// pending.
func (s *Service) UpdateLineItem(id string, line LineItem) error {
	tender, err := s.mustGet(id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateLineItem(id, line); err != nil {
		return err
	}
	if err := s.repo.SetStage(id, StagePricing, StageStatePending); err != nil {
		return err
	}

	s.log.Info().
		Str("tender_id", id).
		Str("product_sku", line.ProductSKU).
		Float64("confirmed_qty", line.ConfirmedQty).
		Msg("Tender line item updated")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderUpdated, "tenders", &events.TenderUpdatedData{
			TenderID: tender.ID,
			Field:    "line_item",
		})
	}
	return nil
}

// SetStatus moves a tender to a new lifecycle status.
func (s *Service) SetStatus(id, status string) error {
	switch status {
	case StatusOpen, StatusPriced, StatusSubmitted, StatusClosed:
	default:
		return fmt.Errorf("invalid tender status: %s", status)
	}

	tender, err := s.mustGet(id)
	if err != nil {
		return err
	}

	if err := s.repo.SetStatus(id, status); err != nil {
		return err
	}

	s.log.Info().
		Str("tender_id", id).
		Str("from", tender.Status).
		Str("to", status).
		Msg("Tender status changed")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderUpdated, "tenders", &events.TenderUpdatedData{
			TenderID: id,
			Field:    "status",
		})
	}
	return nil
}

// Archive removes a tender from the active pool.
func (s *Service) Archive(id string) error {
	return s.setArchived(id, true)
}

// Unarchive restores a tender to the active pool.
func (s *Service) Unarchive(id string) error {
	return s.setArchived(id, false)
}

func (s *Service) setArchived(id string, archived bool) error {
	if _, err := s.mustGet(id); err != nil {
		return err
	}

	if err := s.repo.SetArchived(id, archived); err != nil {
		return err
	}

	s.log.Info().Str("tender_id", id).Bool("archived", archived).Msg("Tender archive flag changed")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderArchived, "tenders", &events.TenderArchivedData{
			TenderID: id,
			Archived: archived,
		})
	}
	return nil
}

// Delete permanently removes a tender. Audited bids for it stay in the
// ledger.
func (s *Service) Delete(id string) error {
	if _, err := s.mustGet(id); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.log.Info().Str("tender_id", id).Msg("Tender deleted")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderDeleted, "tenders", &events.TenderDeletedData{
			TenderID: id,
		})
	}
	return nil
}

// ResolveTender runs catalog matching for a tender and stores the best
// match on the record. When the tender names no competitors, the likely
// rival set inferred from catalog collisions is stored as well. A
// resolution with no candidate at all marks the matching stage failed.
func (s *Service) ResolveTender(id string, req matching.Requirement) (*matching.Resolution, error) {
	tender, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	resolution, err := s.matching.Resolve(req)
	if err != nil {
		if stageErr := s.repo.SetStage(id, StageMatching, StageStateFailed); stageErr != nil {
			s.log.Error().Err(stageErr).Str("tender_id", id).Msg("Failed to record matching stage")
		}
		return nil, err
	}

	if req.ProductHint != "" {
		if err := s.repo.SetRequirementHint(id, req.ProductHint); err != nil {
			return nil, err
		}
	}

	if resolution.BestSKU == "" {
		if err := s.repo.SetStage(id, StageMatching, StageStateFailed); err != nil {
			return nil, err
		}
		s.log.Warn().Str("tender_id", id).Msg("No catalog product matched the requirement")
		return resolution, nil
	}

	if err := s.repo.SetMatchResult(id, resolution.BestSKU, resolution.BestConfidence); err != nil {
		return nil, err
	}
	if len(tender.CompetitorIDs) == 0 && len(resolution.LikelyCompetitorIDs) > 0 {
		if err := s.repo.SetCompetitors(id, resolution.LikelyCompetitorIDs); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("tender_id", id).
		Str("product_sku", resolution.BestSKU).
		Float64("confidence", resolution.BestConfidence).
		Msg("Tender requirement resolved")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TenderMatched, "tenders", &events.TenderMatchedData{
			TenderID:   id,
			ProductSKU: resolution.BestSKU,
			Confidence: resolution.BestConfidence,
		})
	}
	return resolution, nil
}

// PriceTender prices a tender's resolved line item and records the bid.
// The tender must be active and have a product assigned, either from
// matching or entered directly.
func (s *Service) PriceTender(id string) (*pricing.BidRecord, error) {
	tender, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if tender.Archived {
		return nil, &NotPriceableError{TenderID: id, Reason: "tender is archived"}
	}
	if tender.ProductSKU == "" {
		return nil, &NotPriceableError{TenderID: id, Reason: "no product resolved yet"}
	}

	req := domain.BidRequest{
		ProductSKU:       tender.ProductSKU,
		ConfirmedQty:     tender.ConfirmedQty,
		DeliveryLocation: tender.DeliveryLocation,
		DistanceKm:       tender.DistanceKm,
		PaymentTerms:     tender.PaymentTerms,
		ClientID:         tender.ClientID,
		CompetitorIDs:    tender.CompetitorIDs,
	}

	record, err := s.pricing.PriceAndRecord(tender.ID, req)
	if err != nil {
		if stageErr := s.repo.SetStage(id, StagePricing, StageStateFailed); stageErr != nil {
			s.log.Error().Err(stageErr).Str("tender_id", id).Msg("Failed to record pricing stage")
		}
		return nil, err
	}

	if err := s.repo.SetStage(id, StagePricing, StageStateDone); err != nil {
		return nil, err
	}
	if tender.Status == StatusOpen {
		if err := s.repo.SetStatus(id, StatusPriced); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("tender_id", id).
		Str("bid_id", record.ID).
		Float64("final_bid_value", record.FinalBidValue).
		Msg("Tender priced")

	return record, nil
}

// BidHistory returns every bid ever recorded for a tender, newest first.
// The tender must exist; the audit trail itself may be empty.
func (s *Service) BidHistory(id string) ([]pricing.BidRecord, error) {
	if _, err := s.mustGet(id); err != nil {
		return nil, err
	}
	return s.pricing.BidsForTender(id)
}

// StaleBidTenderIDs returns ids of active tenders whose latest bid was
// priced against an older reference snapshot than the current one. Tenders
// that have never been priced are not reported; the first pricing run is an
// operator decision.
func (s *Service) StaleBidTenderIDs() ([]string, error) {
	versions, err := s.pricing.LatestSnapshotVersions()
	if err != nil {
		return nil, fmt.Errorf("failed to load bid snapshot versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, nil
	}

	current := s.refdata.Version()
	notArchived := false
	active, err := s.repo.List(ListFilter{Archived: &notArchived})
	if err != nil {
		return nil, fmt.Errorf("failed to list tenders: %w", err)
	}

	var stale []string
	for _, tender := range active {
		if tender.Status != StatusOpen && tender.Status != StatusPriced {
			continue
		}
		if tender.ProductSKU == "" {
			continue
		}
		version, ok := versions[tender.ID]
		if !ok {
			continue
		}
		if version < current {
			stale = append(stale, tender.ID)
		}
	}
	return stale, nil
}

// DashboardStats assembles the overview numbers: the active pipeline,
// the money on the table across latest bids, how often pricing hit the
// margin floor, and which snapshot all of it was priced against.
func (s *Service) DashboardStats() (*DashboardStats, error) {
	counts, err := s.repo.StatusCounts()
	if err != nil {
		return nil, err
	}

	notArchived := false
	active, err := s.repo.List(ListFilter{Archived: &notArchived})
	if err != nil {
		return nil, err
	}

	totalValue := 0.0
	for _, tender := range active {
		if tender.Status == StatusClosed {
			continue
		}
		bid, err := s.pricing.LatestBidForTender(tender.ID)
		if err != nil {
			return nil, err
		}
		if bid != nil {
			totalValue += bid.FinalBidValue
		}
	}

	clamped, err := s.pricing.FloorClampedBidCount()
	if err != nil {
		return nil, err
	}

	snap, err := s.refdata.Snapshot()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		ActiveTenders:    counts[StatusOpen] + counts[StatusPriced] + counts[StatusSubmitted],
		PricedTenders:    counts[StatusPriced],
		TotalBidValue:    totalValue,
		FloorClampedBids: clamped,
		SnapshotVersion:  snap.Version(),
		SnapshotBuiltAt:  snap.BuiltAt(),
	}, nil
}

// mustGet loads a tender and converts a missing row into a not-found
// error callers can map to a 404.
func (s *Service) mustGet(id string) (*Tender, error) {
	tender, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, domain.NewReferenceNotFound("tenders", id)
	}
	return tender, nil
}
