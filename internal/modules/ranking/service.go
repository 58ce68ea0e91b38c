package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/bidfoundry/quotient/internal/utils"
)

// SnapshotSource provides the reference snapshot scoring runs against.
type SnapshotSource interface {
	Snapshot() (*refdata.Snapshot, error)
}

// Service recomputes the tender priority queue.
type Service struct {
	tenderRepo   *tenders.TenderRepository
	snapshots    SnapshotSource
	scorer       *PriorityScorer
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates the ranking service.
func NewService(tenderRepo *tenders.TenderRepository, snapshots SnapshotSource, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		tenderRepo:   tenderRepo,
		snapshots:    snapshots,
		scorer:       NewPriorityScorer(),
		eventManager: eventManager,
		log:          log.With().Str("service", "ranking").Logger(),
	}
}

// RankAll rescores every active tender and persists a fresh 1..N
// ordering. Ties go to the earlier due date, then the reference code.
// Archived tenders keep rank -1 and are only counted. Returns the
// scored results in rank order.
func (s *Service) RankAll(ctx context.Context) ([]PriorityScore, error) {
	timer := utils.NewTimer("rank_all", s.log)
	defer timer.Stop()

	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	tenderList, err := s.tenderRepo.List(tenders.ListFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	archivedCount := 0
	byID := make(map[string]*tenders.Tender, len(tenderList))
	scored := make([]PriorityScore, 0, len(tenderList))

	for _, tender := range tenderList {
		if tender.Archived {
			archivedCount++
			continue
		}
		byID[tender.ID] = tender
		scored = append(scored, s.scorer.Calculate(tender, snap, now))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		a, b := byID[scored[i].TenderID], byID[scored[j].TenderID]
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case (a.DueDate != nil) != (b.DueDate != nil):
			return a.DueDate != nil
		}
		return a.ReferenceCode < b.ReferenceCode
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignments := make([]tenders.RankAssignment, len(scored))
	for i, result := range scored {
		assignments[i] = tenders.RankAssignment{
			TenderID: result.TenderID,
			Rank:     i + 1,
			Score:    result.Score,
		}
	}
	if err := s.tenderRepo.UpdateRanks(assignments); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("ranked", len(assignments)).
		Int("archived", archivedCount).
		Msg("Tender priority queue updated")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.RanksUpdated, "ranking", &events.RanksUpdatedData{
			Ranked:   len(assignments),
			Archived: archivedCount,
		})
	}
	return scored, nil
}

// QueueEntry is one persisted row of the priority queue.
type QueueEntry struct {
	Rank          int        `json:"rank"`
	Score         float64    `json:"score"`
	TenderID      string     `json:"tender_id"`
	ReferenceCode string     `json:"reference_code"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

// Queue returns the persisted priority queue, best first. Tenders that
// have never been ranked (rank -1) are excluded until the next RankAll.
func (s *Service) Queue() ([]QueueEntry, error) {
	notArchived := false
	tenderList, err := s.tenderRepo.List(tenders.ListFilter{Archived: &notArchived})
	if err != nil {
		return nil, err
	}

	entries := make([]QueueEntry, 0, len(tenderList))
	for _, tender := range tenderList {
		if tender.PriorityRank < 1 {
			continue
		}
		entries = append(entries, QueueEntry{
			Rank:          tender.PriorityRank,
			Score:         tender.PriorityScore,
			TenderID:      tender.ID,
			ReferenceCode: tender.ReferenceCode,
			Title:         tender.Title,
			Status:        tender.Status,
			DueDate:       tender.DueDate,
		})
	}
	return entries, nil
}

// ScoreTender scores a single tender without persisting anything.
// Useful for previewing how a change would move the queue.
func (s *Service) ScoreTender(id string) (*PriorityScore, error) {
	tender, err := s.tenderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, nil
	}

	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	result := s.scorer.Calculate(tender, snap, time.Now().UTC())
	return &result, nil
}
