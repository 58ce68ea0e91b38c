package tenders

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/utils"
)

// TenderRepository persists tenders in the tenders database.
type TenderRepository struct {
	db  *sql.DB // tenders.db
	log zerolog.Logger
}

// NewTenderRepository creates a tender repository.
func NewTenderRepository(db *sql.DB, log zerolog.Logger) *TenderRepository {
	return &TenderRepository{
		db:  db,
		log: log.With().Str("repository", "tenders").Logger(),
	}
}

const tenderColumns = `id, reference_code, title, client_id, status, archived,
		matching_stage, pricing_stage, ranking_stage,
		product_sku, confirmed_qty, delivery_location, distance_km, payment_terms,
		competitor_ids, requirement_hint, match_confidence, due_date,
		priority_rank, priority_score, created_at, updated_at`

// Create inserts a new tender. Missing lifecycle fields are filled with
// their initial values (open status, pending stages, unranked).
func (r *TenderRepository) Create(t *Tender) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.MatchingStage == "" {
		t.MatchingStage = StageStatePending
	}
	if t.PricingStage == "" {
		t.PricingStage = StageStatePending
	}
	if t.RankingStage == "" {
		t.RankingStage = StageStatePending
	}
	t.PriorityRank = UnrankedPriority
	t.PriorityScore = 0

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	var dueDate interface{}
	if t.DueDate != nil {
		dueDate = t.DueDate.Unix()
	}
	var confidence interface{}
	if t.MatchConfidence != nil {
		confidence = *t.MatchConfidence
	}

	query := `
		INSERT INTO tenders (` + tenderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		t.ID, t.ReferenceCode, t.Title, t.ClientID, t.Status, boolToInt(t.Archived),
		t.MatchingStage, t.PricingStage, t.RankingStage,
		t.ProductSKU, t.ConfirmedQty, t.DeliveryLocation, t.DistanceKm, t.PaymentTerms,
		utils.JoinCSV(t.CompetitorIDs), t.RequirementHint, confidence, dueDate,
		t.PriorityRank, t.PriorityScore, now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tender: %w", err)
	}
	return nil
}

// GetByID returns a tender by id, or nil when not found.
func (r *TenderRepository) GetByID(id string) (*Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tenders WHERE id = ?`
	tender, err := scanTender(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get tender: %w", err)
	}
	return tender, nil
}

// GetByReference returns a tender by its external reference code, or nil
// when not found.
func (r *TenderRepository) GetByReference(code string) (*Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tenders WHERE reference_code = ?`
	tender, err := scanTender(r.db.QueryRow(query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get tender by reference: %w", err)
	}
	return tender, nil
}

// List returns tenders matching the filter, ranked tenders first in rank
// order, then unranked ones newest first.
func (r *TenderRepository) List(filter ListFilter) ([]*Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tenders WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.Archived != nil {
		query += " AND archived = ?"
		args = append(args, boolToInt(*filter.Archived))
	}
	query += " ORDER BY (priority_rank = -1) ASC, priority_rank ASC, created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenders: %w", err)
	}
	defer rows.Close()

	return collectTenders(rows)
}

// UpdateLineItem replaces the tender's resolved commercial line.
func (r *TenderRepository) UpdateLineItem(id string, line LineItem) error {
	query := `
		UPDATE tenders
		SET product_sku = ?, confirmed_qty = ?, delivery_location = ?,
			distance_km = ?, payment_terms = ?, competitor_ids = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		line.ProductSKU, line.ConfirmedQty, line.DeliveryLocation,
		line.DistanceKm, line.PaymentTerms, utils.JoinCSV(line.CompetitorIDs),
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update tender line item: %w", err)
	}
	return nil
}

// SetStage records the state of one pipeline stage for a tender.
func (r *TenderRepository) SetStage(id, stage, state string) error {
	var column string
	switch stage {
	case StageMatching:
		column = "matching_stage"
	case StagePricing:
		column = "pricing_stage"
	case StageRanking:
		column = "ranking_stage"
	default:
		return fmt.Errorf("unknown tender stage: %s", stage)
	}

	query := fmt.Sprintf("UPDATE tenders SET %s = ?, updated_at = ? WHERE id = ?", column)
	if _, err := r.db.Exec(query, state, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set tender stage: %w", err)
	}
	return nil
}

// SetStatus moves a tender through its lifecycle.
func (r *TenderRepository) SetStatus(id, status string) error {
	query := "UPDATE tenders SET status = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set tender status: %w", err)
	}
	return nil
}

// SetMatchResult stores the resolved product and match confidence and
// marks the matching stage done.
func (r *TenderRepository) SetMatchResult(id, sku string, confidence float64) error {
	query := `
		UPDATE tenders
		SET product_sku = ?, match_confidence = ?, matching_stage = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, sku, confidence, StageStateDone, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set match result: %w", err)
	}
	return nil
}

// SetCompetitors replaces the competitor id list on a tender.
func (r *TenderRepository) SetCompetitors(id string, competitorIDs []string) error {
	query := "UPDATE tenders SET competitor_ids = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, utils.JoinCSV(competitorIDs), time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set tender competitors: %w", err)
	}
	return nil
}

// SetRequirementHint stores the free-text hint a resolution was run with.
func (r *TenderRepository) SetRequirementHint(id, hint string) error {
	query := "UPDATE tenders SET requirement_hint = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, hint, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to set requirement hint: %w", err)
	}
	return nil
}

// SetArchived flags or unflags a tender as archived. Archiving drops the
// tender out of the ranked pool.
func (r *TenderRepository) SetArchived(id string, archived bool) error {
	query := "UPDATE tenders SET archived = ?, updated_at = ? WHERE id = ?"
	args := []interface{}{boolToInt(archived), time.Now().Unix(), id}
	if archived {
		query = `
			UPDATE tenders
			SET archived = ?, priority_rank = ?, ranking_stage = ?, updated_at = ?
			WHERE id = ?
		`
		args = []interface{}{boolToInt(archived), UnrankedPriority, StageStatePending, time.Now().Unix(), id}
	}
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to set archived flag: %w", err)
	}
	return nil
}

// Delete removes a tender permanently.
func (r *TenderRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM tenders WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tender: %w", err)
	}
	return nil
}

// UpdateRanks applies a full ranking pass in one transaction. Every
// assigned tender gets its rank, score and a done ranking stage.
func (r *TenderRepository) UpdateRanks(assignments []RankAssignment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, a := range assignments {
		_, err = tx.Exec(
			"UPDATE tenders SET priority_rank = ?, priority_score = ?, ranking_stage = ?, updated_at = ? WHERE id = ?",
			a.Rank, a.Score, StageStateDone, now, a.TenderID,
		)
		if err != nil {
			return fmt.Errorf("failed to update rank for tender %s: %w", a.TenderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank updates: %w", err)
	}

	r.log.Debug().Int("tenders", len(assignments)).Msg("Priority ranks updated")
	return nil
}

// StatusCounts returns per-status counts over non-archived tenders.
func (r *TenderRepository) StatusCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM tenders WHERE archived = 0 GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count tenders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Count returns the total number of tenders, archived included.
func (r *TenderRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tenders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tenders: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanTender(row scannable) (*Tender, error) {
	var t Tender
	var archived int
	var competitorCSV string
	var confidence sql.NullFloat64
	var dueDate sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&t.ID, &t.ReferenceCode, &t.Title, &t.ClientID, &t.Status, &archived,
		&t.MatchingStage, &t.PricingStage, &t.RankingStage,
		&t.ProductSKU, &t.ConfirmedQty, &t.DeliveryLocation, &t.DistanceKm, &t.PaymentTerms,
		&competitorCSV, &t.RequirementHint, &confidence, &dueDate,
		&t.PriorityRank, &t.PriorityScore, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Archived = archived != 0
	t.CompetitorIDs = utils.ParseCSV(competitorCSV)
	if confidence.Valid {
		v := confidence.Float64
		t.MatchConfidence = &v
	}
	if dueDate.Valid {
		d := time.Unix(dueDate.Int64, 0).UTC()
		t.DueDate = &d
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &t, nil
}

func collectTenders(rows *sql.Rows) ([]*Tender, error) {
	var tenders []*Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tender: %w", err)
		}
		tenders = append(tenders, tender)
	}
	return tenders, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
