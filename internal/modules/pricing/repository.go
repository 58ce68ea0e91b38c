package pricing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BidRepository persists priced bids to the audit ledger. Rows are append
// only: a repriced tender gets a new row, never an update.
type BidRepository struct {
	db  *sql.DB // audit.db
	log zerolog.Logger
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *sql.DB, log zerolog.Logger) *BidRepository {
	return &BidRepository{
		db:  db,
		log: log.With().Str("repository", "bids").Logger(),
	}
}

// Insert appends one bid record to the ledger.
func (r *BidRepository) Insert(record BidRecord) error {
	breakdownJSON, err := json.Marshal(record.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal bid breakdown: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO bids
		(id, tender_id, snapshot_version, final_bid_value, total_cost_base,
		 adjusted_margin_pct, margin_floor_clamped, terms_defaulted,
		 breakdown_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TenderID,
		record.SnapshotVersion,
		record.FinalBidValue,
		record.TotalCostBase,
		record.AdjustedMarginPct,
		boolToInt(record.MarginFloorClamped),
		boolToInt(record.TermsDefaulted),
		string(breakdownJSON),
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	return nil
}

// GetByID returns one bid record, or nil when the id is unknown.
func (r *BidRepository) GetByID(id string) (*BidRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, tender_id, snapshot_version, final_bid_value, total_cost_base,
		       adjusted_margin_pct, margin_floor_clamped, terms_defaulted,
		       breakdown_json, created_at
		FROM bids
		WHERE id = ?
	`, id)

	record, err := scanBid(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	return record, nil
}

// GetByTender returns every bid priced for one tender, newest first.
func (r *BidRepository) GetByTender(tenderID string) ([]BidRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, tender_id, snapshot_version, final_bid_value, total_cost_base,
		       adjusted_margin_pct, margin_floor_clamped, terms_defaulted,
		       breakdown_json, created_at
		FROM bids
		WHERE tender_id = ?
		ORDER BY created_at DESC, id
	`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids for tender: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// LatestForTender returns the most recent bid for a tender, or nil when the
// tender has never been priced.
func (r *BidRepository) LatestForTender(tenderID string) (*BidRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, tender_id, snapshot_version, final_bid_value, total_cost_base,
		       adjusted_margin_pct, margin_floor_clamped, terms_defaulted,
		       breakdown_json, created_at
		FROM bids
		WHERE tender_id = ?
		ORDER BY created_at DESC, id
		LIMIT 1
	`, tenderID)

	record, err := scanBid(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bid: %w", err)
	}

	return record, nil
}

// ListRecent returns the most recently priced bids across all tenders.
func (r *BidRepository) ListRecent(limit int) ([]BidRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, tender_id, snapshot_version, final_bid_value, total_cost_base,
		       adjusted_margin_pct, margin_floor_clamped, terms_defaulted,
		       breakdown_json, created_at
		FROM bids
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bids: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// LatestSnapshotVersions maps each tender id to the snapshot version of its
// most recent bid. Versions are monotonic, so the newest bid per tender is
// the one with the highest version. The reprice job uses this to find
// tenders priced against stale reference data.
func (r *BidRepository) LatestSnapshotVersions() (map[string]int64, error) {
	rows, err := r.db.Query(`
		SELECT tender_id, MAX(snapshot_version)
		FROM bids
		GROUP BY tender_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bid snapshot versions: %w", err)
	}
	defer rows.Close()

	versions := make(map[string]int64)
	for rows.Next() {
		var tenderID string
		var version int64
		if err := rows.Scan(&tenderID, &version); err != nil {
			return nil, fmt.Errorf("failed to scan bid snapshot version: %w", err)
		}
		versions[tenderID] = version
	}

	return versions, rows.Err()
}

// Count returns the total number of audited bids.
func (r *BidRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bids`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return count, nil
}

// CountFloorClamped returns how many recorded bids had their margin
// raised to the policy floor.
func (r *BidRepository) CountFloorClamped() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bids WHERE margin_floor_clamped = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count floor-clamped bids: %w", err)
	}
	return count, nil
}

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanBid(row scannable) (*BidRecord, error) {
	var record BidRecord
	var floorClamped, termsDefaulted int
	var breakdownJSON string
	var createdAtUnix int64

	err := row.Scan(
		&record.ID,
		&record.TenderID,
		&record.SnapshotVersion,
		&record.FinalBidValue,
		&record.TotalCostBase,
		&floorClamped,
		&termsDefaulted,
		&breakdownJSON,
		&createdAtUnix,
	)
	if err != nil {
		return nil, err
	}

	record.MarginFloorClamped = floorClamped != 0
	record.TermsDefaulted = termsDefaulted != 0
	record.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

	if err := json.Unmarshal([]byte(breakdownJSON), &record.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid breakdown: %w", err)
	}

	return &record, nil
}

func collectBids(rows *sql.Rows) ([]BidRecord, error) {
	var records []BidRecord
	for rows.Next() {
		record, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
