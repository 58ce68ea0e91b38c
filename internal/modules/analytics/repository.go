package analytics

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// BidSampleRepository reads the numeric series out of the audit ledger.
type BidSampleRepository struct {
	db  *sql.DB // audit.db
	log zerolog.Logger
}

// NewBidSampleRepository creates a new bid sample repository
func NewBidSampleRepository(db *sql.DB, log zerolog.Logger) *BidSampleRepository {
	return &BidSampleRepository{
		db:  db,
		log: log.With().Str("repository", "bid_samples").Logger(),
	}
}

// Samples returns every bid's final value and adjusted margin plus the
// floor-clamp count, in one pass over the ledger.
func (r *BidSampleRepository) Samples() (*BidSamples, error) {
	rows, err := r.db.Query("SELECT final_bid_value, adjusted_margin_pct, margin_floor_clamped FROM bids")
	if err != nil {
		return nil, fmt.Errorf("failed to query bid samples: %w", err)
	}
	defer rows.Close()

	samples := &BidSamples{}
	for rows.Next() {
		var value, margin float64
		var clamped int
		if err := rows.Scan(&value, &margin, &clamped); err != nil {
			return nil, fmt.Errorf("failed to scan bid sample: %w", err)
		}
		samples.Values = append(samples.Values, value)
		samples.Margins = append(samples.Margins, margin)
		if clamped != 0 {
			samples.FloorClamped++
		}
	}
	return samples, rows.Err()
}
