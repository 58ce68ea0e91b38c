package refdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// RateHistoryDB provides access to historical material rate data
type RateHistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRateHistoryDB creates a new rate history accessor
func NewRateHistoryDB(db *sql.DB, log zerolog.Logger) *RateHistoryDB {
	return &RateHistoryDB{
		db:  db,
		log: log.With().Str("component", "rate_history_db").Logger(),
	}
}

// GetRates fetches rate observations for a material, newest first.
func (h *RateHistoryDB) GetRates(materialID string, limit int) ([]RateHistoryEntry, error) {
	query := `
		SELECT material_id, rate_per_kg, recorded_at
		FROM material_rate_history
		WHERE material_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`

	rows, err := h.db.Query(query, strings.ToUpper(strings.TrimSpace(materialID)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate history: %w", err)
	}
	defer rows.Close()

	var entries []RateHistoryEntry
	for rows.Next() {
		var e RateHistoryEntry
		var recordedAt sql.NullInt64

		if err := rows.Scan(&e.MaterialID, &e.RatePerKg, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate history entry: %w", err)
		}

		if recordedAt.Valid {
			e.RecordedAt = time.Unix(recordedAt.Int64, 0).UTC()
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate history: %w", err)
	}

	return entries, nil
}

// GetRecentRates fetches rate observations from the last N days, newest first.
func (h *RateHistoryDB) GetRecentRates(materialID string, days int) ([]RateHistoryEntry, error) {
	if days <= 0 {
		return []RateHistoryEntry{}, nil
	}

	cutoffUnix := time.Now().AddDate(0, 0, -days).Unix()

	query := `
		SELECT material_id, rate_per_kg, recorded_at
		FROM material_rate_history
		WHERE material_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC
	`

	rows, err := h.db.Query(query, strings.ToUpper(strings.TrimSpace(materialID)), cutoffUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent rates: %w", err)
	}
	defer rows.Close()

	var entries []RateHistoryEntry
	for rows.Next() {
		var e RateHistoryEntry
		var recordedAt sql.NullInt64

		if err := rows.Scan(&e.MaterialID, &e.RatePerKg, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate history entry: %w", err)
		}

		if recordedAt.Valid {
			e.RecordedAt = time.Unix(recordedAt.Int64, 0).UTC()
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent rates: %w", err)
	}

	return entries, nil
}

// HasHistory checks whether any rate observations exist for a material.
func (h *RateHistoryDB) HasHistory(materialID string) (bool, error) {
	var count int
	err := h.db.QueryRow(
		"SELECT COUNT(*) FROM material_rate_history WHERE material_id = ?",
		strings.ToUpper(strings.TrimSpace(materialID))).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check rate history: %w", err)
	}

	return count > 0, nil
}

// DeleteStaleRates removes observations older than the threshold.
// Used by the maintenance job to prevent unbounded table growth.
func (h *RateHistoryDB) DeleteStaleRates(olderThan time.Time) error {
	result, err := h.db.Exec("DELETE FROM material_rate_history WHERE recorded_at < ?", olderThan.Unix())
	if err != nil {
		return fmt.Errorf("failed to delete stale rates: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		h.log.Info().
			Int64("rows_deleted", rowsAffected).
			Time("older_than", olderThan).
			Msg("Deleted stale rate history")
	}

	return nil
}
