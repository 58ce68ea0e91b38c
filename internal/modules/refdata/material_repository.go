package refdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/rs/zerolog"
)

// MaterialRepository handles raw material database operations.
// Database: refdata.db (materials and material_rate_history tables)
type MaterialRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMaterialRepository creates a new material repository
func NewMaterialRepository(db *sql.DB, log zerolog.Logger) *MaterialRepository {
	return &MaterialRepository{
		db:  db,
		log: log.With().Str("repo", "material").Logger(),
	}
}

// GetByID returns a material by ID. Returns nil if not found.
func (r *MaterialRepository) GetByID(id string) (*domain.Material, error) {
	query := "SELECT id, name, rate_per_kg, volatility FROM materials WHERE id = ?"

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(id)))
	if err != nil {
		return nil, fmt.Errorf("failed to query material by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Material not found
	}

	material, err := r.scanMaterial(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan material: %w", err)
	}

	return &material, nil
}

// GetAll returns all materials ordered by ID.
func (r *MaterialRepository) GetAll() ([]domain.Material, error) {
	rows, err := r.db.Query("SELECT id, name, rate_per_kg, volatility FROM materials ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	var materials []domain.Material
	for rows.Next() {
		material, err := r.scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, material)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating materials: %w", err)
	}

	return materials, nil
}

// Upsert inserts or updates a material.
func (r *MaterialRepository) Upsert(material domain.Material) error {
	now := time.Now().Unix()
	id := strings.ToUpper(strings.TrimSpace(material.ID))
	if id == "" {
		return fmt.Errorf("material id is required")
	}

	query := `
		INSERT INTO materials (id, name, rate_per_kg, volatility, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rate_per_kg = excluded.rate_per_kg,
			volatility = excluded.volatility,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, id, material.Name, material.RatePerKg, string(material.Volatility), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert material: %w", err)
	}

	r.log.Debug().
		Str("id", id).
		Float64("rate_per_kg", material.RatePerKg).
		Str("volatility", string(material.Volatility)).
		Msg("Material upserted")

	return nil
}

// SetRate updates a material's current rate and appends the observation to
// the rate history in a single transaction. Returns the previous rate.
func (r *MaterialRepository) SetRate(id string, ratePerKg float64) (float64, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	now := time.Now().Unix()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if Commit succeeds

	var prevRate float64
	err = tx.QueryRow("SELECT rate_per_kg FROM materials WHERE id = ?", id).Scan(&prevRate)
	if err == sql.ErrNoRows {
		return 0, domain.NewReferenceNotFound("materials", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read current rate: %w", err)
	}

	_, err = tx.Exec("UPDATE materials SET rate_per_kg = ?, updated_at = ? WHERE id = ?", ratePerKg, now, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update material rate: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO material_rate_history (material_id, rate_per_kg, recorded_at) VALUES (?, ?, ?)",
		id, ratePerKg, now)
	if err != nil {
		return 0, fmt.Errorf("failed to record rate history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rate update: %w", err)
	}

	r.log.Info().
		Str("id", id).
		Float64("prev_rate", prevRate).
		Float64("new_rate", ratePerKg).
		Msg("Material rate updated")

	return prevRate, nil
}

// Delete removes a material.
func (r *MaterialRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM materials WHERE id = ?", strings.ToUpper(strings.TrimSpace(id)))
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Debug().
		Str("id", id).
		Int64("rows_affected", rowsAffected).
		Msg("Material deleted")

	return nil
}

// Count returns the number of materials.
func (r *MaterialRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM materials").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return count, nil
}

// scanMaterial scans a database row into a Material struct.
func (r *MaterialRepository) scanMaterial(rows *sql.Rows) (domain.Material, error) {
	var material domain.Material
	var name sql.NullString
	var volatility string

	err := rows.Scan(&material.ID, &name, &material.RatePerKg, &volatility)
	if err != nil {
		return material, err
	}

	if name.Valid {
		material.Name = name.String
	}
	material.Volatility = domain.Volatility(volatility)

	return material, nil
}
