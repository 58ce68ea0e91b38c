package refdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/utils"
	"github.com/rs/zerolog"
)

// ReferenceRepository handles the small reference tables consumed by the
// pricing pipeline: test costs, logistics zones, competitors, clients and
// factory utilization.
// Database: refdata.db
type ReferenceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *sql.DB, log zerolog.Logger) *ReferenceRepository {
	return &ReferenceRepository{
		db:  db,
		log: log.With().Str("repo", "reference").Logger(),
	}
}

// GetAllTestCosts returns routine test costs per voltage class.
func (r *ReferenceRepository) GetAllTestCosts() ([]domain.TestCost, error) {
	rows, err := r.db.Query("SELECT voltage_class, cost FROM test_costs ORDER BY voltage_class")
	if err != nil {
		return nil, fmt.Errorf("failed to query test costs: %w", err)
	}
	defer rows.Close()

	var costs []domain.TestCost
	for rows.Next() {
		var tc domain.TestCost
		var voltageClass string
		if err := rows.Scan(&voltageClass, &tc.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan test cost: %w", err)
		}
		tc.VoltageClass = domain.VoltageClass(voltageClass)
		costs = append(costs, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test costs: %w", err)
	}

	return costs, nil
}

// UpsertTestCost inserts or updates a test cost row.
func (r *ReferenceRepository) UpsertTestCost(tc domain.TestCost) error {
	query := `
		INSERT INTO test_costs (voltage_class, cost)
		VALUES (?, ?)
		ON CONFLICT(voltage_class) DO UPDATE SET
			cost = excluded.cost
	`
	if _, err := r.db.Exec(query, string(tc.VoltageClass), tc.Cost); err != nil {
		return fmt.Errorf("failed to upsert test cost: %w", err)
	}
	return nil
}

// GetAllZones returns logistics zones ordered by match position.
// The position ordering is load-bearing: the first keyword match wins
// during delivery location resolution.
func (r *ReferenceRepository) GetAllZones() ([]domain.LogisticsZone, error) {
	rows, err := r.db.Query(
		"SELECT keyword, name, surcharge_multiplier, risk_pct, position FROM logistics_zones ORDER BY position, keyword")
	if err != nil {
		return nil, fmt.Errorf("failed to query logistics zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.LogisticsZone
	for rows.Next() {
		var zone domain.LogisticsZone
		if err := rows.Scan(&zone.Keyword, &zone.Name, &zone.SurchargeMultiplier, &zone.RiskPct, &zone.Position); err != nil {
			return nil, fmt.Errorf("failed to scan logistics zone: %w", err)
		}
		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logistics zones: %w", err)
	}

	return zones, nil
}

// UpsertZone inserts or updates a logistics zone keyed by keyword.
func (r *ReferenceRepository) UpsertZone(zone domain.LogisticsZone) error {
	keyword := strings.ToLower(strings.TrimSpace(zone.Keyword))
	if keyword == "" {
		return fmt.Errorf("zone keyword is required")
	}

	query := `
		INSERT INTO logistics_zones (keyword, name, surcharge_multiplier, risk_pct, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			name = excluded.name,
			surcharge_multiplier = excluded.surcharge_multiplier,
			risk_pct = excluded.risk_pct,
			position = excluded.position
	`
	if _, err := r.db.Exec(query, keyword, zone.Name, zone.SurchargeMultiplier, zone.RiskPct, zone.Position); err != nil {
		return fmt.Errorf("failed to upsert logistics zone: %w", err)
	}

	r.log.Debug().
		Str("keyword", keyword).
		Float64("multiplier", zone.SurchargeMultiplier).
		Msg("Logistics zone upserted")

	return nil
}

// DeleteZone removes a logistics zone.
func (r *ReferenceRepository) DeleteZone(keyword string) error {
	if _, err := r.db.Exec("DELETE FROM logistics_zones WHERE keyword = ?",
		strings.ToLower(strings.TrimSpace(keyword))); err != nil {
		return fmt.Errorf("failed to delete logistics zone: %w", err)
	}
	return nil
}

// GetAllCompetitors returns all competitor profiles.
func (r *ReferenceRepository) GetAllCompetitors() ([]domain.Competitor, error) {
	rows, err := r.db.Query(
		"SELECT id, name, aggression_score, win_rate_pct, colliding_skus FROM competitors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	var competitors []domain.Competitor
	for rows.Next() {
		var c domain.Competitor
		var name, collidingSKUs sql.NullString
		if err := rows.Scan(&c.ID, &name, &c.AggressionScore, &c.WinRatePct, &collidingSKUs); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		if name.Valid {
			c.Name = name.String
		}
		if collidingSKUs.Valid {
			c.CollidingSKUs = utils.ParseCSV(collidingSKUs.String)
		}
		competitors = append(competitors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitors: %w", err)
	}

	return competitors, nil
}

// UpsertCompetitor inserts or updates a competitor profile.
func (r *ReferenceRepository) UpsertCompetitor(c domain.Competitor) error {
	id := strings.ToUpper(strings.TrimSpace(c.ID))
	if id == "" {
		return fmt.Errorf("competitor id is required")
	}

	query := `
		INSERT INTO competitors (id, name, aggression_score, win_rate_pct, colliding_skus)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			aggression_score = excluded.aggression_score,
			win_rate_pct = excluded.win_rate_pct,
			colliding_skus = excluded.colliding_skus
	`
	if _, err := r.db.Exec(query, id, c.Name, c.AggressionScore, c.WinRatePct, utils.JoinCSV(c.CollidingSKUs)); err != nil {
		return fmt.Errorf("failed to upsert competitor: %w", err)
	}
	return nil
}

// GetAllClients returns all client profiles.
func (r *ReferenceRepository) GetAllClients() ([]domain.Client, error) {
	rows, err := r.db.Query("SELECT id, name, loyalty_tier, payment_terms FROM clients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		var name, tier, terms sql.NullString
		if err := rows.Scan(&c.ID, &name, &tier, &terms); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		if name.Valid {
			c.Name = name.String
		}
		if tier.Valid {
			c.LoyaltyTier = domain.LoyaltyTier(tier.String)
		}
		if terms.Valid {
			c.PaymentTerms = terms.String
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// UpsertClient inserts or updates a client profile.
func (r *ReferenceRepository) UpsertClient(c domain.Client) error {
	id := strings.ToUpper(strings.TrimSpace(c.ID))
	if id == "" {
		return fmt.Errorf("client id is required")
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO clients (id, name, loyalty_tier, payment_terms, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			loyalty_tier = excluded.loyalty_tier,
			payment_terms = excluded.payment_terms,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, id, c.Name, string(c.LoyaltyTier), c.PaymentTerms, now); err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

// GetAllUtilization returns factory utilization per product category.
func (r *ReferenceRepository) GetAllUtilization() ([]domain.Utilization, error) {
	rows, err := r.db.Query("SELECT category, utilization_pct FROM factory_utilization ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query factory utilization: %w", err)
	}
	defer rows.Close()

	var entries []domain.Utilization
	for rows.Next() {
		var u domain.Utilization
		if err := rows.Scan(&u.Category, &u.Pct); err != nil {
			return nil, fmt.Errorf("failed to scan factory utilization: %w", err)
		}
		entries = append(entries, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating factory utilization: %w", err)
	}

	return entries, nil
}

// UpsertUtilization inserts or updates a utilization row.
func (r *ReferenceRepository) UpsertUtilization(u domain.Utilization) error {
	query := `
		INSERT INTO factory_utilization (category, utilization_pct)
		VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET
			utilization_pct = excluded.utilization_pct
	`
	if _, err := r.db.Exec(query, u.Category, u.Pct); err != nil {
		return fmt.Errorf("failed to upsert factory utilization: %w", err)
	}
	return nil
}
