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

// ProductRepository handles product catalogue database operations.
// Database: refdata.db (products and bom_lines tables)
type ProductRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// productColumns is the list of columns for the products table.
// Used to avoid SELECT * which can break when schema changes.
const productColumns = `sku, description, category, voltage_class, voltage_kv, cores,
cross_section_mm2, conductor_material, insulation, sheath, armour, standards, weight_per_unit_kg`

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, log zerolog.Logger) *ProductRepository {
	return &ProductRepository{
		db:  db,
		log: log.With().Str("repo", "product").Logger(),
	}
}

// GetBySKU returns a product by SKU including its bill of materials.
// Returns nil if not found.
func (r *ProductRepository) GetBySKU(sku string) (*domain.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE sku = ?"

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return nil, fmt.Errorf("failed to query product by sku: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Product not found
	}

	product, err := r.scanProduct(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	rows.Close()

	bom, err := r.getBOM(product.SKU)
	if err != nil {
		return nil, err
	}
	product.BOM = bom

	return &product, nil
}

// GetAll returns all products with their bills of materials.
func (r *ProductRepository) GetAll() ([]domain.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY sku"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	bomBySKU, err := r.getAllBOMs()
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].BOM = bomBySKU[products[i].SKU]
	}

	return products, nil
}

// Upsert inserts or updates a product and replaces its bill of materials
// in a single transaction.
func (r *ProductRepository) Upsert(product domain.Product) error {
	now := time.Now().Unix()
	sku := strings.ToUpper(strings.TrimSpace(product.SKU))
	if sku == "" {
		return fmt.Errorf("product sku is required")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if Commit succeeds

	query := `
		INSERT INTO products (sku, description, category, voltage_class, voltage_kv, cores,
			cross_section_mm2, conductor_material, insulation, sheath, armour, standards,
			weight_per_unit_kg, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sku) DO UPDATE SET
			description = excluded.description,
			category = excluded.category,
			voltage_class = excluded.voltage_class,
			voltage_kv = excluded.voltage_kv,
			cores = excluded.cores,
			cross_section_mm2 = excluded.cross_section_mm2,
			conductor_material = excluded.conductor_material,
			insulation = excluded.insulation,
			sheath = excluded.sheath,
			armour = excluded.armour,
			standards = excluded.standards,
			weight_per_unit_kg = excluded.weight_per_unit_kg,
			updated_at = excluded.updated_at
	`

	_, err = tx.Exec(query,
		sku,
		product.Description,
		product.Category,
		string(product.VoltageClass),
		product.VoltageKV,
		product.Cores,
		product.CrossSectionMM2,
		product.ConductorMaterial,
		product.Insulation,
		product.Sheath,
		product.Armour,
		utils.JoinCSV(product.Standards),
		product.WeightPerUnitKg,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	// Replace the BOM wholesale. Partial BOM edits are not supported at
	// the repository level.
	if _, err := tx.Exec("DELETE FROM bom_lines WHERE product_sku = ?", sku); err != nil {
		return fmt.Errorf("failed to clear bom lines: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO bom_lines (product_sku, material_id, qty_per_unit) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare bom insert: %w", err)
	}
	defer stmt.Close()

	for _, line := range product.BOM {
		if _, err := stmt.Exec(sku, line.MaterialID, line.QtyPerUnit); err != nil {
			return fmt.Errorf("failed to insert bom line for %s: %w", line.MaterialID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product upsert: %w", err)
	}

	r.log.Debug().
		Str("sku", sku).
		Int("bom_lines", len(product.BOM)).
		Msg("Product upserted")

	return nil
}

// Delete removes a product. BOM lines cascade via the foreign key.
func (r *ProductRepository) Delete(sku string) error {
	result, err := r.db.Exec("DELETE FROM products WHERE sku = ?", strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Debug().
		Str("sku", sku).
		Int64("rows_affected", rowsAffected).
		Msg("Product deleted")

	return nil
}

// Count returns the number of products in the catalogue.
func (r *ProductRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// getBOM returns the bill of materials for one product.
func (r *ProductRepository) getBOM(sku string) ([]domain.BOMLine, error) {
	rows, err := r.db.Query(
		"SELECT material_id, qty_per_unit FROM bom_lines WHERE product_sku = ? ORDER BY material_id", sku)
	if err != nil {
		return nil, fmt.Errorf("failed to query bom lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.BOMLine
	for rows.Next() {
		var line domain.BOMLine
		if err := rows.Scan(&line.MaterialID, &line.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("failed to scan bom line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bom lines: %w", err)
	}

	return lines, nil
}

// getAllBOMs returns bills of materials for all products keyed by SKU.
func (r *ProductRepository) getAllBOMs() (map[string][]domain.BOMLine, error) {
	rows, err := r.db.Query(
		"SELECT product_sku, material_id, qty_per_unit FROM bom_lines ORDER BY product_sku, material_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query bom lines: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.BOMLine)
	for rows.Next() {
		var sku string
		var line domain.BOMLine
		if err := rows.Scan(&sku, &line.MaterialID, &line.QtyPerUnit); err != nil {
			return nil, fmt.Errorf("failed to scan bom line: %w", err)
		}
		result[sku] = append(result[sku], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bom lines: %w", err)
	}

	return result, nil
}

// scanProduct scans a database row into a Product struct.
// The BOM is loaded separately.
func (r *ProductRepository) scanProduct(rows *sql.Rows) (domain.Product, error) {
	var product domain.Product
	var voltageClass string
	var description, category, conductor, insulation, sheath, armour sql.NullString
	var standards sql.NullString
	var voltageKV, crossSection, weight sql.NullFloat64
	var cores sql.NullInt64

	err := rows.Scan(
		&product.SKU,
		&description,
		&category,
		&voltageClass,
		&voltageKV,
		&cores,
		&crossSection,
		&conductor,
		&insulation,
		&sheath,
		&armour,
		&standards,
		&weight,
	)
	if err != nil {
		return product, err
	}

	product.VoltageClass = domain.VoltageClass(voltageClass)
	if description.Valid {
		product.Description = description.String
	}
	if category.Valid {
		product.Category = category.String
	}
	if voltageKV.Valid {
		product.VoltageKV = voltageKV.Float64
	}
	if cores.Valid {
		product.Cores = int(cores.Int64)
	}
	if crossSection.Valid {
		product.CrossSectionMM2 = crossSection.Float64
	}
	if conductor.Valid {
		product.ConductorMaterial = conductor.String
	}
	if insulation.Valid {
		product.Insulation = insulation.String
	}
	if sheath.Valid {
		product.Sheath = sheath.String
	}
	if armour.Valid {
		product.Armour = armour.String
	}
	if standards.Valid {
		product.Standards = utils.ParseCSV(standards.String)
	}
	if weight.Valid {
		product.WeightPerUnitKg = weight.Float64
	}

	return product, nil
}
