/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"database/sql"

	"github.com/bidfoundry/quotient/internal/database"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/analytics"
	"github.com/bidfoundry/quotient/internal/modules/matching"
	"github.com/bidfoundry/quotient/internal/modules/pricing"
	"github.com/bidfoundry/quotient/internal/modules/ranking"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/settings"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/bidfoundry/quotient/internal/reliability"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: 5-database architecture (refdata, tenders, audit, config, cache)
 * - Repositories: Data access layer (products, materials, tenders, bids, settings)
 * - Services: Business logic layer (pricing, matching, ranking, analytics, reliability)
 * - Work Components: Background job processor with event-driven execution
 *
 * All dependencies are injected via constructor injection.
 */
type Container struct {
	// Databases (5-database architecture)
	// Each database uses SQLite with WAL mode and profile-specific PRAGMAs
	RefdataDB *database.DB // Reference tables (products, materials, zones, competitors, clients)
	TendersDB *database.DB // Tender store (tenders, line items, ranks)
	AuditDB   *database.DB // Immutable bid audit trail
	ConfigDB  *database.DB // Application settings
	CacheDB   *database.DB // Ephemeral operational data (job history, snapshot cache)

	// RateHistoryConn is a dedicated read connection to refdata.db for the
	// rate watcher's history scans, kept off the main connection's pool
	RateHistoryConn *sql.DB

	// Events
	EventBus     *events.Bus     // Event bus for pub/sub
	EventManager *events.Manager // Event manager (wraps bus)

	// Repositories - Data access layer
	ProductRepo   *refdata.ProductRepository     // Cable catalogue
	MaterialRepo  *refdata.MaterialRepository    // Raw material rates
	ReferenceRepo *refdata.ReferenceRepository   // Test costs, zones, competitors, clients, utilization
	RateHistoryDB *refdata.RateHistoryDB         // Historical material rates (read-only)
	TenderRepo    *tenders.TenderRepository      // Tender store
	BidRepo       *pricing.BidRepository         // Bid audit records
	BidSampleRepo *analytics.BidSampleRepository // Bid statistics source
	SettingsRepo  *settings.Repository           // Application settings

	// Services - Business logic layer
	SettingsService  *settings.Service  // Runtime settings and pricing policy resolution
	RefdataService   *refdata.Service   // Reference data, snapshots, volatility
	PricingService   *pricing.Service   // Bid pricing pipeline
	MatchingService  *matching.Service  // Requirement -> SKU resolution
	TenderService    *tenders.Service   // Tender lifecycle
	RankingService   *ranking.Service   // Tender priority ranks
	AnalyticsService *analytics.Service // Competitive and bid statistics

	// Reliability services
	BackupService      *reliability.BackupService         // Local database backups
	S3BackupService    *reliability.S3BackupService       // Remote object storage backups (optional)
	MaintenanceService *reliability.MaintenanceService    // Nightly checkpoint/vacuum pass
	HealthService      *reliability.DatabaseHealthService // Per-database health checks

	// Work Processor - Background job system
	WorkComponents *WorkComponents
}

// Databases returns the managed databases keyed by name
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"refdata": c.RefdataDB,
		"tenders": c.TendersDB,
		"audit":   c.AuditDB,
		"config":  c.ConfigDB,
		"cache":   c.CacheDB,
	}
}

// Close closes every database connection. Safe to call on a partially
// initialized container.
func (c *Container) Close() {
	if c.RateHistoryConn != nil {
		c.RateHistoryConn.Close()
	}
	for _, db := range []*database.DB{c.RefdataDB, c.TendersDB, c.AuditDB, c.ConfigDB, c.CacheDB} {
		if db != nil {
			db.Close()
		}
	}
}
