// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/bidfoundry/quotient/internal/modules/analytics"
	"github.com/bidfoundry/quotient/internal/modules/pricing"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/settings"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Reference table repositories (need refdataDB)
	container.ProductRepo = refdata.NewProductRepository(
		container.RefdataDB.Conn(),
		log,
	)
	container.MaterialRepo = refdata.NewMaterialRepository(
		container.RefdataDB.Conn(),
		log,
	)
	container.ReferenceRepo = refdata.NewReferenceRepository(
		container.RefdataDB.Conn(),
		log,
	)

	// Rate history reader (needs the dedicated refdata read connection)
	container.RateHistoryDB = refdata.NewRateHistoryDB(
		container.RateHistoryConn,
		log,
	)

	// Tender repository (needs tendersDB)
	container.TenderRepo = tenders.NewTenderRepository(
		container.TendersDB.Conn(),
		log,
	)

	// Bid repository (needs auditDB - the append-only trail)
	container.BidRepo = pricing.NewBidRepository(
		container.AuditDB.Conn(),
		log,
	)

	// Bid sample repository for analytics (reads the same audit trail)
	container.BidSampleRepo = analytics.NewBidSampleRepository(
		container.AuditDB.Conn(),
		log,
	)

	// Settings repository (needs configDB)
	container.SettingsRepo = settings.NewRepository(
		container.ConfigDB.Conn(),
		log,
	)

	log.Info().Msg("All repositories initialized")

	return nil
}
