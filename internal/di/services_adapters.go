/**
 * Package di provides adapter type definitions for service implementations.
 *
 * This file contains the adapters that bridge interface mismatches between
 * services and the work package. Adapters are needed because Go doesn't
 * support return type covariance: the work interfaces want plain errors,
 * while the services also return their domain results.
 */
package di

import (
	"context"

	"github.com/bidfoundry/quotient/internal/modules/ranking"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
)

// snapshotReloaderAdapter adapts refdata.Service to work.SnapshotReloaderInterface
type snapshotReloaderAdapter struct {
	service *refdata.Service
}

func (a *snapshotReloaderAdapter) ReloadSnapshot() error {
	_, err := a.service.Reload("work")
	return err
}

// rankerAdapter adapts ranking.Service to work.RankerInterface
type rankerAdapter struct {
	service *ranking.Service
}

func (a *rankerAdapter) RankAll(ctx context.Context) error {
	_, err := a.service.RankAll(ctx)
	return err
}

// tenderPricerAdapter adapts tenders.Service to work.TenderPricerInterface
type tenderPricerAdapter struct {
	service *tenders.Service
}

func (a *tenderPricerAdapter) RepriceTender(tenderID string) error {
	_, err := a.service.PriceTender(tenderID)
	return err
}

// volatilityScannerAdapter adapts refdata.Service to work.VolatilityScannerInterface
type volatilityScannerAdapter struct {
	service *refdata.Service
}

func (a *volatilityScannerAdapter) ScanVolatility() error {
	_, err := a.service.ScanVolatility()
	return err
}
