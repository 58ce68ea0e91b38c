package pricing

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
)

// newTestPricingService boots a refdata service on in-memory databases (the
// seeder fills the reference tables) and wires a pricing service on top.
func newTestPricingService(t *testing.T) (*Service, *refdata.Service, *events.Bus) {
	refdataDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = refdataDB.Exec(`
		CREATE TABLE products (
			sku TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			voltage_class TEXT NOT NULL,
			voltage_kv REAL NOT NULL DEFAULT 0,
			cores INTEGER NOT NULL DEFAULT 0,
			cross_section_mm2 REAL NOT NULL DEFAULT 0,
			conductor_material TEXT NOT NULL DEFAULT '',
			insulation TEXT NOT NULL DEFAULT '',
			sheath TEXT NOT NULL DEFAULT '',
			armour TEXT NOT NULL DEFAULT '',
			standards TEXT NOT NULL DEFAULT '',
			weight_per_unit_kg REAL NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);
		CREATE TABLE bom_lines (
			product_sku TEXT NOT NULL,
			material_id TEXT NOT NULL,
			qty_per_unit REAL NOT NULL,
			PRIMARY KEY (product_sku, material_id)
		);
		CREATE TABLE materials (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			rate_per_kg REAL NOT NULL,
			volatility TEXT NOT NULL DEFAULT 'normal',
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);
		CREATE TABLE material_rate_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			material_id TEXT NOT NULL,
			rate_per_kg REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE TABLE test_costs (voltage_class TEXT PRIMARY KEY, cost REAL NOT NULL);
		CREATE TABLE logistics_zones (
			keyword TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			surcharge_multiplier REAL NOT NULL DEFAULT 1.0,
			risk_pct REAL NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE competitors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			aggression_score REAL NOT NULL DEFAULT 5,
			win_rate_pct REAL NOT NULL DEFAULT 0,
			colliding_skus TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			loyalty_tier TEXT NOT NULL DEFAULT 'none',
			payment_terms TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);
		CREATE TABLE factory_utilization (
			category TEXT PRIMARY KEY,
			utilization_pct REAL NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		);
	`)
	require.NoError(t, err)

	cacheDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = cacheDB.Exec(`
		CREATE TABLE snapshot_cache (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			built_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		)
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		refdataDB.Close()
		cacheDB.Close()
	})

	log := zerolog.Nop()
	bus := events.NewBus(log)
	manager := events.NewManager(bus, log)

	productRepo := refdata.NewProductRepository(refdataDB, log)
	materialRepo := refdata.NewMaterialRepository(refdataDB, log)
	referenceRepo := refdata.NewReferenceRepository(refdataDB, log)
	historyDB := refdata.NewRateHistoryDB(refdataDB, log)
	provider := refdata.NewSnapshotProvider(productRepo, materialRepo, referenceRepo, cacheDB, log)
	seeder := refdata.NewSeeder(productRepo, materialRepo, referenceRepo, log)
	watcher := refdata.NewRateWatcher(materialRepo, historyDB, manager, log)

	refdataService := refdata.NewService(provider, seeder, productRepo, materialRepo, referenceRepo, historyDB, watcher, manager, log)
	require.NoError(t, refdataService.Boot())

	bidRepo := NewBidRepository(setupAuditDB(t), log)
	service := NewService(refdataService, bidRepo, StaticPolicy(DefaultPolicy()), manager, log)

	return service, refdataService, bus
}

func seededRequest() domain.BidRequest {
	return domain.BidRequest{
		ProductSKU:       "PWR-33KV-3C-300",
		ConfirmedQty:     15000,
		DeliveryLocation: "Desert substation corridor",
		DistanceKm:       680,
		ClientID:         "CL-NATGRID",
		CompetitorIDs:    []string{"CMP-VOLTLINE"},
	}
}

func TestServiceQuoteAgainstSeededCatalogue(t *testing.T) {
	service, _, _ := newTestPricingService(t)

	result, err := service.Quote(seededRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.SnapshotVersion)
	assert.InDelta(t, 0.23, result.Margin.AdjustedPct, 1e-9)
	assert.InDelta(t, 44287417.11, result.FinalBidValue, 0.5)

	// Quote never touches the ledger.
	count, err := service.BidCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestServicePriceAndRecordPersistsAndEmits(t *testing.T) {
	service, _, bus := newTestPricingService(t)

	received := make(chan *events.Event, 1)
	unsubscribe := bus.Subscribe(events.BidPriced, func(e *events.Event) {
		received <- e
	})
	defer unsubscribe()

	record, err := service.PriceAndRecord("T-100", seededRequest())
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	assert.Equal(t, "T-100", record.TenderID)
	assert.Equal(t, int64(1), record.SnapshotVersion)
	assert.InDelta(t, 0.23, record.AdjustedMarginPct, 1e-9)

	stored, err := service.Bid(record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, record.FinalBidValue, stored.FinalBidValue, 0.01)
	assert.Equal(t, "PWR-33KV-3C-300", stored.Breakdown.Request.ProductSKU)

	select {
	case event := <-received:
		data := event.GetTypedData()
		require.NotNil(t, data)
		priced, ok := data.(*events.BidPricedData)
		require.True(t, ok)
		assert.Equal(t, record.ID, priced.BidID)
		assert.Equal(t, "T-100", priced.TenderID)
		assert.InDelta(t, record.FinalBidValue, priced.FinalBidValue, 0.01)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected BidPriced event")
	}
}

func TestServiceRepriceSeesNewRates(t *testing.T) {
	service, refdataService, _ := newTestPricingService(t)

	first, err := service.PriceAndRecord("T-100", seededRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.SnapshotVersion)

	// Aluminium jumps, the snapshot rebuilds, the next bid prices higher.
	require.NoError(t, refdataService.SetMaterialRate("MAT-AL-ROD", 300.0))

	second, err := service.PriceAndRecord("T-100", seededRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.SnapshotVersion)
	assert.Greater(t, second.FinalBidValue, first.FinalBidValue)

	trail, err := service.BidsForTender("T-100")
	require.NoError(t, err)
	assert.Len(t, trail, 2)

	versions, err := service.LatestSnapshotVersions()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"T-100": 2}, versions)
}

func TestServicePolicyOverrideChangesQuote(t *testing.T) {
	service, refdataService, _ := newTestPricingService(t)

	policy := DefaultPolicy()
	policy.BaseMarginPct = 0.30
	override := NewService(refdataService, NewBidRepository(setupAuditDB(t), zerolog.Nop()), StaticPolicy(policy), nil, zerolog.Nop())

	result, err := override.Quote(seededRequest())
	require.NoError(t, err)

	assert.InDelta(t, 0.30, result.Margin.BasePct, 1e-9)
	assert.InDelta(t, 0.31, result.Margin.AdjustedPct, 1e-9)
	assert.InDelta(t, 0.30, result.Policy.BaseMarginPct, 1e-9)
}
