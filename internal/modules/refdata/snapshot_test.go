package refdata

import (
	"testing"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestSnapshot(version int64) *Snapshot {
	products := []domain.Product{
		{
			SKU:             "PWR-33KV-3C-300",
			Description:     "33kV 3-core 300sqmm XLPE power cable",
			Category:        "power_cable",
			VoltageClass:    domain.VoltageHV,
			VoltageKV:       33,
			Cores:           3,
			CrossSectionMM2: 300,
			WeightPerUnitKg: 12.0,
			BOM: []domain.BOMLine{
				{MaterialID: "MAT-AL-ROD", QtyPerUnit: 3.25},
				{MaterialID: "MAT-XLPE", QtyPerUnit: 2.1},
			},
		},
		{
			SKU:          "LT-1KV-2C-16",
			Category:     "lt_cable",
			VoltageClass: domain.VoltageLV,
		},
	}

	materials := []domain.Material{
		{ID: "MAT-AL-ROD", Name: "Aluminium Rod", RatePerKg: 240, Volatility: domain.VolatilityHigh},
		{ID: "MAT-XLPE", Name: "XLPE Compound", RatePerKg: 195, Volatility: domain.VolatilityNormal},
	}

	testCosts := []domain.TestCost{
		{VoltageClass: domain.VoltageHV, Cost: 15000},
		{VoltageClass: domain.VoltageLV, Cost: 5000},
	}

	// Deliberately out of position order; NewSnapshot must sort.
	zones := []domain.LogisticsZone{
		{Keyword: "desert", Name: "Desert_Remote", SurchargeMultiplier: 1.3, RiskPct: 0.04, Position: 2},
		{Keyword: "hilly", Name: "Hilly_Terrain", SurchargeMultiplier: 1.25, RiskPct: 0.03, Position: 0},
		{Keyword: "coastal", Name: "Coastal_Corridor", SurchargeMultiplier: 1.15, RiskPct: 0.02, Position: 1},
	}

	competitors := []domain.Competitor{
		{ID: "CMP-VOLTLINE", Name: "Voltline Cables", AggressionScore: 6, WinRatePct: 45},
	}

	clients := []domain.Client{
		{ID: "CL-NATGRID", Name: "National Grid Corp", LoyaltyTier: domain.LoyaltyGold, PaymentTerms: "90 Days Credit"},
	}

	utilization := []domain.Utilization{
		{Category: "power_cable", Pct: 76},
	}

	return NewSnapshot(version, products, materials, testCosts, zones, competitors, clients, utilization)
}

func TestSnapshotProductLookup(t *testing.T) {
	snap := buildTestSnapshot(1)

	product, err := snap.ProductBySKU("PWR-33KV-3C-300")
	require.NoError(t, err)
	assert.Equal(t, "PWR-33KV-3C-300", product.SKU)
	assert.Equal(t, domain.VoltageHV, product.VoltageClass)
	assert.Len(t, product.BOM, 2)

	// Lookup is case-insensitive
	product, err = snap.ProductBySKU("pwr-33kv-3c-300")
	require.NoError(t, err)
	assert.Equal(t, "PWR-33KV-3C-300", product.SKU)
}

func TestSnapshotProductNotFound(t *testing.T) {
	snap := buildTestSnapshot(1)

	_, err := snap.ProductBySKU("PWR-66KV-1C-1000")
	require.Error(t, err)
	assert.True(t, domain.IsReferenceNotFound(err))
	assert.Contains(t, err.Error(), "products")
}

func TestSnapshotMaterialLookup(t *testing.T) {
	snap := buildTestSnapshot(1)

	material, err := snap.MaterialByID("MAT-AL-ROD")
	require.NoError(t, err)
	assert.Equal(t, 240.0, material.RatePerKg)
	assert.Equal(t, domain.VolatilityHigh, material.Volatility)

	_, err = snap.MaterialByID("MAT-UNOBTANIUM")
	assert.True(t, domain.IsReferenceNotFound(err))
}

func TestSnapshotTestCostLookup(t *testing.T) {
	snap := buildTestSnapshot(1)

	cost, err := snap.TestCostFor(domain.VoltageHV)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, cost)

	cost, err = snap.TestCostFor(domain.VoltageLV)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cost)
}

func TestSnapshotClientAndCompetitorLookup(t *testing.T) {
	snap := buildTestSnapshot(1)

	client, err := snap.ClientByID("cl-natgrid")
	require.NoError(t, err)
	assert.Equal(t, domain.LoyaltyGold, client.LoyaltyTier)

	competitor, err := snap.CompetitorByID("CMP-VOLTLINE")
	require.NoError(t, err)
	assert.Equal(t, 6.0, competitor.AggressionScore)

	_, err = snap.CompetitorByID("CMP-GHOST")
	assert.True(t, domain.IsReferenceNotFound(err))
}

func TestSnapshotUtilizationFor(t *testing.T) {
	snap := buildTestSnapshot(1)

	pct, ok := snap.UtilizationFor("power_cable")
	assert.True(t, ok)
	assert.Equal(t, 76.0, pct)

	_, ok = snap.UtilizationFor("submarine_cable")
	assert.False(t, ok)
}

func TestZoneForLocationFirstMatchWins(t *testing.T) {
	snap := buildTestSnapshot(1)

	// Both "coastal" and "hilly" appear in the text. The zone at the lower
	// position wins regardless of where its keyword sits in the string.
	zone := snap.ZoneForLocation("coastal road through hilly terrain, 680km")
	assert.Equal(t, "Hilly_Terrain", zone.Name)
	assert.Equal(t, 1.25, zone.SurchargeMultiplier)
}

func TestZoneForLocationCaseInsensitive(t *testing.T) {
	snap := buildTestSnapshot(1)

	zone := snap.ZoneForLocation("DESERT Substation Site 4")
	assert.Equal(t, "Desert_Remote", zone.Name)
	assert.Equal(t, 0.04, zone.RiskPct)
}

func TestZoneForLocationDefault(t *testing.T) {
	snap := buildTestSnapshot(1)

	zone := snap.ZoneForLocation("city distribution center, 120km")
	assert.Equal(t, "Plains_Highway", zone.Name)
	assert.Equal(t, 1.0, zone.SurchargeMultiplier)
	assert.Equal(t, 0.0, zone.RiskPct)
}

func TestSnapshotZonesSortedByPosition(t *testing.T) {
	snap := buildTestSnapshot(1)

	zones := snap.Zones()
	require.Len(t, zones, 3)
	assert.Equal(t, "hilly", zones[0].Keyword)
	assert.Equal(t, "coastal", zones[1].Keyword)
	assert.Equal(t, "desert", zones[2].Keyword)
}

func TestSnapshotZonesReturnsCopy(t *testing.T) {
	snap := buildTestSnapshot(1)

	zones := snap.Zones()
	zones[0].SurchargeMultiplier = 99.0

	// Mutating the returned slice must not leak into the snapshot
	again := snap.Zones()
	assert.Equal(t, 1.25, again[0].SurchargeMultiplier)
}

func TestSnapshotCounts(t *testing.T) {
	snap := buildTestSnapshot(7)

	report := snap.Counts()
	assert.Equal(t, int64(7), report.Version)
	assert.Equal(t, 2, report.Products)
	assert.Equal(t, 2, report.Materials)
	assert.Equal(t, 3, report.Zones)
	assert.Equal(t, 1, report.Competitors)
	assert.Equal(t, 1, report.Clients)
}
