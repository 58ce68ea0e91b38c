package testing

import (
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
	"github.com/bidfoundry/quotient/internal/modules/tenders"
)

// NewProductFixtures returns a small catalogue for use in tests: the
// canonical 33kV power cable plus a low-voltage control cable.
func NewProductFixtures() []domain.Product {
	return []domain.Product{
		{
			SKU:               "PWR-33KV-3C-300",
			Description:       "33kV 3-core 300sqmm aluminium XLPE armoured power cable",
			Category:          "power_cable",
			VoltageClass:      domain.VoltageHV,
			VoltageKV:         33,
			Cores:             3,
			CrossSectionMM2:   300,
			ConductorMaterial: "aluminium",
			Insulation:        "XLPE",
			Sheath:            "PVC ST2",
			Armour:            "GI wire",
			Standards:         []string{"IS 7098-2", "IEC 60502-2"},
			WeightPerUnitKg:   12.0,
			BOM: []domain.BOMLine{
				{MaterialID: "MAT-AL-ROD", QtyPerUnit: 3.25},
				{MaterialID: "MAT-CU-TAPE", QtyPerUnit: 0.56},
				{MaterialID: "MAT-XLPE", QtyPerUnit: 2.1},
				{MaterialID: "MAT-PVC-ST2", QtyPerUnit: 1.6},
				{MaterialID: "MAT-GI-WIRE", QtyPerUnit: 2.4},
			},
		},
		{
			SKU:               "LT-1KV-4C-25",
			Description:       "1.1kV 4-core 25sqmm copper PVC control cable",
			Category:          "lt_cable",
			VoltageClass:      domain.VoltageLV,
			VoltageKV:         1.1,
			Cores:             4,
			CrossSectionMM2:   25,
			ConductorMaterial: "copper",
			Insulation:        "PVC",
			Sheath:            "PVC ST1",
			WeightPerUnitKg:   1.2,
			BOM: []domain.BOMLine{
				{MaterialID: "MAT-CU-TAPE", QtyPerUnit: 0.6},
				{MaterialID: "MAT-PVC-ST2", QtyPerUnit: 0.45},
			},
		},
	}
}

// NewMaterialFixtures returns the raw-material rate card backing the
// product fixtures. Aluminium and copper are flagged volatile.
func NewMaterialFixtures() []domain.Material {
	return []domain.Material{
		{ID: "MAT-AL-ROD", Name: "Aluminium rod", RatePerKg: 240.0, Volatility: domain.VolatilityHigh},
		{ID: "MAT-CU-TAPE", Name: "Copper tape", RatePerKg: 850.0, Volatility: domain.VolatilityHigh},
		{ID: "MAT-XLPE", Name: "XLPE compound", RatePerKg: 195.0, Volatility: domain.VolatilityNormal},
		{ID: "MAT-PVC-ST2", Name: "PVC ST2 compound", RatePerKg: 98.0, Volatility: domain.VolatilityNormal},
		{ID: "MAT-GI-WIRE", Name: "GI armour wire", RatePerKg: 65.0, Volatility: domain.VolatilityNormal},
	}
}

// NewTestCostFixtures returns type-test costs for both voltage classes.
func NewTestCostFixtures() []domain.TestCost {
	return []domain.TestCost{
		{VoltageClass: domain.VoltageHV, Cost: 15000},
		{VoltageClass: domain.VoltageLV, Cost: 5000},
	}
}

// NewZoneFixtures returns delivery zones in priority order.
func NewZoneFixtures() []domain.LogisticsZone {
	return []domain.LogisticsZone{
		{Keyword: "coastal", Name: "Coastal_Corridor", SurchargeMultiplier: 1.15, RiskPct: 0.02, Position: 1},
		{Keyword: "desert", Name: "Desert_Sand", SurchargeMultiplier: 1.3, RiskPct: 0.04, Position: 2},
		{Keyword: "hilly", Name: "Hill_Terrain", SurchargeMultiplier: 1.2, RiskPct: 0.03, Position: 3},
	}
}

// NewCompetitorFixtures returns the competitor intelligence rows used
// across matching and pricing tests.
func NewCompetitorFixtures() []domain.Competitor {
	return []domain.Competitor{
		{ID: "CMP-VOLTLINE", Name: "Voltline Cables", AggressionScore: 6, WinRatePct: 45},
		{ID: "CMP-SURGECAB", Name: "Surge Cab Industries", AggressionScore: 9, WinRatePct: 52, CollidingSKUs: []string{"PWR-33KV-3C-300"}},
		{ID: "CMP-GRIDWIRE", Name: "Gridwire Conductors", AggressionScore: 7, WinRatePct: 68},
	}
}

// NewClientFixtures returns clients spanning the loyalty tiers.
func NewClientFixtures() []domain.Client {
	return []domain.Client{
		{ID: "CL-NATGRID", Name: "Natgrid Power Corporation", LoyaltyTier: domain.LoyaltyGold, PaymentTerms: "90 Days Credit"},
		{ID: "CL-WESTDISCOM", Name: "Western State Discom", LoyaltyTier: domain.LoyaltySilver, PaymentTerms: "60 Days Credit"},
		{ID: "CL-APEXEPC", Name: "Apex EPC Projects", LoyaltyTier: domain.LoyaltyNone, PaymentTerms: "Advance Payment"},
	}
}

// NewUtilizationFixtures returns factory utilization rows for the two
// fixture categories. Both sit inside the neutral band.
func NewUtilizationFixtures() []domain.Utilization {
	return []domain.Utilization{
		{Category: "power_cable", Pct: 76},
		{Category: "lt_cable", Pct: 41},
	}
}

// NewSnapshotFixture assembles a complete immutable snapshot from the
// fixture sets above, at version 1.
func NewSnapshotFixture() *refdata.Snapshot {
	return refdata.NewSnapshot(
		1,
		NewProductFixtures(),
		NewMaterialFixtures(),
		NewTestCostFixtures(),
		NewZoneFixtures(),
		NewCompetitorFixtures(),
		NewClientFixtures(),
		NewUtilizationFixtures(),
	)
}

// NewBidRequestFixture returns the canonical desert-delivery pricing
// request: 15km of 33kV cable for the gold-tier grid operator.
func NewBidRequestFixture() domain.BidRequest {
	return domain.BidRequest{
		ProductSKU:       "PWR-33KV-3C-300",
		ConfirmedQty:     15000,
		DeliveryLocation: "Desert substation corridor",
		DistanceKm:       680,
		PaymentTerms:     "90 Days Credit",
		ClientID:         "CL-NATGRID",
		CompetitorIDs:    []string{"CMP-VOLTLINE"},
	}
}

// NewTenderFixtures returns tenders in assorted lifecycle states for
// repository and dashboard tests.
func NewTenderFixtures() []*tenders.Tender {
	now := time.Now().UTC()
	due := now.AddDate(0, 0, 21)
	overdue := now.AddDate(0, 0, -3)

	return []*tenders.Tender{
		{
			ID:               "tnd-fixture-1",
			ReferenceCode:    "RFP/2025/NATGRID/071",
			Title:            "33kV feeder augmentation, desert corridor",
			ClientID:         "CL-NATGRID",
			Status:           tenders.StatusOpen,
			MatchingStage:    tenders.StageStateDone,
			PricingStage:     tenders.StageStatePending,
			RankingStage:     tenders.StageStatePending,
			ProductSKU:       "PWR-33KV-3C-300",
			ConfirmedQty:     15000,
			DeliveryLocation: "Desert substation corridor",
			DistanceKm:       680,
			PaymentTerms:     "90 Days Credit",
			CompetitorIDs:    []string{"CMP-VOLTLINE"},
			DueDate:          &due,
			PriorityRank:     tenders.UnrankedPriority,
			CreatedAt:        now.AddDate(0, 0, -7),
			UpdatedAt:        now.AddDate(0, 0, -1),
		},
		{
			ID:               "tnd-fixture-2",
			ReferenceCode:    "RFP/2025/WESTDISCOM/104",
			Title:            "LT distribution cable reel order",
			ClientID:         "CL-WESTDISCOM",
			Status:           tenders.StatusPriced,
			MatchingStage:    tenders.StageStateDone,
			PricingStage:     tenders.StageStateDone,
			RankingStage:     tenders.StageStatePending,
			ProductSKU:       "LT-1KV-4C-25",
			ConfirmedQty:     4000,
			DeliveryLocation: "Coastal depot yard",
			DistanceKm:       120,
			PaymentTerms:     "60 Days Credit",
			CompetitorIDs:    []string{"CMP-SURGECAB", "CMP-GRIDWIRE"},
			DueDate:          &due,
			PriorityRank:     tenders.UnrankedPriority,
			CreatedAt:        now.AddDate(0, 0, -14),
			UpdatedAt:        now.AddDate(0, 0, -2),
		},
		{
			ID:               "tnd-fixture-3",
			ReferenceCode:    "RFP/2025/APEXEPC/009",
			Title:            "Closed EPC package, lapsed",
			ClientID:         "CL-APEXEPC",
			Status:           tenders.StatusClosed,
			Archived:         true,
			MatchingStage:    tenders.StageStateDone,
			PricingStage:     tenders.StageStateDone,
			RankingStage:     tenders.StageStateDone,
			ProductSKU:       "PWR-33KV-3C-300",
			ConfirmedQty:     2500,
			DeliveryLocation: "Hilly transmission spur",
			DistanceKm:       310,
			PaymentTerms:     "Advance Payment",
			DueDate:          &overdue,
			PriorityRank:     tenders.UnrankedPriority,
			CreatedAt:        now.AddDate(0, -2, 0),
			UpdatedAt:        now.AddDate(0, -1, 0),
		},
	}
}
