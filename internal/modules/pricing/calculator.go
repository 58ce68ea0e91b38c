package pricing

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/modules/refdata"
)

// Calculator runs the deterministic bid pipeline against one reference
// snapshot. All stage methods are pure: same inputs, same outputs.
type Calculator struct {
	policy Policy
	log    zerolog.Logger
}

// NewCalculator creates a calculator bound to one policy.
func NewCalculator(policy Policy, log zerolog.Logger) *Calculator {
	return &Calculator{
		policy: policy,
		log:    log.With().Str("component", "bid_calculator").Logger(),
	}
}

// Policy returns the policy this calculator prices with.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// ComputeFactoryCost builds the ex-works cost: BOM material spend with a
// hedging buffer on volatile lines, factory overhead, drum packaging and the
// type-test charge for the product's voltage class.
func (c *Calculator) ComputeFactoryCost(product domain.Product, confirmedQty float64, snap *refdata.Snapshot) (FactoryCostBreakdown, error) {
	var breakdown FactoryCostBreakdown

	var baseMaterial, hedging float64
	for _, line := range product.BOM {
		material, err := snap.MaterialByID(line.MaterialID)
		if err != nil {
			return FactoryCostBreakdown{}, err
		}

		contribution := line.QtyPerUnit * confirmedQty * material.RatePerKg
		volatile := material.Volatility == domain.VolatilityHigh
		if volatile {
			hedging += contribution * c.policy.HedgingBufferPct
		}
		baseMaterial += contribution

		breakdown.Lines = append(breakdown.Lines, BOMLineCost{
			MaterialID:   material.ID,
			MaterialName: material.Name,
			QtyPerUnit:   line.QtyPerUnit,
			RatePerKg:    material.RatePerKg,
			Contribution: contribution,
			Volatile:     volatile,
		})
	}

	testCost, err := snap.TestCostFor(product.VoltageClass)
	if err != nil {
		return FactoryCostBreakdown{}, err
	}

	breakdown.HedgingBuffer = hedging
	breakdown.MaterialCost = baseMaterial + hedging
	breakdown.Overhead = breakdown.MaterialCost * c.policy.OverheadPct
	breakdown.DrumCount = int(math.Ceil(confirmedQty / c.policy.DrumCapacityM))
	breakdown.PackagingCost = float64(breakdown.DrumCount) * c.policy.DrumCost(product.VoltageClass)
	breakdown.TestCost = testCost
	breakdown.FactoryCost = breakdown.MaterialCost + breakdown.Overhead + breakdown.PackagingCost + breakdown.TestCost

	return breakdown, nil
}

// ComputeFreight prices delivery: total weight times distance times the base
// rate, scaled by the matched zone's surcharge. The zone's risk percentage
// rides along for the margin stage only.
func (c *Calculator) ComputeFreight(product domain.Product, confirmedQty, distanceKm float64, location string, snap *refdata.Snapshot) FreightBreakdown {
	zone := snap.ZoneForLocation(location)
	weight := confirmedQty * product.WeightPerUnitKg

	return FreightBreakdown{
		ZoneName:            zone.Name,
		SurchargeMultiplier: zone.SurchargeMultiplier,
		RiskPct:             zone.RiskPct,
		TotalWeightKg:       weight,
		FreightCost:         weight * distanceKm * c.policy.BaseFreightRate * zone.SurchargeMultiplier,
	}
}

// ComputeInterest is the working-capital cost of financing the bid until the
// client pays: principal times the annual cost of capital, prorated by days.
func (c *Calculator) ComputeInterest(factoryCost, freightCost float64, creditDays int) float64 {
	return (factoryCost + freightCost) * c.policy.CostOfCapitalPct * float64(creditDays) / 365.0
}

// resolveCreditDays parses payment terms, falling back to the policy default
// when the text is unparseable. The second return reports the fallback.
func (c *Calculator) resolveCreditDays(terms string) (int, bool) {
	days, err := ParseCreditDays(terms)
	if err != nil {
		c.log.Warn().Err(err).Str("terms", terms).
			Int("default_days", c.policy.DefaultCreditDays).
			Msg("Payment terms unparseable, applying default credit days")
		return c.policy.DefaultCreditDays, true
	}
	return days, false
}

// ComputeMargin applies the commercial adjustments on top of the base margin.
// Competitor adjustments fire at most once each regardless of how many rivals
// cross a threshold. All threshold comparisons are strict.
func (c *Calculator) ComputeMargin(competitors []domain.Competitor, utilizationPct float64, tier domain.LoyaltyTier, zoneRiskPct float64) MarginBreakdown {
	breakdown := MarginBreakdown{BasePct: c.policy.BaseMarginPct}

	var aggressive, winning bool
	for _, rival := range competitors {
		if rival.AggressionScore > 8 {
			aggressive = true
		}
		if rival.WinRatePct > 60 {
			winning = true
		}
	}
	if aggressive {
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "aggressive_competitor", Delta: -0.03})
	}
	if winning {
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "competitor_win_rate", Delta: -0.02})
	}

	if utilizationPct > 90 {
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "high_utilization", Delta: 0.05})
	} else if utilizationPct < 30 {
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "low_utilization", Delta: -0.03})
	}

	switch tier {
	case domain.LoyaltyGold:
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "gold_loyalty", Delta: -0.03})
	case domain.LoyaltySilver:
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "silver_loyalty", Delta: -0.015})
	}

	if zoneRiskPct != 0 {
		breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{Reason: "zone_risk", Delta: zoneRiskPct})
	}

	breakdown.RawPct = breakdown.BasePct
	for _, adj := range breakdown.Adjustments {
		breakdown.RawPct += adj.Delta
	}

	breakdown.AdjustedPct = breakdown.RawPct
	if breakdown.AdjustedPct < c.policy.MarginFloorPct {
		breakdown.AdjustedPct = c.policy.MarginFloorPct
		breakdown.FloorClamped = true
	}

	return breakdown
}

// Quote runs the full pipeline for one bid request against one snapshot and
// returns the complete decomposition. It performs no I/O.
func (c *Calculator) Quote(req domain.BidRequest, snap *refdata.Snapshot) (*BidResult, error) {
	product, err := snap.ProductBySKU(req.ProductSKU)
	if err != nil {
		return nil, err
	}
	client, err := snap.ClientByID(req.ClientID)
	if err != nil {
		return nil, err
	}

	competitors := make([]domain.Competitor, 0, len(req.CompetitorIDs))
	for _, id := range req.CompetitorIDs {
		rival, err := snap.CompetitorByID(id)
		if err != nil {
			return nil, err
		}
		competitors = append(competitors, rival)
	}

	utilizationPct, ok := snap.UtilizationFor(product.Category)
	if !ok {
		return nil, domain.NewReferenceNotFound("factory_utilization", product.Category)
	}

	factory, err := c.ComputeFactoryCost(product, req.ConfirmedQty, snap)
	if err != nil {
		return nil, err
	}

	freight := c.ComputeFreight(product, req.ConfirmedQty, req.DistanceKm, req.DeliveryLocation, snap)

	terms := strings.TrimSpace(req.PaymentTerms)
	if terms == "" {
		terms = client.PaymentTerms
	}
	creditDays, defaulted := c.resolveCreditDays(terms)
	interest := InterestBreakdown{
		RawTerms:       terms,
		CreditDays:     creditDays,
		TermsDefaulted: defaulted,
		InterestCost:   c.ComputeInterest(factory.FactoryCost, freight.FreightCost, creditDays),
	}

	margin := c.ComputeMargin(competitors, utilizationPct, client.LoyaltyTier, freight.RiskPct)

	totalCostBase := factory.FactoryCost + freight.FreightCost + interest.InterestCost
	result := &BidResult{
		Request:         req,
		SnapshotVersion: snap.Version(),
		Policy:          c.policy,
		Factory:         factory,
		Freight:         freight,
		Interest:        interest,
		Margin:          margin,
		TotalCostBase:   totalCostBase,
		FinalBidValue:   totalCostBase * (1 + margin.AdjustedPct),
	}

	c.log.Debug().
		Str("sku", product.SKU).
		Float64("qty", req.ConfirmedQty).
		Int64("snapshot_version", snap.Version()).
		Float64("total_cost_base", totalCostBase).
		Float64("adjusted_margin_pct", margin.AdjustedPct).
		Float64("final_bid_value", result.FinalBidValue).
		Msg("Bid priced")

	return result, nil
}
