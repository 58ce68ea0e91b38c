package refdata

import (
	"sort"
	"strings"
	"time"

	"github.com/bidfoundry/quotient/internal/domain"
)

// Snapshot is an immutable view of all reference tables at a point in time.
// Every bid computation resolves against exactly one snapshot, so a reload
// mid-computation can never produce a bid priced against mixed table states.
//
// Snapshots must never be mutated after construction. Accessors return
// copies or read-only views.
type Snapshot struct {
	version int64
	builtAt time.Time

	products    map[string]domain.Product
	materials   map[string]domain.Material
	testCosts   map[domain.VoltageClass]float64
	zones       []domain.LogisticsZone // sorted by position; scan order is load-bearing
	competitors map[string]domain.Competitor
	clients     map[string]domain.Client
	utilization map[string]float64
}

// NewSnapshot builds an immutable snapshot from reference table contents.
// Zones are sorted by position so ZoneForLocation scans deterministically.
func NewSnapshot(
	version int64,
	products []domain.Product,
	materials []domain.Material,
	testCosts []domain.TestCost,
	zones []domain.LogisticsZone,
	competitors []domain.Competitor,
	clients []domain.Client,
	utilization []domain.Utilization,
) *Snapshot {
	s := &Snapshot{
		version:     version,
		builtAt:     time.Now().UTC(),
		products:    make(map[string]domain.Product, len(products)),
		materials:   make(map[string]domain.Material, len(materials)),
		testCosts:   make(map[domain.VoltageClass]float64, len(testCosts)),
		competitors: make(map[string]domain.Competitor, len(competitors)),
		clients:     make(map[string]domain.Client, len(clients)),
		utilization: make(map[string]float64, len(utilization)),
	}

	for _, p := range products {
		s.products[strings.ToUpper(p.SKU)] = p
	}
	for _, m := range materials {
		s.materials[strings.ToUpper(m.ID)] = m
	}
	for _, tc := range testCosts {
		s.testCosts[tc.VoltageClass] = tc.Cost
	}
	for _, c := range competitors {
		s.competitors[strings.ToUpper(c.ID)] = c
	}
	for _, c := range clients {
		s.clients[strings.ToUpper(c.ID)] = c
	}
	for _, u := range utilization {
		s.utilization[u.Category] = u.Pct
	}

	s.zones = make([]domain.LogisticsZone, len(zones))
	copy(s.zones, zones)
	sort.SliceStable(s.zones, func(i, j int) bool {
		return s.zones[i].Position < s.zones[j].Position
	})

	return s
}

// Version returns the monotonically increasing snapshot version.
func (s *Snapshot) Version() int64 {
	return s.version
}

// BuiltAt returns when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// ProductBySKU resolves a product by SKU.
func (s *Snapshot) ProductBySKU(sku string) (domain.Product, error) {
	product, ok := s.products[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return domain.Product{}, domain.NewReferenceNotFound("products", sku)
	}
	return product, nil
}

// MaterialByID resolves a material by ID.
func (s *Snapshot) MaterialByID(id string) (domain.Material, error) {
	material, ok := s.materials[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return domain.Material{}, domain.NewReferenceNotFound("materials", id)
	}
	return material, nil
}

// TestCostFor resolves the routine test cost for a voltage class.
func (s *Snapshot) TestCostFor(class domain.VoltageClass) (float64, error) {
	cost, ok := s.testCosts[class]
	if !ok {
		return 0, domain.NewReferenceNotFound("test_costs", string(class))
	}
	return cost, nil
}

// ZoneForLocation resolves the logistics zone for a free-text delivery
// location. Zones are scanned in position order and the first zone whose
// keyword appears in the location text (case-insensitive) wins. When no
// keyword matches the default zone applies: multiplier 1.0, risk 0.
func (s *Snapshot) ZoneForLocation(location string) domain.LogisticsZone {
	normalized := strings.ToLower(location)
	for _, zone := range s.zones {
		if zone.Keyword != "" && strings.Contains(normalized, strings.ToLower(zone.Keyword)) {
			return zone
		}
	}
	return domain.DefaultZone()
}

// CompetitorByID resolves a competitor profile by ID.
func (s *Snapshot) CompetitorByID(id string) (domain.Competitor, error) {
	competitor, ok := s.competitors[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return domain.Competitor{}, domain.NewReferenceNotFound("competitors", id)
	}
	return competitor, nil
}

// ClientByID resolves a client profile by ID.
func (s *Snapshot) ClientByID(id string) (domain.Client, error) {
	client, ok := s.clients[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return domain.Client{}, domain.NewReferenceNotFound("clients", id)
	}
	return client, nil
}

// UtilizationFor returns the factory utilization for a product category.
// The second return is false when no utilization is recorded for the
// category, in which case no utilization margin adjustment applies.
func (s *Snapshot) UtilizationFor(category string) (float64, bool) {
	pct, ok := s.utilization[category]
	return pct, ok
}

// Products returns all products sorted by SKU.
func (s *Snapshot) Products() []domain.Product {
	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SKU < result[j].SKU })
	return result
}

// Materials returns all materials sorted by ID.
func (s *Snapshot) Materials() []domain.Material {
	result := make([]domain.Material, 0, len(s.materials))
	for _, m := range s.materials {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Zones returns all logistics zones in scan order.
func (s *Snapshot) Zones() []domain.LogisticsZone {
	result := make([]domain.LogisticsZone, len(s.zones))
	copy(result, s.zones)
	return result
}

// Competitors returns all competitor profiles sorted by ID.
func (s *Snapshot) Competitors() []domain.Competitor {
	result := make([]domain.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Clients returns all client profiles sorted by ID.
func (s *Snapshot) Clients() []domain.Client {
	result := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// TestCosts returns test costs per voltage class.
func (s *Snapshot) TestCosts() []domain.TestCost {
	result := make([]domain.TestCost, 0, len(s.testCosts))
	for class, cost := range s.testCosts {
		result = append(result, domain.TestCost{VoltageClass: class, Cost: cost})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VoltageClass < result[j].VoltageClass })
	return result
}

// Utilization returns utilization entries sorted by category.
func (s *Snapshot) Utilization() []domain.Utilization {
	result := make([]domain.Utilization, 0, len(s.utilization))
	for category, pct := range s.utilization {
		result = append(result, domain.Utilization{Category: category, Pct: pct})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

// Counts returns table sizes for the reload report and dashboard.
func (s *Snapshot) Counts() ReloadReport {
	return ReloadReport{
		Version:     s.version,
		Products:    len(s.products),
		Materials:   len(s.materials),
		Zones:       len(s.zones),
		Competitors: len(s.competitors),
		Clients:     len(s.clients),
	}
}
