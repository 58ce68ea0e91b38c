package matching

import (
	"math"
	"regexp"
	"strings"

	"github.com/bidfoundry/quotient/internal/domain"
)

// Factor weights, totalling 100 points.
const (
	weightVoltage      = 20.0
	weightCores        = 15.0
	weightCrossSection = 15.0
	weightConductor    = 15.0
	weightInsulation   = 10.0
	weightSheath       = 5.0
	weightArmour       = 5.0
	weightStandards    = 15.0
)

// CrossSectionTolerance is the relative deviation still treated as an exact
// cross-section match (rolling tolerances on conductor dies).
const CrossSectionTolerance = 0.05

// voltageNearMissBand gives half credit to voltage grades within 10% of the
// required grade (adjacent grades in the same system family).
const voltageNearMissBand = 0.10

var (
	yearSuffix  = regexp.MustCompile(`:\s*\d{4}`)
	nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)
)

// MatchScorer scores one catalog product against one requirement.
// Unconstrained requirement fields earn full credit for their factor.
type MatchScorer struct{}

// NewMatchScorer creates a new match scorer
func NewMatchScorer() *MatchScorer {
	return &MatchScorer{}
}

// Score returns the weighted points (0-100) and the per-factor breakdown.
func (ms *MatchScorer) Score(req Requirement, product domain.Product) (float64, map[string]float64) {
	components := map[string]float64{
		"voltage":       scoreVoltage(req.VoltageKV, product.VoltageKV),
		"cores":         scoreCores(req.Cores, product.Cores),
		"cross_section": scoreCrossSection(req.CrossSectionMM2, product.CrossSectionMM2),
		"conductor":     scoreConductor(req.ConductorMaterial, product.ConductorMaterial),
		"insulation":    scoreText(req.Insulation, product.Insulation, weightInsulation),
		"sheath":        scoreText(req.Sheath, product.Sheath, weightSheath),
		"armour":        scoreText(req.Armour, product.Armour, weightArmour),
		"standards":     scoreStandards(req.Standards, product.Standards),
	}

	total := 0.0
	for factor, points := range components {
		components[factor] = round3(points)
		total += points
	}

	return round3(total), components
}

func scoreVoltage(required, actual float64) float64 {
	if required == 0 {
		return weightVoltage
	}
	if required == actual {
		return weightVoltage
	}
	if actual > 0 && math.Abs(actual-required)/required < voltageNearMissBand {
		return weightVoltage * 0.5
	}
	return 0
}

func scoreCores(required, actual int) float64 {
	if required == 0 || required == actual {
		return weightCores
	}
	return 0
}

// scoreCrossSection gives full credit inside the tolerance band, then falls
// off linearly with the relative deviation.
func scoreCrossSection(required, actual float64) float64 {
	if required == 0 {
		return weightCrossSection
	}
	if actual <= 0 {
		return 0
	}

	deviation := math.Abs(actual-required) / required
	if deviation <= CrossSectionTolerance {
		return weightCrossSection
	}
	return weightCrossSection * math.Max(0, 1-deviation)
}

func scoreConductor(required, actual string) float64 {
	if strings.TrimSpace(required) == "" {
		return weightConductor
	}
	if normalizeConductor(required) == normalizeConductor(actual) {
		return weightConductor
	}
	return 0
}

// scoreText does a containment match in either direction, so "PVC" matches
// "PVC ST2" and vice versa.
func scoreText(required, actual string, weight float64) float64 {
	r := normalizeText(required)
	if r == "" {
		return weight
	}
	a := normalizeText(actual)
	if a == "" {
		return 0
	}
	if strings.Contains(a, r) || strings.Contains(r, a) {
		return weight
	}
	return 0
}

// scoreStandards splits the factor weight equally across the required
// standards and credits each one the product carries.
func scoreStandards(required, actual []string) float64 {
	if len(required) == 0 {
		return weightStandards
	}

	carried := make(map[string]bool, len(actual))
	for _, s := range actual {
		carried[normalizeStandard(s)] = true
	}

	perStandard := weightStandards / float64(len(required))
	points := 0.0
	for _, s := range required {
		if carried[normalizeStandard(s)] {
			points += perStandard
		}
	}
	return points
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeConductor folds the common metal name variants.
func normalizeConductor(s string) string {
	switch normalizeText(s) {
	case "al", "alu", "aluminium", "aluminum":
		return "aluminium"
	case "cu", "copper":
		return "copper"
	default:
		return normalizeText(s)
	}
}

// normalizeStandard folds standard designations to comparable token runs:
// "IS 7098 (Part-2):2011" and "IS 7098-2" both become "is 7098 2".
func normalizeStandard(s string) string {
	s = normalizeText(s)
	s = yearSuffix.ReplaceAllString(s, "")
	s = nonAlphaNum.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if f == "part" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
