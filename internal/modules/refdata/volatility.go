package refdata

import (
	"fmt"
	"math"

	"github.com/bidfoundry/quotient/internal/domain"
	"github.com/bidfoundry/quotient/internal/events"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
)

// RateWatcher scans recent material rate history and reclassifies
// volatility. Materials whose rate of change over the scan window crosses
// the alert threshold are flagged high volatility (which switches on the
// hedging buffer in material cost); materials that calm down below half
// the threshold revert to normal.
type RateWatcher struct {
	materialRepo *MaterialRepository
	historyDB    *RateHistoryDB
	eventManager *events.Manager
	log          zerolog.Logger

	// WindowDays is how far back the scan looks.
	WindowDays int
	// ThresholdPct is the absolute rate-of-change percentage that flags a
	// material as high volatility.
	ThresholdPct float64
}

// NewRateWatcher creates a new rate watcher with default scan parameters
func NewRateWatcher(
	materialRepo *MaterialRepository,
	historyDB *RateHistoryDB,
	eventManager *events.Manager,
	log zerolog.Logger,
) *RateWatcher {
	return &RateWatcher{
		materialRepo: materialRepo,
		historyDB:    historyDB,
		eventManager: eventManager,
		log:          log.With().Str("component", "rate_watcher").Logger(),
		WindowDays:   30,
		ThresholdPct: 5.0,
	}
}

// Scan evaluates every material's recent rate history. Returns the
// materials whose swing crossed the threshold, and whether any material
// was reclassified (the caller rebuilds the snapshot when true, since
// classification drives the hedging buffer).
func (w *RateWatcher) Scan() ([]RateAlertItem, bool, error) {
	materials, err := w.materialRepo.GetAll()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load materials for scan: %w", err)
	}

	var alerts []RateAlertItem
	reclassified := false
	for _, material := range materials {
		alert, changed, err := w.scanMaterial(material)
		if err != nil {
			w.log.Warn().Err(err).Str("material_id", material.ID).Msg("Rate scan failed for material")
			continue
		}
		if changed {
			reclassified = true
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}

	return alerts, reclassified, nil
}

// Report computes the rate-watch view for every material without touching
// classifications. The mutating pass is Scan.
func (w *RateWatcher) Report() (*VolatilityReport, error) {
	materials, err := w.materialRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load materials for report: %w", err)
	}

	report := &VolatilityReport{
		WindowDays:   w.WindowDays,
		ThresholdPct: w.ThresholdPct,
		Materials:    make([]VolatilityEntry, 0, len(materials)),
	}
	for _, material := range materials {
		entries, err := w.historyDB.GetRecentRates(material.ID, w.WindowDays)
		if err != nil {
			w.log.Warn().Err(err).Str("material_id", material.ID).Msg("Rate history read failed for material")
			continue
		}
		stats, ok := rateWindowStats(entries)
		if !ok {
			continue
		}
		report.Materials = append(report.Materials, VolatilityEntry{
			MaterialID: material.ID,
			Volatility: string(material.Volatility),
			ChangePct:  stats.changePct,
			MeanRate:   stats.meanRate,
			StdDev:     stats.stdDev,
			Samples:    stats.samples,
		})
	}
	return report, nil
}

// windowStats holds the talib numbers for one material's rate window.
type windowStats struct {
	changePct float64
	meanRate  float64
	stdDev    float64
	samples   int
}

// rateWindowStats computes rate-of-change, mean and deviation over the
// window. Returns false when there is not enough history for a meaningful
// read (fewer than 3 observations).
func rateWindowStats(entries []RateHistoryEntry) (windowStats, bool) {
	if len(entries) < 3 {
		return windowStats{}, false
	}

	// History comes newest-first; talib wants chronological order.
	rates := make([]float64, len(entries))
	for i, e := range entries {
		rates[len(entries)-1-i] = e.RatePerKg
	}

	period := len(rates) - 1

	roc := talib.Roc(rates, period)
	changePct := roc[len(roc)-1]
	if math.IsNaN(changePct) {
		return windowStats{}, false
	}

	sma := talib.Sma(rates, period)
	stdDev := talib.StdDev(rates, period, 1.0)

	return windowStats{
		changePct: changePct,
		meanRate:  sma[len(sma)-1],
		stdDev:    stdDev[len(stdDev)-1],
		samples:   len(rates),
	}, true
}

// scanMaterial analyzes one material. Returns a non-nil alert when the
// swing crossed the threshold and whether the volatility class changed.
func (w *RateWatcher) scanMaterial(material domain.Material) (*RateAlertItem, bool, error) {
	entries, err := w.historyDB.GetRecentRates(material.ID, w.WindowDays)
	if err != nil {
		return nil, false, err
	}

	// Materials without enough history keep their seeded classification.
	stats, ok := rateWindowStats(entries)
	if !ok {
		return nil, false, nil
	}

	changePct := stats.changePct
	meanRate := stats.meanRate
	deviation := stats.stdDev

	crossed := math.Abs(changePct) > w.ThresholdPct
	calmed := math.Abs(changePct) < w.ThresholdPct/2

	changed := false
	switch {
	case crossed && material.Volatility != domain.VolatilityHigh:
		material.Volatility = domain.VolatilityHigh
		if err := w.materialRepo.Upsert(material); err != nil {
			return nil, false, fmt.Errorf("failed to flag material high volatility: %w", err)
		}
		changed = true
		w.log.Info().
			Str("material_id", material.ID).
			Float64("change_pct", changePct).
			Msg("Material flagged high volatility")
	case calmed && material.Volatility == domain.VolatilityHigh:
		material.Volatility = domain.VolatilityNormal
		if err := w.materialRepo.Upsert(material); err != nil {
			return nil, false, fmt.Errorf("failed to revert material volatility: %w", err)
		}
		changed = true
		w.log.Info().
			Str("material_id", material.ID).
			Float64("change_pct", changePct).
			Msg("Material volatility reverted to normal")
	}

	if !crossed {
		return nil, changed, nil
	}

	if w.eventManager != nil {
		w.eventManager.EmitTyped(events.RateAlert, "refdata", &events.RateAlertData{
			MaterialID: material.ID,
			ChangePct:  changePct,
			WindowDays: w.WindowDays,
			Volatility: string(domain.VolatilityHigh),
		})
	}

	return &RateAlertItem{
		MaterialID: material.ID,
		ChangePct:  changePct,
		MeanRate:   meanRate,
		StdDev:     deviation,
		Samples:    stats.samples,
	}, changed, nil
}
