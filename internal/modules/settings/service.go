package settings

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/bidfoundry/quotient/internal/modules/pricing"
)

// Service provides typed access to runtime settings. Unknown keys are
// rejected on write so the settings table never accumulates dead entries.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// Get returns the effective value for a key: the stored override if one
// exists, the compiled-in default otherwise.
func (s *Service) Get(key string) (interface{}, error) {
	defaultValue, ok := SettingDefaults[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting: %s", key)
	}

	stored, err := s.repo.Get(key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return defaultValue, nil
	}

	if StringSettings[key] {
		return *stored, nil
	}

	floatVal, err := strconv.ParseFloat(*stored, 64)
	if err != nil {
		s.log.Warn().Str("key", key).Str("value", *stored).Msg("Stored setting is not numeric, using default")
		return defaultValue, nil
	}
	return floatVal, nil
}

// GetAll returns every setting with overrides applied over defaults.
func (s *Service) GetAll() (map[string]interface{}, error) {
	stored, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(SettingDefaults))
	for key, defaultValue := range SettingDefaults {
		result[key] = defaultValue

		raw, ok := stored[key]
		if !ok {
			continue
		}
		if StringSettings[key] {
			result[key] = raw
			continue
		}
		if floatVal, err := strconv.ParseFloat(raw, 64); err == nil {
			result[key] = floatVal
		}
	}

	return result, nil
}

// Set validates and stores a setting override. String settings expect a
// string value, everything else a number.
func (s *Service) Set(key string, value interface{}) error {
	if _, ok := SettingDefaults[key]; !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}

	var description *string
	if desc, ok := SettingDescriptions[key]; ok {
		description = &desc
	}

	if StringSettings[key] {
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("setting %s expects a string value", key)
		}
		return s.repo.Set(key, strVal, description)
	}

	var floatVal float64
	switch v := value.(type) {
	case float64:
		floatVal = v
	case int:
		floatVal = float64(v)
	default:
		return fmt.Errorf("setting %s expects a numeric value", key)
	}

	if err := validateNumeric(key, floatVal); err != nil {
		return err
	}

	return s.repo.Set(key, strconv.FormatFloat(floatVal, 'f', -1, 64), description)
}

// Reset removes a stored override so the key falls back to its default.
func (s *Service) Reset(key string) error {
	if _, ok := SettingDefaults[key]; !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	return s.repo.Delete(key)
}

// validateNumeric rejects values the pipeline cannot price with
func validateNumeric(key string, value float64) error {
	switch key {
	case "matching_min_confidence":
		if value < 0 || value > 1 {
			return fmt.Errorf("setting %s must be between 0 and 1", key)
		}
	case "pricing_drum_capacity_m":
		if value <= 0 {
			return fmt.Errorf("setting %s must be positive", key)
		}
	default:
		if value < 0 {
			return fmt.Errorf("setting %s cannot be negative", key)
		}
	}
	return nil
}

// ActivePolicy resolves the pricing policy with setting overrides layered
// on the defaults. Read errors keep the default for that key; a priced bid
// records the resolved policy, so earlier audit records are unaffected by
// later changes here.
func (s *Service) ActivePolicy() pricing.Policy {
	policy := pricing.DefaultPolicy()

	floatOverrides := map[string]*float64{
		"pricing_base_margin_pct":     &policy.BaseMarginPct,
		"pricing_margin_floor_pct":    &policy.MarginFloorPct,
		"pricing_overhead_pct":        &policy.OverheadPct,
		"pricing_hedging_buffer_pct":  &policy.HedgingBufferPct,
		"pricing_cost_of_capital_pct": &policy.CostOfCapitalPct,
		"pricing_base_freight_rate":   &policy.BaseFreightRate,
		"pricing_drum_capacity_m":     &policy.DrumCapacityM,
		"pricing_drum_cost_hv":        &policy.DrumCostHV,
		"pricing_drum_cost_lv":        &policy.DrumCostLV,
	}
	for key, dest := range floatOverrides {
		value, err := s.repo.GetFloat(key, *dest)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to read policy override, using default")
			continue
		}
		*dest = value
	}

	creditDays, err := s.repo.GetInt("pricing_default_credit_days", policy.DefaultCreditDays)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read default credit days, using default")
	} else {
		policy.DefaultCreditDays = creditDays
	}

	return policy
}

// MatchingMinConfidence returns the weak-match threshold.
func (s *Service) MatchingMinConfidence() float64 {
	value, err := s.repo.GetFloat("matching_min_confidence", defaultFloat("matching_min_confidence"))
	if err != nil {
		return defaultFloat("matching_min_confidence")
	}
	return value
}

// VolatilityWindowDays returns the rate-watch lookback window.
func (s *Service) VolatilityWindowDays() int {
	value, err := s.repo.GetInt("volatility_window_days", int(defaultFloat("volatility_window_days")))
	if err != nil {
		return int(defaultFloat("volatility_window_days"))
	}
	return value
}

// VolatilityThresholdPct returns the rate swing that flags high volatility.
func (s *Service) VolatilityThresholdPct() float64 {
	value, err := s.repo.GetFloat("volatility_threshold_pct", defaultFloat("volatility_threshold_pct"))
	if err != nil {
		return defaultFloat("volatility_threshold_pct")
	}
	return value
}

// BackupRetentionDays returns how long local backups are kept.
func (s *Service) BackupRetentionDays() int {
	value, err := s.repo.GetInt("backup_retention_days", int(defaultFloat("backup_retention_days")))
	if err != nil {
		return int(defaultFloat("backup_retention_days"))
	}
	return value
}

func defaultFloat(key string) float64 {
	if v, ok := SettingDefaults[key].(float64); ok {
		return v
	}
	return 0
}
