package settings

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfoundry/quotient/internal/modules/pricing"
)

func newTestService(t *testing.T) *Service {
	return NewService(newTestRepository(t), zerolog.Nop())
}

func TestGetReturnsDefaults(t *testing.T) {
	service := newTestService(t)

	value, err := service.Get("pricing_base_margin_pct")
	require.NoError(t, err)
	assert.InDelta(t, 0.22, value.(float64), 1e-9)

	value, err = service.Get("s3_prefix")
	require.NoError(t, err)
	assert.Equal(t, "quotient-backups", value.(string))
}

func TestGetUnknownKey(t *testing.T) {
	service := newTestService(t)

	_, err := service.Get("warp_drive_enabled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestSetOverrideAndReset(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Set("pricing_base_margin_pct", 0.25))

	value, err := service.Get("pricing_base_margin_pct")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, value.(float64), 1e-9)

	all, err := service.GetAll()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, all["pricing_base_margin_pct"].(float64), 1e-9)
	// Untouched keys keep their defaults
	assert.InDelta(t, 0.04, all["pricing_margin_floor_pct"].(float64), 1e-9)

	require.NoError(t, service.Reset("pricing_base_margin_pct"))
	value, err = service.Get("pricing_base_margin_pct")
	require.NoError(t, err)
	assert.InDelta(t, 0.22, value.(float64), 1e-9)
}

func TestSetValidation(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr string
	}{
		{"unknown key", "warp_drive_enabled", 1.0, "unknown setting"},
		{"string into numeric", "pricing_base_margin_pct", "lots", "expects a numeric value"},
		{"number into string", "s3_bucket", 42.0, "expects a string value"},
		{"negative percentage", "pricing_overhead_pct", -0.1, "cannot be negative"},
		{"confidence above one", "matching_min_confidence", 1.5, "between 0 and 1"},
		{"zero drum capacity", "pricing_drum_capacity_m", 0.0, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetAcceptsIntForNumericKeys(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Set("pricing_default_credit_days", 45))

	value, err := service.Get("pricing_default_credit_days")
	require.NoError(t, err)
	assert.InDelta(t, 45, value.(float64), 1e-9)
}

func TestActivePolicyLayersOverrides(t *testing.T) {
	service := newTestService(t)

	// Without overrides the policy is the compiled-in default
	assert.Equal(t, pricing.DefaultPolicy(), service.ActivePolicy())

	require.NoError(t, service.Set("pricing_base_margin_pct", 0.25))
	require.NoError(t, service.Set("pricing_drum_cost_hv", 13000.0))
	require.NoError(t, service.Set("pricing_default_credit_days", 45))

	policy := service.ActivePolicy()
	assert.InDelta(t, 0.25, policy.BaseMarginPct, 1e-9)
	assert.InDelta(t, 13000.0, policy.DrumCostHV, 1e-9)
	assert.Equal(t, 45, policy.DefaultCreditDays)

	// Keys without overrides keep their defaults
	assert.InDelta(t, pricing.DefaultMarginFloorPct, policy.MarginFloorPct, 1e-9)
	assert.InDelta(t, pricing.DefaultBaseFreightRate, policy.BaseFreightRate, 1e-9)
}

func TestTypedAccessors(t *testing.T) {
	service := newTestService(t)

	assert.InDelta(t, 0.5, service.MatchingMinConfidence(), 1e-9)
	assert.Equal(t, 30, service.VolatilityWindowDays())
	assert.InDelta(t, 5.0, service.VolatilityThresholdPct(), 1e-9)
	assert.Equal(t, 7, service.BackupRetentionDays())

	require.NoError(t, service.Set("matching_min_confidence", 0.65))
	require.NoError(t, service.Set("volatility_threshold_pct", 8.0))
	require.NoError(t, service.Set("backup_retention_days", 14.0))

	assert.InDelta(t, 0.65, service.MatchingMinConfidence(), 1e-9)
	assert.InDelta(t, 8.0, service.VolatilityThresholdPct(), 1e-9)
	assert.Equal(t, 14, service.BackupRetentionDays())
}
