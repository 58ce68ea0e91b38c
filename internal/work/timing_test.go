package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fixedClock returns a checker pinned to the given local hour.
func fixedClock(hour, minute int) *TimingChecker {
	at := time.Date(2026, 8, 25, hour, minute, 0, 0, time.Local)
	return NewTimingCheckerAt(func() time.Time { return at })
}

func TestTimingChecker_AnyTime(t *testing.T) {
	for _, hour := range []int{0, 8, 12, 19, 23} {
		checker := fixedClock(hour, 0)
		assert.True(t, checker.CanExecute(AnyTime), "hour %d", hour)
	}
}

func TestTimingChecker_OffHours(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		minute  int
		allowed bool
	}{
		{"middle of the night", 3, 0, true},
		{"just before desk opens", 7, 59, true},
		{"desk opens", 8, 0, false},
		{"midday", 13, 30, false},
		{"just before desk closes", 19, 59, false},
		{"desk closes", 20, 0, true},
		{"late evening", 23, 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := fixedClock(tt.hour, tt.minute)
			assert.Equal(t, tt.allowed, checker.CanExecute(OffHours))
		})
	}
}

func TestTimingChecker_UnknownTiming(t *testing.T) {
	checker := fixedClock(3, 0)
	assert.False(t, checker.CanExecute(Timing(99)))
}

func TestNewTimingChecker_UsesSystemClock(t *testing.T) {
	checker := NewTimingChecker()
	assert.True(t, checker.CanExecute(AnyTime))
}
