package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowThreshold is when a pipeline pass gets flagged. Pricing a single
// bid is sub-millisecond work; even a full reprice sweep over every
// open tender should finish well inside this.
const slowThreshold = 5 * time.Second

// Timer measures one operation for the debug log. Used around the
// pricing and ranking passes so slow sweeps show up without tracing.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs the measured duration and returns it
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Msg("Operation completed")

	if duration > slowThreshold {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Msg("Slow operation detected")
	}

	return duration
}
