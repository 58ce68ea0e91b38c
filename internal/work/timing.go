package work

import "time"

// Tender desk working window. OffHours work stays outside it so
// checkpoints and backups never contend with active pricing.
const (
	deskOpensHour  = 8
	deskClosesHour = 20
)

// TimingChecker decides whether a work item may run now.
type TimingChecker struct {
	now func() time.Time
}

// NewTimingChecker creates a timing checker on the system clock.
func NewTimingChecker() *TimingChecker {
	return &TimingChecker{now: time.Now}
}

// NewTimingCheckerAt creates a timing checker with an injected clock.
// This is primarily used for testing.
func NewTimingCheckerAt(now func() time.Time) *TimingChecker {
	return &TimingChecker{now: now}
}

// CanExecute returns true if the work can execute given its timing constraint.
func (c *TimingChecker) CanExecute(timing Timing) bool {
	switch timing {
	case AnyTime:
		return true

	case OffHours:
		hour := c.now().Local().Hour()
		return hour < deskOpensHour || hour >= deskClosesHour

	default:
		// Unknown timing - be safe and don't execute
		return false
	}
}
