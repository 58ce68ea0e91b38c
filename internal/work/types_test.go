package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingString(t *testing.T) {
	tests := []struct {
		timing   Timing
		expected string
	}{
		{AnyTime, "AnyTime"},
		{OffHours, "OffHours"},
		{Timing(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.timing.String())
		})
	}
}

func TestPriorityString(t *testing.T) {
	tests := []struct {
		priority Priority
		expected string
	}{
		{PriorityLow, "Low"},
		{PriorityMedium, "Medium"},
		{PriorityHigh, "High"},
		{PriorityCritical, "Critical"},
		{Priority(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.priority.String())
		})
	}
}

func TestNewWorkItem_GlobalWork(t *testing.T) {
	wt := &WorkType{
		ID:       "snapshot:reload",
		Priority: PriorityCritical,
	}

	item := NewWorkItem(wt, "")

	assert.Equal(t, "snapshot:reload", item.ID)
	assert.Equal(t, "snapshot:reload", item.TypeID)
	assert.Equal(t, "", item.Subject)
	assert.Equal(t, 0, item.Retries)
	assert.WithinDuration(t, time.Now(), item.CreatedAt, time.Second)
}

func TestNewWorkItem_PerTenderWork(t *testing.T) {
	wt := &WorkType{
		ID:       "tenders:reprice",
		Priority: PriorityHigh,
	}

	item := NewWorkItem(wt, "TN-2026-042")

	assert.Equal(t, "tenders:reprice:TN-2026-042", item.ID)
	assert.Equal(t, "tenders:reprice", item.TypeID)
	assert.Equal(t, "TN-2026-042", item.Subject)
	assert.Equal(t, 0, item.Retries)
}
