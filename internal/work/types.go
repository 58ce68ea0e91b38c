package work

import (
	"context"
	"time"
)

// WorkTimeout is the maximum duration a work item can run before being cancelled.
const WorkTimeout = 5 * time.Minute

// MaxRetries is the maximum number of times a failed work item will be retried.
const MaxRetries = 3

// Timing defines when work can be executed relative to the desk schedule.
type Timing int

const (
	// AnyTime means work can run regardless of desk hours.
	AnyTime Timing = iota
	// OffHours means work runs only outside the tender desk working window.
	OffHours
)

// String returns a human-readable name for the timing.
func (t Timing) String() string {
	switch t {
	case AnyTime:
		return "AnyTime"
	case OffHours:
		return "OffHours"
	default:
		return "Unknown"
	}
}

// Priority defines the execution priority of work types.
type Priority int

const (
	// PriorityLow is for maintenance and backup work.
	PriorityLow Priority = iota
	// PriorityMedium is for recurring background work (rerank, rate scans).
	PriorityMedium
	// PriorityHigh is for work that affects quoted numbers (repricing).
	PriorityHigh
	// PriorityCritical is for work everything else waits on (snapshot rebuild).
	PriorityCritical
)

// String returns a human-readable name for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// WorkType defines a type of work that can be executed.
// Work types are registered once and can generate multiple work items.
type WorkType struct {
	// ID is the unique identifier for this work type (e.g., "tenders:rerank").
	ID string

	// DependsOn lists work type IDs that must complete before this work can
	// run. Dependencies are checked for the same subject first, then for a
	// global completion of the dependency.
	DependsOn []string

	// Timing defines when this work can be executed.
	Timing Timing

	// Interval is the minimum time between runs per subject (0 = on-demand only).
	Interval time.Duration

	// Priority determines execution order when multiple work items are eligible.
	Priority Priority

	// FindSubjects returns subjects that need this work: tender ids for
	// per-tender work, database names for per-database work. Returns
	// []string{""} for global work, nil if no work is needed.
	FindSubjects func() []string

	// Execute performs the work for a given subject.
	Execute func(ctx context.Context, subject string) error
}

// WorkItem represents a specific unit of work to be executed.
type WorkItem struct {
	// ID is the full work ID including subject (e.g., "tenders:reprice:TN-2026-001").
	ID string

	// TypeID is the work type ID (e.g., "tenders:reprice").
	TypeID string

	// Subject is the tender id or database name, empty for global work.
	Subject string

	// Retries is the number of times this item has been retried.
	Retries int

	// CreatedAt is when this work item was created.
	CreatedAt time.Time
}

// NewWorkItem creates a new work item from a work type and subject.
func NewWorkItem(workType *WorkType, subject string) *WorkItem {
	id := workType.ID
	if subject != "" {
		id = workType.ID + ":" + subject
	}

	return &WorkItem{
		ID:        id,
		TypeID:    workType.ID,
		Subject:   subject,
		CreatedAt: time.Now(),
	}
}
