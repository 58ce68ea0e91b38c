package work

import (
	"strings"
	"sync"
	"time"
)

// CompletionTracker remembers when each work item last finished, keyed
// by type and subject. Interval-based staleness checks read it; event
// triggers and cron nudges clear entries to force work eligible again.
type CompletionTracker struct {
	completions map[string]time.Time // key: "typeID:subject"
	mu          sync.RWMutex
}

// NewCompletionTracker creates an empty tracker.
func NewCompletionTracker() *CompletionTracker {
	return &CompletionTracker{
		completions: make(map[string]time.Time),
	}
}

// completionKey builds the map key for a type/subject pair. Subjectless
// work is keyed by the bare type ID.
func completionKey(typeID, subject string) string {
	if subject == "" {
		return typeID
	}
	return typeID + ":" + subject
}

// MarkCompleted records a work item as completed now.
func (t *CompletionTracker) MarkCompleted(item *WorkItem) {
	t.MarkCompletedAt(item, time.Now())
}

// MarkCompletedAt records a completion at an explicit time. Used when
// restoring from job history and by tests.
func (t *CompletionTracker) MarkCompletedAt(item *WorkItem, completedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completions[completionKey(item.TypeID, item.Subject)] = completedAt
}

// GetCompletion returns the last completion time for a type/subject
// pair, and whether one is recorded.
func (t *CompletionTracker) GetCompletion(typeID, subject string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	completedAt, exists := t.completions[completionKey(typeID, subject)]
	return completedAt, exists
}

// IsStale reports whether the work is due again. Work with no recorded
// completion is always stale; zero-interval work is on-demand and
// always eligible once something queues it.
func (t *CompletionTracker) IsStale(typeID, subject string, interval time.Duration) bool {
	if interval == 0 {
		return true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	completedAt, exists := t.completions[completionKey(typeID, subject)]
	if !exists {
		return true
	}

	return time.Since(completedAt) > interval
}

// Clear drops the completion record for one type/subject pair.
func (t *CompletionTracker) Clear(typeID, subject string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.completions, completionKey(typeID, subject))
}

// ClearByTypeID drops every completion record for a work type, across
// all subjects. Event triggers use this to force a type eligible.
func (t *CompletionTracker) ClearByTypeID(typeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.completions {
		if key == typeID || strings.HasPrefix(key, typeID+":") {
			delete(t.completions, key)
		}
	}
}
