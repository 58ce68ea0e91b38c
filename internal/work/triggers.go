package work

import (
	"time"

	"github.com/bidfoundry/quotient/internal/events"
)

// EventBusInterface is the event surface triggers subscribe to
type EventBusInterface interface {
	Subscribe(eventType events.EventType, handler events.Handler) func()
}

// TriggerDeps contains all dependencies for triggers
type TriggerDeps struct {
	Bus        EventBusInterface
	Processor  *Processor
	Completion *CompletionTracker
}

// RegisterTriggers registers event handlers that wake the work processor.
func RegisterTriggers(deps *TriggerDeps) {
	// Tender lifecycle changes invalidate the current ranking
	rerank := func(e *events.Event) {
		deps.Completion.ClearByTypeID("tenders:rerank")
		deps.Processor.Trigger()
	}
	deps.Bus.Subscribe(events.TenderCreated, rerank)
	deps.Bus.Subscribe(events.TenderUpdated, rerank)
	deps.Bus.Subscribe(events.TenderArchived, rerank)
	deps.Bus.Subscribe(events.TenderDeleted, rerank)
	deps.Bus.Subscribe(events.TenderMatched, rerank)

	// A new snapshot makes existing bids stale. The completion is recorded
	// here because reference mutations rebuild inline, outside the
	// processor; dependent work still needs to see that a reload happened.
	deps.Bus.Subscribe(events.SnapshotReloaded, func(e *events.Event) {
		deps.Completion.MarkCompletedAt(&WorkItem{TypeID: "snapshot:reload"}, time.Now())
		deps.Completion.ClearByTypeID("tenders:reprice")
		deps.Processor.Trigger()
	})
}
