package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Processor executes work items one at a time, respecting dependencies,
// desk timing and per-subject intervals. Every run is persisted to job
// history.
type Processor struct {
	registry   *Registry
	completion *CompletionTracker
	timing     *TimingChecker
	history    *JobHistory
	timeout    time.Duration
	log        zerolog.Logger

	trigger    chan struct{}
	done       chan struct{}
	stop       chan struct{}
	stopped    chan struct{}
	retryQueue []*WorkItem
	inFlight   map[string]bool // Track currently executing work
	mu         sync.Mutex
}

// NewProcessor creates a new work processor. A nil history skips run
// recording.
func NewProcessor(registry *Registry, completion *CompletionTracker, timing *TimingChecker, history *JobHistory, log zerolog.Logger) *Processor {
	return NewProcessorWithTimeout(registry, completion, timing, history, log, WorkTimeout)
}

// NewProcessorWithTimeout creates a new work processor with a custom timeout.
// This is primarily used for testing.
func NewProcessorWithTimeout(registry *Registry, completion *CompletionTracker, timing *TimingChecker, history *JobHistory, log zerolog.Logger, timeout time.Duration) *Processor {
	return &Processor{
		registry:   registry,
		completion: completion,
		timing:     timing,
		history:    history,
		timeout:    timeout,
		log:        log.With().Str("component", "work_processor").Logger(),
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		retryQueue: make([]*WorkItem, 0),
		inFlight:   make(map[string]bool),
	}
}

// Run starts the processor loop. This blocks until Stop() is called.
func (p *Processor) Run() {
	defer close(p.stopped)

	for {
		select {
		case <-p.stop:
			return
		case <-p.trigger:
			p.processOne()
		case <-p.done:
			p.processOne()
		}
	}
}

// Stop stops the processor.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.stopped
}

// Trigger wakes up the processor to check for work.
// This is non-blocking and can be called from any goroutine.
func (p *Processor) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
		// Trigger already pending
	}
}

// ExecuteNow immediately executes a specific work type, bypassing timing
// and interval checks. This is used for manual triggers via the API.
func (p *Processor) ExecuteNow(workTypeID string, subject string) error {
	wt := p.registry.Get(workTypeID)
	if wt == nil {
		return fmt.Errorf("unknown work type: %s", workTypeID)
	}

	item := NewWorkItem(wt, subject)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.execute(ctx, item, wt)
	if err == nil {
		p.completion.MarkCompleted(item)
	}
	return err
}

// processOne finds and executes the next eligible work item.
func (p *Processor) processOne() {
	p.mu.Lock()
	// Check if we're already executing something
	if len(p.inFlight) > 0 {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// Try regular work first
	item, wt := p.findNextWork()
	if item == nil {
		// Try retry queue
		item, wt = p.popRetryQueue()
	}
	if item == nil {
		return
	}

	// Mark as in-flight
	p.mu.Lock()
	p.inFlight[item.ID] = true
	p.mu.Unlock()

	// Execute asynchronously; the done signal chains to the next item
	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.inFlight, item.ID)
			p.mu.Unlock()

			select {
			case p.done <- struct{}{}:
			default:
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		err := p.execute(ctx, item, wt)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				p.log.Error().Str("work", item.ID).Msg("Work timed out")
			} else {
				p.log.Error().Err(err).Str("work", item.ID).Msg("Work failed")
			}

			item.Retries++
			if item.Retries < MaxRetries {
				p.pushRetryQueue(item)
			} else {
				p.log.Warn().Str("work", item.ID).Int("retries", item.Retries).Msg("Max retries reached, skipping")
			}
		} else {
			p.completion.MarkCompleted(item)
		}
	}()
}

// findNextWork finds the next work item to execute.
func (p *Processor) findNextWork() (*WorkItem, *WorkType) {
	workTypes := p.registry.ByPriority()

	for _, wt := range workTypes {
		subjects := wt.FindSubjects()
		if subjects == nil {
			continue
		}

		for _, subject := range subjects {
			if !p.timing.CanExecute(wt.Timing) {
				continue
			}

			if wt.Interval > 0 && !p.completion.IsStale(wt.ID, subject, wt.Interval) {
				continue
			}

			if !p.dependenciesMet(wt, subject) {
				continue
			}

			return NewWorkItem(wt, subject), wt
		}
	}

	return nil, nil
}

// dependenciesMet checks if all dependencies for a work type have been
// completed. A dependency is satisfied by a completion for the same
// subject, or by a global completion of the dependency type.
func (p *Processor) dependenciesMet(wt *WorkType, subject string) bool {
	if len(wt.DependsOn) == 0 {
		return true
	}

	for _, depID := range wt.DependsOn {
		if _, exists := p.completion.GetCompletion(depID, subject); exists {
			continue
		}
		if _, exists := p.completion.GetCompletion(depID, ""); exists {
			continue
		}
		return false
	}

	return true
}

// execute runs a work item and records the run in job history.
func (p *Processor) execute(ctx context.Context, item *WorkItem, wt *WorkType) error {
	var runID int64
	if p.history != nil {
		id, err := p.history.RecordStart(item)
		if err != nil {
			p.log.Warn().Err(err).Str("work", item.ID).Msg("Failed to record job start")
		} else {
			runID = id
		}
	}

	started := time.Now()
	err := wt.Execute(ctx, item.Subject)
	duration := time.Since(started)

	if p.history != nil && runID != 0 {
		var recordErr error
		if err != nil {
			recordErr = p.history.RecordFailed(runID, err, duration)
		} else {
			recordErr = p.history.RecordCompleted(runID, duration)
		}
		if recordErr != nil {
			p.log.Warn().Err(recordErr).Str("work", item.ID).Msg("Failed to record job result")
		}
	}

	return err
}

// pushRetryQueue adds an item to the retry queue.
func (p *Processor) pushRetryQueue(item *WorkItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retryQueue = append(p.retryQueue, item)
}

// popRetryQueue removes and returns the first item from the retry queue.
func (p *Processor) popRetryQueue() (*WorkItem, *WorkType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.retryQueue) == 0 {
		return nil, nil
	}

	item := p.retryQueue[0]
	p.retryQueue = p.retryQueue[1:]

	wt := p.registry.Get(item.TypeID)
	if wt == nil {
		return nil, nil
	}

	return item, wt
}
