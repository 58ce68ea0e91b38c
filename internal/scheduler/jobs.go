package scheduler

import (
	"github.com/bidfoundry/quotient/internal/work"
)

// WorkJob nudges the work processor on a schedule. It clears the
// completion for one work type and wakes the loop; eligibility (desk
// timing, intervals, dependencies) stays with the processor, so a job
// firing at the wrong moment just parks the work until it qualifies.
type WorkJob struct {
	name       string
	typeID     string
	completion *work.CompletionTracker
	processor  *work.Processor
}

// NewWorkJob creates a scheduled nudge for a work type.
func NewWorkJob(name, typeID string, completion *work.CompletionTracker, processor *work.Processor) *WorkJob {
	return &WorkJob{
		name:       name,
		typeID:     typeID,
		completion: completion,
		processor:  processor,
	}
}

// Name returns the job name
func (j *WorkJob) Name() string {
	return j.name
}

// Run marks the work type stale and wakes the processor
func (j *WorkJob) Run() error {
	j.completion.ClearByTypeID(j.typeID)
	j.processor.Trigger()
	return nil
}
