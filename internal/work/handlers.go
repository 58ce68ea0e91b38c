package work

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handlers provides HTTP handlers for the work processor
type Handlers struct {
	processor *Processor
	registry  *Registry
	history   *JobHistory
}

// NewHandlers creates new HTTP handlers for the work processor
func NewHandlers(processor *Processor, registry *Registry, history *JobHistory) *Handlers {
	return &Handlers{
		processor: processor,
		registry:  registry,
		history:   history,
	}
}

// RegisterRoutes registers HTTP routes for job management
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Get("/history", h.ListHistory)
		r.Post("/trigger", h.TriggerProcessor)
		r.Post("/{jobID}/run", h.RunJob)
		r.Post("/{jobID}/{subject}/run", h.RunJobWithSubject)
	})
}

// ListJobs returns every registered work type with its last completion
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	lastRun := make(map[string]time.Time)
	if completions, err := h.history.LastCompletions(); err == nil {
		for _, c := range completions {
			if existing, ok := lastRun[c.TypeID]; !ok || c.FinishedAt.After(existing) {
				lastRun[c.TypeID] = c.FinishedAt
			}
		}
	}

	types := h.registry.ByPriority()
	jobs := make([]map[string]any, 0, len(types))
	for _, wt := range types {
		job := map[string]any{
			"id":         wt.ID,
			"priority":   wt.Priority.String(),
			"timing":     wt.Timing.String(),
			"interval":   wt.Interval.String(),
			"depends_on": wt.DependsOn,
		}
		if finished, ok := lastRun[wt.ID]; ok {
			job["last_completed_at"] = finished
		}
		jobs = append(jobs, job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// ListHistory returns recent job runs, newest first
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.history.Recent(limit)
	if err != nil {
		http.Error(w, "Failed to load job history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// RunJob manually executes a work type (global work)
func (h *Handlers) RunJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	err := h.processor.ExecuteNow(jobID, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "executed",
		"job":    jobID,
	})
}

// RunJobWithSubject manually executes a work type against one subject
func (h *Handlers) RunJobWithSubject(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	subject := chi.URLParam(r, "subject")

	err := h.processor.ExecuteNow(jobID, subject)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "executed",
		"job":     jobID,
		"subject": subject,
	})
}

// TriggerProcessor wakes the processor to look for pending work
func (h *Handlers) TriggerProcessor(w http.ResponseWriter, r *http.Request) {
	h.processor.Trigger()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "triggered",
	})
}
