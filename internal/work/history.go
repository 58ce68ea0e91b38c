package work

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Run statuses persisted in job_history.
const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

// JobRun is one recorded execution from the job_history table.
type JobRun struct {
	ID         int64      `json:"id"`
	WorkID     string     `json:"work_id"`
	TypeID     string     `json:"type_id"`
	Subject    string     `json:"subject,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs *int64     `json:"duration_ms,omitempty"`
}

// LastCompletion is the most recent completed run of a work type/subject.
type LastCompletion struct {
	TypeID     string
	Subject    string
	FinishedAt time.Time
}

// JobHistory persists work executions.
// Database: cache.db (job_history table)
type JobHistory struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewJobHistory creates a new job history repository
func NewJobHistory(db *sql.DB, log zerolog.Logger) *JobHistory {
	return &JobHistory{
		db:  db,
		log: log.With().Str("repository", "job_history").Logger(),
	}
}

// RecordStart inserts a running row for the item and returns its row id.
func (h *JobHistory) RecordStart(item *WorkItem) (int64, error) {
	result, err := h.db.Exec(`
		INSERT INTO job_history (work_id, type_id, subject, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID, item.TypeID, item.Subject, runStatusRunning, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to record job start: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read job history id: %w", err)
	}
	return id, nil
}

// RecordCompleted marks a run as completed.
func (h *JobHistory) RecordCompleted(runID int64, duration time.Duration) error {
	return h.finish(runID, runStatusCompleted, "", duration)
}

// RecordFailed marks a run as failed with its error.
func (h *JobHistory) RecordFailed(runID int64, runErr error, duration time.Duration) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	return h.finish(runID, runStatusFailed, message, duration)
}

func (h *JobHistory) finish(runID int64, status, message string, duration time.Duration) error {
	_, err := h.db.Exec(`
		UPDATE job_history
		SET status = ?, error = ?, finished_at = ?, duration_ms = ?
		WHERE id = ?
	`, status, message, time.Now().Unix(), duration.Milliseconds(), runID)
	if err != nil {
		return fmt.Errorf("failed to record job result: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (h *JobHistory) Recent(limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.db.Query(`
		SELECT id, work_id, type_id, subject, status, error, started_at, finished_at, duration_ms
		FROM job_history
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var startedAt int64
		var finishedAt, durationMs sql.NullInt64
		if err := rows.Scan(&run.ID, &run.WorkID, &run.TypeID, &run.Subject,
			&run.Status, &run.Error, &startedAt, &finishedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}

		run.StartedAt = time.Unix(startedAt, 0).UTC()
		if finishedAt.Valid {
			t := time.Unix(finishedAt.Int64, 0).UTC()
			run.FinishedAt = &t
		}
		if durationMs.Valid {
			d := durationMs.Int64
			run.DurationMs = &d
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job history: %w", err)
	}
	return runs, nil
}

// LastCompletions returns the most recent completed run per type/subject.
func (h *JobHistory) LastCompletions() ([]LastCompletion, error) {
	rows, err := h.db.Query(`
		SELECT type_id, subject, MAX(finished_at)
		FROM job_history
		WHERE status = ? AND finished_at IS NOT NULL
		GROUP BY type_id, subject
	`, runStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query last completions: %w", err)
	}
	defer rows.Close()

	var completions []LastCompletion
	for rows.Next() {
		var c LastCompletion
		var finishedAt int64
		if err := rows.Scan(&c.TypeID, &c.Subject, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.FinishedAt = time.Unix(finishedAt, 0).UTC()
		completions = append(completions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}
	return completions, nil
}

// Prune deletes runs that started before the cutoff. Returns rows removed.
func (h *JobHistory) Prune(before time.Time) (int64, error) {
	result, err := h.db.Exec("DELETE FROM job_history WHERE started_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune job history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return removed, nil
}

// RestoreCompletions seeds the tracker with the last completed run of every
// work type so intervals survive restarts.
func RestoreCompletions(history *JobHistory, tracker *CompletionTracker) error {
	completions, err := history.LastCompletions()
	if err != nil {
		return err
	}

	for _, c := range completions {
		tracker.MarkCompletedAt(&WorkItem{TypeID: c.TypeID, Subject: c.Subject}, c.FinishedAt)
	}
	return nil
}
