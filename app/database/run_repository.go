package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRepository persists discovery and bulk-run progress so cancellation
// and polling survive beyond a single process-local object.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, kind, status, query, current_page, found, processed,
	cancel_requested, error, started_at, finished_at`

// ErrRunActive is returned by StartRun when a run of the same kind is
// already running.
var ErrRunActive = fmt.Errorf("a run of this kind is already active")

// StartRun creates a new running record for the kind, failing fast when one
// is already active. The partial unique index on (kind) WHERE running
// backs the conditional insert, so two concurrent starts cannot both win.
func (r *RunRepository) StartRun(kind RunKind, query string) (string, error) {
	id := uuid.NewString()
	res, err := r.db.Exec(`
		INSERT INTO pipeline_runs (id, kind, status, query, started_at)
		SELECT ?, ?, 'running', ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM pipeline_runs WHERE kind = ? AND status = 'running'
		)
	`, id, kind, query, time.Now().UTC(), kind)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrRunActive
	}
	return id, nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(id string) (*PipelineRun, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetLatestRun returns the most recent run of a kind, running or not.
func (r *RunRepository) GetLatestRun(kind RunKind) (*PipelineRun, error) {
	row := r.db.QueryRow(`
		SELECT `+runColumns+` FROM pipeline_runs
		WHERE kind = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, kind)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// UpdateProgress advances the run's position counters.
func (r *RunRepository) UpdateProgress(id string, currentPage, found, processed int) error {
	_, err := r.db.Exec(`
		UPDATE pipeline_runs
		SET current_page = ?, found = ?, processed = ?
		WHERE id = ? AND status = 'running'
	`, currentPage, found, processed, id)
	if err != nil {
		return fmt.Errorf("failed to update run progress: %w", err)
	}
	return nil
}

// RequestCancel sets the stored cancel flag. The running side polls it
// between discrete steps; in-flight work finishes.
func (r *RunRepository) RequestCancel(kind RunKind) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE pipeline_runs SET cancel_requested = 1
		WHERE kind = ? AND status = 'running'
	`, kind)
	if err != nil {
		return false, fmt.Errorf("failed to request run cancel: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IsCancelRequested reads the stored cancel flag for a run.
func (r *RunRepository) IsCancelRequested(id string) (bool, error) {
	var cancel bool
	err := r.db.QueryRow(`SELECT cancel_requested FROM pipeline_runs WHERE id = ?`, id).Scan(&cancel)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read run cancel flag: %w", err)
	}
	return cancel, nil
}

// ResetAbandonedRuns fails over running rows left behind by a dead
// process, so StartRun's conditional insert is not blocked forever.
// Called at startup, before any new run can begin.
func (r *RunRepository) ResetAbandonedRuns() (int, error) {
	res, err := r.db.Exec(`
		UPDATE pipeline_runs
		SET status = ?, error = 'abandoned by process restart', finished_at = ?
		WHERE status = 'running'
	`, RunError, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to reset abandoned runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// FinishRun closes the run with a terminal status.
func (r *RunRepository) FinishRun(id string, status RunStatus, errText string) error {
	_, err := r.db.Exec(`
		UPDATE pipeline_runs
		SET status = ?, error = ?, finished_at = ?
		WHERE id = ? AND status = 'running'
	`, status, errText, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func scanRun(row rowScanner) (*PipelineRun, error) {
	var run PipelineRun
	err := row.Scan(
		&run.ID, &run.Kind, &run.Status, &run.Query, &run.CurrentPage,
		&run.Found, &run.Processed, &run.CancelRequested, &run.Error,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
