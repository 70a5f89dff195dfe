package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskRepository owns ImportTask state transitions. No other component
// writes task status.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, source_id, status, priority, started_at, completed_at,
	total_items, processed_items, error, created_at`

// Enqueue creates a PENDING task for each source that has no non-terminal
// task yet, and returns the number of tasks created. Scheduling is
// idempotent: sources with a PENDING or PROCESSING task are skipped.
func (r *TaskRepository) Enqueue(sourceIDs []string, priorities map[string]int) (int, error) {
	created := 0
	for _, sourceID := range sourceIDs {
		res, err := r.db.Exec(`
			INSERT INTO import_tasks (id, source_id, status, priority)
			SELECT ?, ?, 'PENDING', ?
			WHERE NOT EXISTS (
				SELECT 1 FROM import_tasks
				WHERE source_id = ? AND status IN ('PENDING', 'PROCESSING')
			)
		`, uuid.NewString(), sourceID, priorities[sourceID], sourceID)
		if err != nil {
			return created, fmt.Errorf("failed to enqueue task for source %s: %w", sourceID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	return created, nil
}

// ClaimNext atomically flips the highest-priority PENDING task to
// PROCESSING and returns it. Returns nil when the queue is empty. The
// single conditional UPDATE guarantees only one caller wins a given task.
func (r *TaskRepository) ClaimNext() (*ImportTask, error) {
	row := r.db.QueryRow(`
		UPDATE import_tasks
		SET status = 'PROCESSING', started_at = ?
		WHERE id = (
			SELECT id FROM import_tasks
			WHERE status = 'PENDING'
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
		) AND status = 'PENDING'
		RETURNING `+taskColumns, time.Now().UTC())

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return task, nil
}

// Complete transitions a PROCESSING task to COMPLETED with final counters.
func (r *TaskRepository) Complete(taskID string, totalItems, processedItems int) error {
	res, err := r.db.Exec(`
		UPDATE import_tasks
		SET status = 'COMPLETED', completed_at = ?, total_items = ?, processed_items = ?
		WHERE id = ? AND status = 'PROCESSING'
	`, time.Now().UTC(), totalItems, processedItems, taskID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s is not PROCESSING", taskID)
	}
	return nil
}

// Fail transitions a PROCESSING task to FAILED with the error text.
func (r *TaskRepository) Fail(taskID string, errText string) error {
	res, err := r.db.Exec(`
		UPDATE import_tasks
		SET status = 'FAILED', completed_at = ?, error = ?
		WHERE id = ? AND status = 'PROCESSING'
	`, time.Now().UTC(), errText, taskID)
	if err != nil {
		return fmt.Errorf("failed to fail task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s is not PROCESSING", taskID)
	}
	return nil
}

// ResetStuck returns PROCESSING tasks older than the timeout to PENDING,
// clearing started_at and error, and reports how many were reset.
func (r *TaskRepository) ResetStuck(timeout time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-timeout)
	res, err := r.db.Exec(`
		UPDATE import_tasks
		SET status = 'PENDING', started_at = NULL, error = ''
		WHERE status = 'PROCESSING' AND started_at <= ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// UpdateProgress updates the progress counters of a PROCESSING task.
func (r *TaskRepository) UpdateProgress(taskID string, totalItems, processedItems int) error {
	_, err := r.db.Exec(`
		UPDATE import_tasks
		SET total_items = ?, processed_items = ?
		WHERE id = ? AND status = 'PROCESSING'
	`, totalItems, processedItems, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (r *TaskRepository) GetTask(id string) (*ImportTask, error) {
	row := r.db.QueryRow(`SELECT `+taskColumns+` FROM import_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// GetActiveTaskForSource returns the non-terminal task for a source, if any.
func (r *TaskRepository) GetActiveTaskForSource(sourceID string) (*ImportTask, error) {
	row := r.db.QueryRow(`
		SELECT `+taskColumns+` FROM import_tasks
		WHERE source_id = ? AND status IN ('PENDING', 'PROCESSING')
	`, sourceID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active task for source: %w", err)
	}
	return task, nil
}

// CountByStatus returns task counts grouped by status.
func (r *TaskRepository) CountByStatus() (map[TaskStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM import_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[TaskStatus]int)
	for rows.Next() {
		var status TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task count row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanTask(row rowScanner) (*ImportTask, error) {
	var task ImportTask
	err := row.Scan(
		&task.ID, &task.SourceID, &task.Status, &task.Priority,
		&task.StartedAt, &task.CompletedAt, &task.TotalItems,
		&task.ProcessedItems, &task.Error, &task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
