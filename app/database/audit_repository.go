package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditRepository handles the read-mostly audit trail: import logs and
// their child filtered/imported job records.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const importLogColumns = `id, source_id, COALESCE(task_id, ''), status, fetched,
	created, skipped, failed, error, started_at, finished_at`

// StartImportLog opens the audit record for one adapter run.
func (r *AuditRepository) StartImportLog(sourceID, taskID string) (string, error) {
	id := uuid.NewString()
	var task interface{}
	if taskID != "" {
		task = taskID
	}
	_, err := r.db.Exec(`
		INSERT INTO import_logs (id, source_id, task_id, started_at)
		VALUES (?, ?, ?, ?)
	`, id, sourceID, task, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to start import log: %w", err)
	}
	return id, nil
}

// FinishImportLog closes the audit record with final counts.
func (r *AuditRepository) FinishImportLog(id, status string, fetched, created, skipped, failed int, errText string) error {
	_, err := r.db.Exec(`
		UPDATE import_logs
		SET status = ?, fetched = ?, created = ?, skipped = ?, failed = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, status, fetched, created, skipped, failed, errText, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish import log: %w", err)
	}
	return nil
}

// AddFilteredJob records a posting rejected before import.
func (r *AuditRepository) AddFilteredJob(importLogID, title, companyName, reason, excerpt string) error {
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}
	_, err := r.db.Exec(`
		INSERT INTO filtered_jobs (id, import_log_id, title, company_name, reason, excerpt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), importLogID, title, companyName, reason, excerpt)
	if err != nil {
		return fmt.Errorf("failed to add filtered job: %w", err)
	}
	return nil
}

// AddImportedJob links an accepted posting to the job it created.
func (r *AuditRepository) AddImportedJob(importLogID, jobID string) error {
	_, err := r.db.Exec(`
		INSERT INTO imported_jobs (id, import_log_id, job_id)
		VALUES (?, ?, ?)
	`, uuid.NewString(), importLogID, jobID)
	if err != nil {
		return fmt.Errorf("failed to add imported job: %w", err)
	}
	return nil
}

// ListImportLogs returns logs for a source since the cutoff, newest first.
// An empty sourceID returns logs across all sources.
func (r *AuditRepository) ListImportLogs(sourceID string, since time.Time) ([]ImportLog, error) {
	query := `SELECT ` + importLogColumns + ` FROM import_logs WHERE started_at >= ?`
	args := []interface{}{since.UTC()}
	if sourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, sourceID)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		var l ImportLog
		err := rows.Scan(
			&l.ID, &l.SourceID, &l.TaskID, &l.Status, &l.Fetched,
			&l.Created, &l.Skipped, &l.Failed, &l.Error, &l.StartedAt, &l.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log row: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import log rows: %w", err)
	}

	return logs, nil
}

// ListFilteredJobs returns the rejected postings of one import log.
func (r *AuditRepository) ListFilteredJobs(importLogID string) ([]FilteredJob, error) {
	rows, err := r.db.Query(`
		SELECT id, import_log_id, title, company_name, reason, excerpt, created_at
		FROM filtered_jobs
		WHERE import_log_id = ?
		ORDER BY created_at ASC
	`, importLogID)
	if err != nil {
		return nil, fmt.Errorf("failed to list filtered jobs: %w", err)
	}
	defer rows.Close()

	var filtered []FilteredJob
	for rows.Next() {
		var f FilteredJob
		if err := rows.Scan(&f.ID, &f.ImportLogID, &f.Title, &f.CompanyName, &f.Reason, &f.Excerpt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan filtered job row: %w", err)
		}
		filtered = append(filtered, f)
	}

	return filtered, rows.Err()
}

// PurgeOlderThan removes import logs (and, via cascade, their filtered and
// imported job children) whose run started before the retention cutoff.
func (r *AuditRepository) PurgeOlderThan(retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := r.db.Exec(`DELETE FROM import_logs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge import logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
