package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceRepository handles database operations for sources
type SourceRepository struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepository {
	return &SourceRepository{db: db}
}

const sourceColumns = `id, name, source_type, company_slug, endpoint_override, active,
	tags, quality_status, priority, last_fetched_at, run_config, created_at, updated_at`

// SourceFilter narrows source listings. Zero values mean "no constraint".
type SourceFilter struct {
	IDs           []string
	Tag           string
	QualityStatus QualityStatus
	ActiveOnly    bool
}

// CreateSource inserts a new source and returns its generated ID.
func (r *SourceRepository) CreateSource(src *Source) (string, error) {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if src.QualityStatus == "" {
		src.QualityStatus = QualityUnknown
	}

	tags, err := marshalStrings(src.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	runConfig, err := json.Marshal(src.RunConfig)
	if err != nil {
		return "", fmt.Errorf("failed to encode run config: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO sources (id, name, source_type, company_slug, endpoint_override,
			active, tags, quality_status, priority, run_config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, src.ID, src.Name, src.SourceType, src.CompanySlug, src.EndpointOverride,
		src.Active, string(tags), src.QualityStatus, src.Priority, string(runConfig))
	if err != nil {
		return "", fmt.Errorf("failed to create source: %w", err)
	}

	return src.ID, nil
}

// GetSource retrieves a source by ID
func (r *SourceRepository) GetSource(id string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

// GetSourceBySlug retrieves a source by (source_type, company_slug)
func (r *SourceRepository) GetSourceBySlug(sourceType SourceType, slug string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE source_type = ? AND company_slug = ?`,
		sourceType, slug)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by slug: %w", err)
	}
	return src, nil
}

// ListSources returns sources matching the filter, highest priority first.
func (r *SourceRepository) ListSources(filter SourceFilter) ([]Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE 1=1`
	var args []interface{}

	if len(filter.IDs) > 0 {
		query += ` AND id IN (` + placeholders(len(filter.IDs)) + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.QualityStatus != "" {
		query += ` AND quality_status = ?`
		args = append(args, filter.QualityStatus)
	}
	if filter.ActiveOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY priority DESC, name ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		// Tag filtering happens here because tags live in a JSON column.
		if filter.Tag != "" && !containsString(src.Tags, filter.Tag) {
			continue
		}
		sources = append(sources, *src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// MarkFetched stamps last_fetched_at after a completed run.
func (r *SourceRepository) MarkFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_fetched_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, fetchedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark source fetched: %w", err)
	}
	return nil
}

// UpdateQuality writes the scorer's verdict for one source in a single statement.
func (r *SourceRepository) UpdateQuality(id string, status QualityStatus, priority int) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET quality_status = ?, priority = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, priority, id)
	if err != nil {
		return fmt.Errorf("failed to update source quality: %w", err)
	}
	return nil
}

// SetActive flips the active flag for one source.
func (r *SourceRepository) SetActive(id string, active bool) error {
	res, err := r.db.Exec(`
		UPDATE sources SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set source active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %s not found", id)
	}
	return nil
}

// UpdateTags replaces the tag set for one source.
func (r *SourceRepository) UpdateTags(id string, tags []string) error {
	encoded, err := marshalStrings(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	res, err := r.db.Exec(`
		UPDATE sources SET tags = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update source tags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %s not found", id)
	}
	return nil
}

// GetSourceCount returns the total number of sources
func (r *SourceRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// CountByQuality returns source counts grouped by quality status.
func (r *SourceRepository) CountByQuality() (map[QualityStatus]int, error) {
	rows, err := r.db.Query(`SELECT quality_status, COUNT(*) FROM sources GROUP BY quality_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources by quality: %w", err)
	}
	defer rows.Close()

	counts := make(map[QualityStatus]int)
	for rows.Next() {
		var status QualityStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan quality count row: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*Source, error) {
	var src Source
	var tags, runConfig string
	err := row.Scan(
		&src.ID, &src.Name, &src.SourceType, &src.CompanySlug, &src.EndpointOverride,
		&src.Active, &tags, &src.QualityStatus, &src.Priority, &src.LastFetchedAt,
		&runConfig, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &src.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(runConfig), &src.RunConfig); err != nil {
		return nil, fmt.Errorf("failed to decode run config: %w", err)
	}
	return &src, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
