package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CandidateRepository persists board slugs found by discovery crawls so
// validation and promotion can reference them by id later.
type CandidateRepository struct {
	db *DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db *DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, run_id, slug, name, status, created_at`

// UpsertCandidate records a discovered slug. A slug seen by an earlier run
// keeps its existing row and status. Returns true when the row is new.
func (r *CandidateRepository) UpsertCandidate(runID, slug, name string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO discovered_candidates (id, run_id, slug, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slug) DO NOTHING
	`, uuid.NewString(), runID, slug, name)
	if err != nil {
		return false, fmt.Errorf("failed to upsert candidate: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetCandidate retrieves a candidate by ID
func (r *CandidateRepository) GetCandidate(id string) (*Candidate, error) {
	row := r.db.QueryRow(`SELECT `+candidateColumns+` FROM discovered_candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns candidates by explicit ids, or all of them when
// ids is empty.
func (r *CandidateRepository) ListCandidates(ids []string) ([]Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM discovered_candidates`
	args := []any{}
	if len(ids) > 0 {
		query += ` WHERE id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// SetCandidateStatus updates a candidate's lifecycle status.
func (r *CandidateRepository) SetCandidateStatus(id string, status CandidateStatus) error {
	_, err := r.db.Exec(`UPDATE discovered_candidates SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set candidate status: %w", err)
	}
	return nil
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.RunID, &c.Slug, &c.Name, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
