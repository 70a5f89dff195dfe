package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobRepository handles database operations for companies and jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const companyColumns = `id, name, slug, website, logo_url, description, industry,
	size_bucket, headquarters, ats_type, ats_id, created_at, updated_at`

const jobColumns = `id, company_id, title, normalized_title, slug, description_raw,
	description_bullets, location, location_type, level, employment_type, skills,
	salary_min, salary_max, salary_currency, salary_period, salary_is_estimate,
	apply_url, apply_email, source_type, external_id, posted_at, active,
	created_at, updated_at`

// GetCompanyByATS retrieves a company by its ATS linkage
func (r *JobRepository) GetCompanyByATS(atsType, atsID string) (*Company, error) {
	row := r.db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE ats_type = ? AND ats_id = ?`,
		atsType, atsID)
	company, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by ATS id: %w", err)
	}
	return company, nil
}

// GetCompanyBySlug retrieves a company by its URL-safe slug
func (r *JobRepository) GetCompanyBySlug(slug string) (*Company, error) {
	row := r.db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE slug = ?`, slug)
	company, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by slug: %w", err)
	}
	return company, nil
}

// CreateCompany inserts a new company and returns its generated ID.
func (r *JobRepository) CreateCompany(c *Company) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.Exec(`
		INSERT INTO companies (id, name, slug, website, logo_url, description,
			industry, size_bucket, headquarters, ats_type, ats_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, c.Website, c.LogoURL, c.Description,
		c.Industry, c.SizeBucket, c.Headquarters, c.ATSType, c.ATSID)
	if err != nil {
		return "", fmt.Errorf("failed to create company: %w", err)
	}
	return c.ID, nil
}

// DeleteOrphanCompanies removes companies with zero remaining jobs and
// returns how many were deleted. Used by housekeeping, never by imports.
func (r *JobRepository) DeleteOrphanCompanies() (int, error) {
	res, err := r.db.Exec(`
		DELETE FROM companies
		WHERE NOT EXISTS (SELECT 1 FROM jobs WHERE jobs.company_id = companies.id)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan companies: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetJobByExternalID retrieves a job by its stable dedup key
func (r *JobRepository) GetJobByExternalID(sourceType SourceType, externalID string) (*Job, error) {
	if externalID == "" {
		return nil, nil
	}
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE source_type = ? AND external_id = ?`,
		sourceType, externalID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job by external id: %w", err)
	}
	return job, nil
}

// FindRecentJobByTitle looks for an active job with the same normalized
// title at the same company posted since the cutoff. Fallback dedup key for
// postings without a stable external id.
func (r *JobRepository) FindRecentJobByTitle(companyID, normalizedTitle string, since time.Time) (*Job, error) {
	row := r.db.QueryRow(`
		SELECT `+jobColumns+` FROM jobs
		WHERE company_id = ? AND normalized_title = ? AND active = 1 AND posted_at >= ?
		LIMIT 1
	`, companyID, normalizedTitle, since.UTC())
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by title: %w", err)
	}
	return job, nil
}

// JobSlugExists reports whether a job slug is already taken.
func (r *JobRepository) JobSlugExists(slug string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM jobs WHERE slug = ? LIMIT 1`, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check job slug: %w", err)
	}
	return true, nil
}

// CreateJob inserts a new job and returns its generated ID.
func (r *JobRepository) CreateJob(j *Job) (string, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	bullets, err := marshalStrings(j.DescriptionBullets)
	if err != nil {
		return "", fmt.Errorf("failed to encode description bullets: %w", err)
	}
	skills, err := marshalStrings(j.Skills)
	if err != nil {
		return "", fmt.Errorf("failed to encode skills: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO jobs (id, company_id, title, normalized_title, slug,
			description_raw, description_bullets, location, location_type, level,
			employment_type, skills, salary_min, salary_max, salary_currency,
			salary_period, salary_is_estimate, apply_url, apply_email,
			source_type, external_id, posted_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.CompanyID, j.Title, j.NormalizedTitle, j.Slug,
		j.DescriptionRaw, string(bullets), j.Location, j.LocationType, j.Level,
		j.EmploymentType, string(skills), j.SalaryMin, j.SalaryMax, j.SalaryCurrency,
		j.SalaryPeriod, j.SalaryIsEstimate, j.ApplyURL, j.ApplyEmail,
		j.SourceType, j.ExternalID, j.PostedAt.UTC(), j.Active)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	return j.ID, nil
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(id string) (*Job, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetJobCount returns the total number of jobs
func (r *JobRepository) GetJobCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get job count: %w", err)
	}
	return count, nil
}

// GetCompanyCount returns the total number of companies
func (r *JobRepository) GetCompanyCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM companies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get company count: %w", err)
	}
	return count, nil
}

func scanCompany(row rowScanner) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Website, &c.LogoURL, &c.Description,
		&c.Industry, &c.SizeBucket, &c.Headquarters, &c.ATSType, &c.ATSID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var bullets, skills string
	err := row.Scan(
		&j.ID, &j.CompanyID, &j.Title, &j.NormalizedTitle, &j.Slug,
		&j.DescriptionRaw, &bullets, &j.Location, &j.LocationType, &j.Level,
		&j.EmploymentType, &skills, &j.SalaryMin, &j.SalaryMax, &j.SalaryCurrency,
		&j.SalaryPeriod, &j.SalaryIsEstimate, &j.ApplyURL, &j.ApplyEmail,
		&j.SourceType, &j.ExternalID, &j.PostedAt, &j.Active,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bullets), &j.DescriptionBullets); err != nil {
		return nil, fmt.Errorf("failed to decode description bullets: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &j.Skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills: %w", err)
	}
	return &j, nil
}
