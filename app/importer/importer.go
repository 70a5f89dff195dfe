package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/policy"
)

// defaultAgeWindowDays bounds the (company, normalized title) fallback
// dedup key: an identical title older than this is treated as a repost.
const defaultAgeWindowDays = 45

// Stats summarizes one import run. Skipped covers duplicates and
// policy-filtered postings; Failed covers parse errors and per-posting
// processing errors.
type Stats struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Engine is the dedup & import engine: given one source's batch of raw
// postings it filters, deduplicates, estimates missing salaries and writes
// jobs plus a full audit trail.
type Engine struct {
	jobs      database.JobStore
	audit     database.AuditStore
	filterer  *Filterer
	estimator *Estimator
	policy    *policy.Policy
}

func NewEngine(jobs database.JobStore, audit database.AuditStore, p *policy.Policy) *Engine {
	return &Engine{
		jobs:      jobs,
		audit:     audit,
		filterer:  NewFilterer(p),
		estimator: NewEstimator(p.Salary),
		policy:    p,
	}
}

// Run imports one batch for a source, writing one ImportLog. taskID may be
// empty for ad hoc runs. A malformed posting is counted and the batch
// continues; a storage failure aborts the run and marks the log failed.
func (e *Engine) Run(ctx context.Context, source *database.Source, taskID string, postings []adapter.RawPosting) (Stats, error) {
	stats := Stats{Fetched: len(postings)}

	logID, err := e.audit.StartImportLog(source.ID, taskID)
	if err != nil {
		return stats, fmt.Errorf("failed to open import log: %w", err)
	}

	for _, posting := range postings {
		select {
		case <-ctx.Done():
			e.finishLog(logID, "failed", stats, ctx.Err().Error())
			return stats, ctx.Err()
		default:
		}

		// processPosting only errors on storage failures; malformed
		// postings surface as outcomes instead.
		outcome, err := e.processPosting(source, logID, posting)
		if err != nil {
			e.finishLog(logID, "failed", stats, err.Error())
			return stats, fmt.Errorf("failed to process posting %q: %w", posting.Title, err)
		}
		switch outcome {
		case outcomeCreated:
			stats.Created++
		case outcomeSkipped, outcomeFiltered:
			stats.Skipped++
		case outcomeParseError:
			stats.Failed++
		}
	}

	if err := e.finishLog(logID, "completed", stats, ""); err != nil {
		return stats, err
	}

	slog.Info("Import completed",
		"source", source.Name,
		"fetched", stats.Fetched,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return stats, nil
}

// RunFailed records an import log for a run whose fetch never produced a
// batch, so upstream failures stay visible to the quality scorer.
func (e *Engine) RunFailed(source *database.Source, taskID string, runErr error) error {
	logID, err := e.audit.StartImportLog(source.ID, taskID)
	if err != nil {
		return fmt.Errorf("failed to open import log: %w", err)
	}
	return e.finishLog(logID, "failed", Stats{}, runErr.Error())
}

func (e *Engine) finishLog(logID, status string, stats Stats, errText string) error {
	if err := e.audit.FinishImportLog(logID, status, stats.Fetched, stats.Created, stats.Skipped, stats.Failed, errText); err != nil {
		return fmt.Errorf("failed to close import log: %w", err)
	}
	return nil
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeSkipped
	outcomeFiltered
	outcomeParseError
)

func (e *Engine) processPosting(source *database.Source, logID string, posting adapter.RawPosting) (outcome, error) {
	// Pre-write policy filters run before any write so rejected postings
	// never create companies.
	if reason := e.filterer.Check(posting); reason != "" {
		excerpt := posting.Description
		if posting.ParseError != "" {
			excerpt = posting.ParseError
		}
		if err := e.audit.AddFilteredJob(logID, posting.Title, posting.CompanyName, reason, excerpt); err != nil {
			return 0, err
		}
		if reason == ReasonParseError {
			return outcomeParseError, nil
		}
		return outcomeFiltered, nil
	}

	normalizedTitle := NormalizeTitle(posting.Title)

	// Primary dedup key: (source type, stable external id).
	if posting.ExternalID != "" {
		existing, err := e.jobs.GetJobByExternalID(source.SourceType, posting.ExternalID)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return outcomeSkipped, nil
		}
	}

	company, err := e.resolveCompany(source, posting)
	if err != nil {
		return 0, err
	}

	// Fallback dedup key: same company, same normalized title, within the
	// active-posting age window. Only used without a stable external id.
	if posting.ExternalID == "" {
		since := time.Now().UTC().AddDate(0, 0, -e.ageWindowDays(source))
		existing, err := e.jobs.FindRecentJobByTitle(company.ID, normalizedTitle, since)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return outcomeSkipped, nil
		}
	}

	job := e.buildJob(source, company, posting, normalizedTitle)

	slug, err := e.uniqueJobSlug(posting.Title, company.Slug)
	if err != nil {
		return 0, err
	}
	job.Slug = slug

	jobID, err := e.jobs.CreateJob(job)
	if err != nil {
		return 0, err
	}

	if err := e.audit.AddImportedJob(logID, jobID); err != nil {
		return 0, err
	}

	return outcomeCreated, nil
}

// resolveCompany matches by ATS linkage first, then by normalized name,
// and creates the company on first sighting.
func (e *Engine) resolveCompany(source *database.Source, posting adapter.RawPosting) (*database.Company, error) {
	if posting.CompanySlug != "" {
		company, err := e.jobs.GetCompanyByATS(string(source.SourceType), posting.CompanySlug)
		if err != nil {
			return nil, err
		}
		if company != nil {
			return company, nil
		}
	}

	normalizedName := NormalizeCompanyName(posting.CompanyName)
	slug := Slugify(normalizedName)

	company, err := e.jobs.GetCompanyBySlug(slug)
	if err != nil {
		return nil, err
	}
	if company != nil {
		return company, nil
	}

	company = &database.Company{
		Name:    posting.CompanyName,
		Slug:    slug,
		Website: DeriveWebsite(posting, e.policy.FreeEmailDomains),
		ATSType: string(source.SourceType),
		ATSID:   posting.CompanySlug,
	}
	if _, err := e.jobs.CreateCompany(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (e *Engine) buildJob(source *database.Source, company *database.Company, posting adapter.RawPosting, normalizedTitle string) *database.Job {
	job := &database.Job{
		CompanyID:          company.ID,
		Title:              posting.Title,
		NormalizedTitle:    normalizedTitle,
		DescriptionRaw:     posting.Description,
		DescriptionBullets: ExtractBullets(posting.Description),
		Location:           posting.Location,
		LocationType:       posting.LocationType,
		Level:              posting.Level,
		EmploymentType:     posting.EmploymentType,
		Skills:             []string{},
		ApplyURL:           posting.ApplyURL,
		ApplyEmail:         posting.ApplyEmail,
		SourceType:         source.SourceType,
		ExternalID:         posting.ExternalID,
		PostedAt:           posting.PostedAt,
		Active:             true,
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}
	if job.LocationType == "" {
		job.LocationType = "remote"
	}

	if posting.SalaryMin > 0 {
		// Explicit upstream salary is never overwritten by an estimate.
		job.SalaryMin = posting.SalaryMin
		job.SalaryMax = posting.SalaryMax
		if job.SalaryMax < job.SalaryMin {
			job.SalaryMax = job.SalaryMin
		}
		job.SalaryCurrency = posting.SalaryCurrency
		job.SalaryPeriod = posting.SalaryPeriod
		job.SalaryIsEstimate = false
	} else {
		estimate := e.estimator.Estimate(posting.Title, posting.Level, posting.Location)
		job.SalaryMin = estimate.Min
		job.SalaryMax = estimate.Max
		job.SalaryCurrency = estimate.Currency
		job.SalaryPeriod = estimate.Period
		job.SalaryIsEstimate = true
	}

	return job
}

// uniqueJobSlug derives a slug from title and company, appending -2, -3...
// until it is free.
func (e *Engine) uniqueJobSlug(title, companySlug string) (string, error) {
	base := Slugify(title + " " + companySlug)
	if base == "" {
		base = "job"
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := e.jobs.JobSlugExists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (e *Engine) ageWindowDays(source *database.Source) int {
	if source.RunConfig.ATS != nil && source.RunConfig.ATS.PostingAgeDays > 0 {
		return source.RunConfig.ATS.PostingAgeDays
	}
	if source.RunConfig.Social != nil && source.RunConfig.Social.RecencyDays > 0 {
		return source.RunConfig.Social.RecencyDays
	}
	return defaultAgeWindowDays
}
