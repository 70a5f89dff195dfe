package database

import (
	"time"
)

// Consumer-facing views of the repositories. Components depend on these so
// tests can substitute fakes without a database.

type SourceStore interface {
	CreateSource(src *Source) (string, error)
	GetSource(id string) (*Source, error)
	GetSourceBySlug(sourceType SourceType, slug string) (*Source, error)
	ListSources(filter SourceFilter) ([]Source, error)
	MarkFetched(id string, fetchedAt time.Time) error
	UpdateQuality(id string, status QualityStatus, priority int) error
	SetActive(id string, active bool) error
	UpdateTags(id string, tags []string) error
}

type TaskStore interface {
	Enqueue(sourceIDs []string, priorities map[string]int) (int, error)
	ClaimNext() (*ImportTask, error)
	Complete(taskID string, totalItems, processedItems int) error
	Fail(taskID string, errText string) error
	ResetStuck(timeout time.Duration) (int, error)
	UpdateProgress(taskID string, totalItems, processedItems int) error
}

type JobStore interface {
	GetCompanyByATS(atsType, atsID string) (*Company, error)
	GetCompanyBySlug(slug string) (*Company, error)
	CreateCompany(c *Company) (string, error)
	GetJobByExternalID(sourceType SourceType, externalID string) (*Job, error)
	FindRecentJobByTitle(companyID, normalizedTitle string, since time.Time) (*Job, error)
	JobSlugExists(slug string) (bool, error)
	CreateJob(j *Job) (string, error)
}

type AuditStore interface {
	StartImportLog(sourceID, taskID string) (string, error)
	FinishImportLog(id, status string, fetched, created, skipped, failed int, errText string) error
	AddFilteredJob(importLogID, title, companyName, reason, excerpt string) error
	AddImportedJob(importLogID, jobID string) error
	ListImportLogs(sourceID string, since time.Time) ([]ImportLog, error)
}

type CandidateStore interface {
	UpsertCandidate(runID, slug, name string) (bool, error)
	GetCandidate(id string) (*Candidate, error)
	ListCandidates(ids []string) ([]Candidate, error)
	SetCandidateStatus(id string, status CandidateStatus) error
}

type RunStore interface {
	StartRun(kind RunKind, query string) (string, error)
	GetRun(id string) (*PipelineRun, error)
	GetLatestRun(kind RunKind) (*PipelineRun, error)
	UpdateProgress(id string, currentPage, found, processed int) error
	RequestCancel(kind RunKind) (bool, error)
	IsCancelRequested(id string) (bool, error)
	FinishRun(id string, status RunStatus, errText string) error
}

var (
	_ SourceStore    = (*SourceRepository)(nil)
	_ TaskStore      = (*TaskRepository)(nil)
	_ JobStore       = (*JobRepository)(nil)
	_ AuditStore     = (*AuditRepository)(nil)
	_ RunStore       = (*RunRepository)(nil)
	_ CandidateStore = (*CandidateRepository)(nil)
)
