package database

import (
	"time"
)

type SourceType string

const (
	SourceTypeATS    SourceType = "ats"
	SourceTypeSocial SourceType = "social"
)

type QualityStatus string

const (
	QualityUnknown  QualityStatus = "unknown"
	QualityHealthy  QualityStatus = "healthy"
	QualityDegraded QualityStatus = "degraded"
	QualityFailing  QualityStatus = "failing"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskProcessing TaskStatus = "PROCESSING"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
)

type RunKind string

const (
	RunKindDiscovery RunKind = "discovery"
	RunKindRunAll    RunKind = "run_all"
)

type RunStatus string

const (
	RunIdle    RunStatus = "idle"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunError   RunStatus = "error"
)

// RunConfig is the per-source-type run configuration. Exactly one of the
// variant fields is populated, keyed by the source's type, so each adapter
// only sees the shape it understands.
type RunConfig struct {
	ATS    *ATSRunConfig    `json:"ats,omitempty"`
	Social *SocialRunConfig `json:"social,omitempty"`
}

// ATSRunConfig configures a structured-ATS source.
type ATSRunConfig struct {
	PostingAgeDays int `json:"posting_age_days"`
}

// SocialRunConfig configures a scraped-social source.
type SocialRunConfig struct {
	Keywords    []string `json:"keywords"`
	MaxResults  int      `json:"max_results"`
	RecencyDays int      `json:"recency_days"`
}

type CandidateStatus string

const (
	CandidateNew     CandidateStatus = "new"
	CandidateValid   CandidateStatus = "valid"
	CandidateInvalid CandidateStatus = "invalid"
	CandidateAdded   CandidateStatus = "added"
)

// Candidate is a board slug found by discovery, not yet a Source.
type Candidate struct {
	ID        string
	RunID     string
	Slug      string
	Name      string
	Status    CandidateStatus
	CreatedAt time.Time
}

// Source is a configured external origin of job postings.
type Source struct {
	ID               string
	Name             string
	SourceType       SourceType
	CompanySlug      string
	EndpointOverride string
	Active           bool
	Tags             []string
	QualityStatus    QualityStatus
	Priority         int
	LastFetchedAt    *time.Time
	RunConfig        RunConfig
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ImportTask is one queued unit of "run this source now" work.
type ImportTask struct {
	ID             string
	SourceID       string
	Status         TaskStatus
	Priority       int
	StartedAt      *time.Time
	CompletedAt    *time.Time
	TotalItems     int
	ProcessedItems int
	Error          string
	CreatedAt      time.Time
}

// ImportLog is the immutable audit record of one adapter run.
type ImportLog struct {
	ID         string
	SourceID   string
	TaskID     string
	Status     string
	Fetched    int
	Created    int
	Skipped    int
	Failed     int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// FilteredJob records a posting rejected before import, with a reason code.
type FilteredJob struct {
	ID          string
	ImportLogID string
	Title       string
	CompanyName string
	Reason      string
	Excerpt     string
	CreatedAt   time.Time
}

// ImportedJob links an accepted posting to the Job it created.
type ImportedJob struct {
	ID          string
	ImportLogID string
	JobID       string
	CreatedAt   time.Time
}

// Company is the canonical employer entity.
type Company struct {
	ID           string
	Name         string
	Slug         string
	Website      string
	LogoURL      string
	Description  string
	Industry     string
	SizeBucket   string
	Headquarters string
	ATSType      string
	ATSID        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Job is one canonical posting.
type Job struct {
	ID                 string
	CompanyID          string
	Title              string
	NormalizedTitle    string
	Slug               string
	DescriptionRaw     string
	DescriptionBullets []string
	Location           string
	LocationType       string
	Level              string
	EmploymentType     string
	Skills             []string
	SalaryMin          int
	SalaryMax          int
	SalaryCurrency     string
	SalaryPeriod       string
	SalaryIsEstimate   bool
	ApplyURL           string
	ApplyEmail         string
	SourceType         SourceType
	ExternalID         string
	PostedAt           time.Time
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PipelineRun is the persisted progress record for a discovery or bulk run.
type PipelineRun struct {
	ID              string
	Kind            RunKind
	Status          RunStatus
	Query           string
	CurrentPage     int
	Found           int
	Processed       int
	CancelRequested bool
	Error           string
	StartedAt       time.Time
	FinishedAt      *time.Time
}
