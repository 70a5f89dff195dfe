package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobsift/jobsift/app/database"
)

// ErrUpstreamUnavailable marks network failures, non-2xx responses and
// malformed top-level payloads. Retryable: the task fails and is picked up
// again on the next scheduling pass.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// RawPosting is the canonical intermediate shape both adapter families
// produce. Fields an upstream does not provide stay zero; only ParseError
// marks an item the importer must reject instead of importing.
type RawPosting struct {
	ExternalID     string
	Title          string
	CompanyName    string
	CompanySlug    string
	Description    string
	Location       string
	LocationType   string
	Level          string
	EmploymentType string
	ApplyURL       string
	ApplyEmail     string
	SalaryMin      int
	SalaryMax      int
	SalaryCurrency string
	SalaryPeriod   string
	PostedAt       time.Time

	// ParseError is set when the raw item was too malformed to map. The
	// batch continues; the importer records the item as PARSE_ERROR.
	ParseError string
}

// Adapter maps one source-type's raw upstream data into canonical postings.
// Fetch returns a finite batch; a zero-length batch is valid.
type Adapter interface {
	Fetch(ctx context.Context, source *database.Source) ([]RawPosting, error)
}

// Registry resolves the adapter for a source's type.
type Registry struct {
	adapters map[database.SourceType]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[database.SourceType]Adapter)}
}

func (r *Registry) Register(sourceType database.SourceType, a Adapter) {
	r.adapters[sourceType] = a
}

// For returns the adapter registered for the source type.
func (r *Registry) For(sourceType database.SourceType) (Adapter, error) {
	a, ok := r.adapters[sourceType]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source type %q", sourceType)
	}
	return a, nil
}

// upstreamErr wraps an error so errors.Is(err, ErrUpstreamUnavailable) holds.
func upstreamErr(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUpstreamUnavailable)...)
}
