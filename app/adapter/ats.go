package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/app/database"
)

// ATSAdapter fetches postings from a structured ATS board API keyed by
// company slug. The endpoint returns a flat JSON list; zero results is
// valid, anything non-2xx or non-list is ErrUpstreamUnavailable.
type ATSAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	timeout    time.Duration
}

func NewATSAdapter(baseURL string, httpClient *http.Client, userAgent string, timeout time.Duration) *ATSAdapter {
	return &ATSAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

type atsBoardResponse struct {
	Jobs *[]atsJob `json:"jobs"`
}

type atsJob struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	AbsoluteURL    string         `json:"absolute_url"`
	UpdatedAt      string         `json:"updated_at"`
	FirstPublished string         `json:"first_published"`
	Location       atsJobLocation `json:"location"`
	Metadata       []atsMetadata  `json:"metadata"`
}

type atsJobLocation struct {
	Name string `json:"name"`
}

type atsMetadata struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Fetch retrieves all postings for the source's board.
func (a *ATSAdapter) Fetch(ctx context.Context, source *database.Source) ([]RawPosting, error) {
	if source.CompanySlug == "" {
		return nil, fmt.Errorf("ats source %s has no company slug", source.ID)
	}

	jobs, err := a.fetchBoard(ctx, source.CompanySlug, source.EndpointOverride)
	if err != nil {
		return nil, err
	}

	maxAge := 0
	if source.RunConfig.ATS != nil {
		maxAge = source.RunConfig.ATS.PostingAgeDays
	}

	postings := make([]RawPosting, 0, len(jobs))
	for _, job := range jobs {
		p := a.mapJob(source, job)
		if maxAge > 0 && !p.PostedAt.IsZero() &&
			time.Since(p.PostedAt) > time.Duration(maxAge)*24*time.Hour {
			continue
		}
		postings = append(postings, p)
	}

	slog.Debug("ATS board fetched", "slug", source.CompanySlug, "postings", len(postings))
	return postings, nil
}

// Validate probes a board slug without side effects, reporting whether it
// resolves to a non-empty posting list. Used by discovery.
func (a *ATSAdapter) Validate(ctx context.Context, slug string) (bool, error) {
	jobs, err := a.fetchBoard(ctx, slug, "")
	if err != nil {
		return false, err
	}
	return len(jobs) > 0, nil
}

func (a *ATSAdapter) fetchBoard(ctx context.Context, slug, endpointOverride string) ([]atsJob, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, slug)
	if endpointOverride != "" {
		url = endpointOverride
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, upstreamErr("failed to fetch board %s (%v)", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamErr("board %s returned status %d", slug, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamErr("failed to read board %s response (%v)", slug, err)
	}

	var parsed atsBoardResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Jobs == nil {
		return nil, upstreamErr("board %s returned a non-list payload", slug)
	}

	return *parsed.Jobs, nil
}

func (a *ATSAdapter) mapJob(source *database.Source, job atsJob) RawPosting {
	p := RawPosting{
		ExternalID:  strconv.FormatInt(job.ID, 10),
		Title:       strings.TrimSpace(job.Title),
		CompanyName: source.Name,
		CompanySlug: source.CompanySlug,
		Description: job.Content,
		Location:    strings.TrimSpace(job.Location.Name),
		ApplyURL:    job.AbsoluteURL,
	}

	if strings.Contains(strings.ToLower(p.Location), "remote") {
		p.LocationType = "remote"
	}

	for _, ts := range []string{job.FirstPublished, job.UpdatedAt} {
		if ts == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			p.PostedAt = t.UTC()
			break
		}
	}
	if p.PostedAt.IsZero() {
		p.PostedAt = time.Now().UTC()
	}

	for _, m := range job.Metadata {
		var v string
		if err := json.Unmarshal(m.Value, &v); err != nil {
			continue
		}
		switch strings.ToLower(m.Name) {
		case "employment type", "employment_type":
			p.EmploymentType = v
		case "level", "seniority":
			p.Level = v
		}
	}

	return p
}
