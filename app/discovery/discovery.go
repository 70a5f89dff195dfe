package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jobsift/jobsift/app/database"
)

const validateParallelism = 4

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// BoardValidator probes whether a board slug resolves to a live posting
// list without writing anything.
type BoardValidator interface {
	Validate(ctx context.Context, slug string) (bool, error)
}

// Service crawls a public board directory for company slugs, validates
// them against the ATS, and promotes the good ones into sources. Crawl
// progress and cancellation live in the pipeline_runs table.
type Service struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string

	runs       database.RunStore
	candidates database.CandidateStore
	sources    database.SourceStore
	validator  BoardValidator
}

func NewService(baseURL string, httpClient *http.Client, userAgent string,
	runs database.RunStore, candidates database.CandidateStore,
	sources database.SourceStore, validator BoardValidator) *Service {
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
		runs:       runs,
		candidates: candidates,
		sources:    sources,
		validator:  validator,
	}
}

// Start launches a crawl in the background and returns its run id. It
// fails fast with database.ErrRunActive when a crawl is already running.
func (s *Service) Start(query string, maxPages int) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query must not be empty")
	}
	if maxPages <= 0 {
		maxPages = 10
	}

	runID, err := s.runs.StartRun(database.RunKindDiscovery, query)
	if err != nil {
		return "", err
	}

	go s.crawl(runID, query, maxPages)

	slog.Info("Discovery started", "run", runID, "query", query, "max_pages", maxPages)
	return runID, nil
}

// Cancel flips the stored cancel flag on the active crawl. The current
// page finishes before the crawl stops.
func (s *Service) Cancel() (bool, error) {
	return s.runs.RequestCancel(database.RunKindDiscovery)
}

// Progress returns the most recent discovery run record.
func (s *Service) Progress() (*database.PipelineRun, error) {
	return s.runs.GetLatestRun(database.RunKindDiscovery)
}

func (s *Service) crawl(runID, query string, maxPages int) {
	ctx := context.Background()
	found := 0

	for page := 1; page <= maxPages; page++ {
		cancelled, err := s.runs.IsCancelRequested(runID)
		if err != nil {
			slog.Error("Failed to read run cancel flag", "run", runID, "error", err)
		}
		if cancelled {
			slog.Info("Discovery cancelled", "run", runID, "page", page, "found", found)
			s.finish(runID, database.RunDone, "cancelled")
			return
		}

		slugs, err := s.fetchPage(ctx, query, page)
		if err != nil {
			slog.Error("Discovery page failed", "run", runID, "page", page, "error", err)
			s.finish(runID, database.RunError, err.Error())
			return
		}
		if len(slugs) == 0 {
			break
		}

		for slug, name := range slugs {
			created, err := s.candidates.UpsertCandidate(runID, slug, name)
			if err != nil {
				slog.Warn("Failed to record candidate", "slug", slug, "error", err)
				continue
			}
			if created {
				found++
			}
		}

		if err := s.runs.UpdateProgress(runID, page, found, 0); err != nil {
			slog.Error("Failed to update run progress", "run", runID, "error", err)
		}
	}

	s.finish(runID, database.RunDone, "")
	slog.Info("Discovery finished", "run", runID, "found", found)
}

func (s *Service) finish(runID string, status database.RunStatus, errText string) {
	if err := s.runs.FinishRun(runID, status, errText); err != nil {
		slog.Error("Failed to finish run", "run", runID, "error", err)
	}
}

// fetchPage loads one directory search page and extracts board slugs from
// anchors pointing at board pages.
func (s *Service) fetchPage(ctx context.Context, query string, page int) (map[string]string, error) {
	pageURL := fmt.Sprintf("%s/search?q=%s&page=%d", s.baseURL, url.QueryEscape(query), page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directory page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory page: %w", err)
	}

	slugs := map[string]string{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		slug := slugFromHref(href)
		if slug == "" {
			return
		}
		if _, seen := slugs[slug]; !seen {
			slugs[slug] = strings.TrimSpace(sel.Text())
		}
	})
	return slugs, nil
}

// slugFromHref extracts a board slug from links shaped like /boards/<slug>
// or https://boards.example/<slug>.
func slugFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var slug string
	switch {
	case len(parts) == 2 && parts[0] == "boards":
		slug = parts[1]
	case len(parts) == 1 && u.Host != "" && strings.HasPrefix(u.Host, "boards."):
		slug = parts[0]
	default:
		return ""
	}
	if !slugRe.MatchString(slug) {
		return ""
	}
	return slug
}

// ValidationResult reports a single candidate probe.
type ValidationResult struct {
	CandidateID string `json:"candidate_id"`
	Slug        string `json:"slug"`
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
}

// Validate probes the given candidates against the ATS with bounded
// parallelism and persists each verdict.
func (s *Service) Validate(ctx context.Context, ids []string) ([]ValidationResult, error) {
	candidates, err := s.candidates.ListCandidates(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	results := make([]ValidationResult, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(validateParallelism)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			valid, verr := s.validator.Validate(gctx, c.Slug)

			res := ValidationResult{CandidateID: c.ID, Slug: c.Slug, Valid: valid}
			if verr != nil {
				res.Error = verr.Error()
			}

			status := database.CandidateInvalid
			if valid {
				status = database.CandidateValid
			}
			if err := s.candidates.SetCandidateStatus(c.ID, status); err != nil {
				slog.Warn("Failed to store candidate status", "slug", c.Slug, "error", err)
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AddDiscovered promotes candidates into sources, skipping slugs that are
// already registered. Returns how many were added and skipped.
func (s *Service) AddDiscovered(ids []string) (added, skipped int, err error) {
	candidates, err := s.candidates.ListCandidates(ids)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list candidates: %w", err)
	}

	for _, c := range candidates {
		existing, err := s.sources.GetSourceBySlug(database.SourceTypeATS, c.Slug)
		if err != nil {
			slog.Warn("Failed to check existing source", "slug", c.Slug, "error", err)
			skipped++
			continue
		}
		if existing != nil || c.Status == database.CandidateAdded {
			skipped++
			continue
		}

		name := c.Name
		if name == "" {
			name = c.Slug
		}
		_, err = s.sources.CreateSource(&database.Source{
			Name:        name,
			SourceType:  database.SourceTypeATS,
			CompanySlug: c.Slug,
			Active:      true,
			Tags:        []string{"discovered"},
		})
		if err != nil {
			slog.Warn("Failed to create source from candidate", "slug", c.Slug, "error", err)
			skipped++
			continue
		}

		if err := s.candidates.SetCandidateStatus(c.ID, database.CandidateAdded); err != nil {
			slog.Warn("Failed to store candidate status", "slug", c.Slug, "error", err)
		}
		added++
	}

	slog.Info("Discovered candidates added", "added", added, "skipped", skipped)
	return added, skipped, nil
}

