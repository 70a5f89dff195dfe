package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jobsift/jobsift/app/database"
)

const (
	defaultActorID   = "job-posts-scraper"
	actorPollBackoff = 5 * time.Second
	actorMaxPolls    = 60
)

// SocialAdapter invokes an external scraping actor, polls the run until it
// finishes, fetches the resulting dataset and maps each raw post through
// best-effort text extraction. A malformed item never aborts the batch.
type SocialAdapter struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewSocialAdapter(baseURL, token string, httpClient *http.Client, userAgent string, timeout time.Duration) *SocialAdapter {
	return &SocialAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

type actorRunInput struct {
	Keywords   []string `json:"keywords"`
	MaxResults int      `json:"maxResults"`
	MaxAgeDays int      `json:"maxAgeDays"`
}

type actorRunResponse struct {
	Data actorRun `json:"data"`
}

type actorRun struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type actorPost struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	URL      string `json:"url"`
	Author   string `json:"author"`
	PostedAt string `json:"postedAt"`
}

// Fetch runs the actor configured for the source and maps its dataset.
func (a *SocialAdapter) Fetch(ctx context.Context, source *database.Source) ([]RawPosting, error) {
	if a.token == "" {
		return nil, fmt.Errorf("social adapter disabled: no actor token configured")
	}

	cfg := source.RunConfig.Social
	if cfg == nil || len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("social source %s has no keywords configured", source.ID)
	}

	input := actorRunInput{
		Keywords:   cfg.Keywords,
		MaxResults: cfg.MaxResults,
		MaxAgeDays: cfg.RecencyDays,
	}
	if input.MaxResults <= 0 {
		input.MaxResults = 100
	}
	if input.MaxAgeDays <= 0 {
		input.MaxAgeDays = 14
	}

	actorID := defaultActorID
	if source.EndpointOverride != "" {
		actorID = source.EndpointOverride
	}

	run, err := a.startRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	run, err = a.waitForRun(ctx, run)
	if err != nil {
		return nil, err
	}

	posts, err := a.fetchDataset(ctx, run.DefaultDatasetID)
	if err != nil {
		return nil, err
	}

	postings := make([]RawPosting, 0, len(posts))
	for _, post := range posts {
		postings = append(postings, mapSocialPost(post))
	}

	slog.Debug("Actor run mapped", "actor", actorID, "posts", len(posts))
	return postings, nil
}

func (a *SocialAdapter) startRun(ctx context.Context, actorID string, input actorRunInput) (*actorRun, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actor input: %w", err)
	}

	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", a.baseURL, actorID, a.token)
	var resp actorRunResponse
	if err := a.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, upstreamErr("actor %s run response missing run id", actorID)
	}
	return &resp.Data, nil
}

// waitForRun polls the actor run with a fixed backoff until it reaches a
// terminal status or the context is cancelled.
func (a *SocialAdapter) waitForRun(ctx context.Context, run *actorRun) (*actorRun, error) {
	for i := 0; i < actorMaxPolls; i++ {
		switch run.Status {
		case "SUCCEEDED":
			return run, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return nil, upstreamErr("actor run %s finished with status %s", run.ID, run.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(actorPollBackoff):
		}

		url := fmt.Sprintf("%s/actor-runs/%s?token=%s", a.baseURL, run.ID, a.token)
		var resp actorRunResponse
		if err := a.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
			return nil, err
		}
		run = &resp.Data
	}
	return nil, upstreamErr("actor run %s did not finish in time", run.ID)
}

func (a *SocialAdapter) fetchDataset(ctx context.Context, datasetID string) ([]actorPost, error) {
	if datasetID == "" {
		return nil, upstreamErr("actor run produced no dataset")
	}

	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", a.baseURL, datasetID, a.token)
	var posts []actorPost
	if err := a.doJSON(ctx, http.MethodGet, url, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (a *SocialAdapter) doJSON(ctx context.Context, method, url string, body []byte, out interface{}) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(timeoutCtx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return upstreamErr("actor request failed (%v)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamErr("actor returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return upstreamErr("failed to read actor response (%v)", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return upstreamErr("actor returned malformed payload (%v)", err)
	}
	return nil
}

// mapSocialPost turns one raw post into a RawPosting via text extraction.
// Extraction is best effort: missing fields stay empty; only a post with no
// usable text at all is marked as a parse error.
func mapSocialPost(post actorPost) RawPosting {
	text := strings.TrimSpace(post.Text)
	if text == "" {
		return RawPosting{
			ExternalID: post.ID,
			ParseError: "post has no text content",
		}
	}

	extracted := ExtractPosting(text)

	p := RawPosting{
		ExternalID:     post.ID,
		Title:          extracted.Title,
		CompanyName:    extracted.CompanyName,
		Description:    text,
		Location:       extracted.Location,
		LocationType:   extracted.LocationType,
		Level:          extracted.Level,
		ApplyURL:       post.URL,
		ApplyEmail:     extracted.ApplyEmail,
		SalaryMin:      extracted.SalaryMin,
		SalaryMax:      extracted.SalaryMax,
		SalaryCurrency: extracted.SalaryCurrency,
		SalaryPeriod:   extracted.SalaryPeriod,
	}
	if extracted.ApplyURL != "" {
		p.ApplyURL = extracted.ApplyURL
	}

	if t, err := time.Parse(time.RFC3339, post.PostedAt); err == nil {
		p.PostedAt = t.UTC()
	} else {
		p.PostedAt = time.Now().UTC()
	}

	if p.Title == "" && p.CompanyName == "" && post.Author != "" {
		p.CompanyName = post.Author
	}

	return p
}
