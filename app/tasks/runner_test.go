package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/importer"
	"github.com/jobsift/jobsift/app/policy"
	"github.com/jobsift/jobsift/app/registry"
)

type fakeAdapter struct {
	postings []adapter.RawPosting
	err      error
}

func (f *fakeAdapter) Fetch(ctx context.Context, source *database.Source) ([]adapter.RawPosting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

type pipelineEnv struct {
	db      *database.DB
	sources *database.SourceRepository
	tasks   *database.TaskRepository
	jobs    *database.JobRepository
	audit   *database.AuditRepository
	runner  *Runner
	source  *database.Source
	fake    *fakeAdapter
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sources := database.NewSourceRepository(db)
	taskRepo := database.NewTaskRepository(db)
	jobs := database.NewJobRepository(db)
	audit := database.NewAuditRepository(db)

	id, err := sources.CreateSource(&database.Source{
		Name:        "Acme Board",
		SourceType:  database.SourceTypeATS,
		CompanySlug: "acme",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	source, err := sources.GetSource(id)
	if err != nil || source == nil {
		t.Fatalf("Failed to read back source: %v", err)
	}

	fake := &fakeAdapter{}
	adapters := adapter.NewRegistry()
	adapters.Register(database.SourceTypeATS, fake)

	engine := importer.NewEngine(jobs, audit, policy.Defaults())

	return &pipelineEnv{
		db:      db,
		sources: sources,
		tasks:   taskRepo,
		jobs:    jobs,
		audit:   audit,
		runner:  NewRunner(adapters, engine, sources, taskRepo),
		source:  source,
		fake:    fake,
	}
}

func pipelinePosting(externalID, title string) adapter.RawPosting {
	return adapter.RawPosting{
		ExternalID:  externalID,
		Title:       title,
		CompanyName: "Acme Inc",
		CompanySlug: "acme",
		Description: "Work on things.",
		Location:    "Remote, US",
	}
}

// Full pipeline pass: enqueue, claim, execute, then score the source.
func TestRunner_ExecuteTask_FullPipeline(t *testing.T) {
	env := newPipelineEnv(t)

	env.fake.postings = []adapter.RawPosting{
		pipelinePosting("1", "Senior Backend Engineer"),
		pipelinePosting("2", "Product Designer"),
		pipelinePosting("1", "Senior Backend Engineer"), // duplicate
	}

	created, err := env.tasks.Enqueue([]string{env.source.ID}, nil)
	if err != nil || created != 1 {
		t.Fatalf("Enqueue failed: created=%d err=%v", created, err)
	}

	task, err := env.tasks.ClaimNext()
	if err != nil || task == nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}

	env.runner.ExecuteTask(context.Background(), task)

	done, err := env.tasks.GetTask(task.ID)
	if err != nil || done == nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if done.Status != database.TaskCompleted {
		t.Errorf("Expected COMPLETED task, got %s (%s)", done.Status, done.Error)
	}
	if done.TotalItems != 3 || done.ProcessedItems != 3 {
		t.Errorf("Expected 3/3 items, got %d/%d", done.TotalItems, done.ProcessedItems)
	}

	count, err := env.jobs.GetJobCount()
	if err != nil {
		t.Fatalf("GetJobCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 jobs from 3 postings with 1 duplicate, got %d", count)
	}

	src, err := env.sources.GetSource(env.source.ID)
	if err != nil || src == nil {
		t.Fatalf("GetSource failed: %v", err)
	}
	if src.LastFetchedAt == nil {
		t.Error("Expected last_fetched_at stamped after the run")
	}

	// The recorded log makes the source healthy on the next scoring pass.
	scorer := registry.NewScorer(env.sources, env.audit)
	if _, err := scorer.RecalculateAllScores(context.Background()); err != nil {
		t.Fatalf("RecalculateAllScores failed: %v", err)
	}
	src, _ = env.sources.GetSource(env.source.ID)
	if src.QualityStatus != database.QualityHealthy {
		t.Errorf("Expected healthy source after a good run, got %s", src.QualityStatus)
	}
}

func TestRunner_ExecuteTask_FetchFailureFailsTask(t *testing.T) {
	env := newPipelineEnv(t)
	env.fake.err = adapter.ErrUpstreamUnavailable

	if _, err := env.tasks.Enqueue([]string{env.source.ID}, nil); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	task, err := env.tasks.ClaimNext()
	if err != nil || task == nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}

	env.runner.ExecuteTask(context.Background(), task)

	done, err := env.tasks.GetTask(task.ID)
	if err != nil || done == nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if done.Status != database.TaskFailed {
		t.Errorf("Expected FAILED task, got %s", done.Status)
	}
	if done.Error == "" {
		t.Error("Expected failure reason on the task")
	}

	// The failed fetch still left an import log for the scorer.
	logs, err := env.audit.ListImportLogs(env.source.ID, time.Now().Add(-time.Hour))
	if err != nil || len(logs) != 1 {
		t.Fatalf("Expected 1 import log, got %d (%v)", len(logs), err)
	}
	if logs[0].Status != "failed" {
		t.Errorf("Expected failed import log, got %s", logs[0].Status)
	}
}

func TestRunner_RunSource_AdHoc(t *testing.T) {
	env := newPipelineEnv(t)
	env.fake.postings = []adapter.RawPosting{pipelinePosting("1", "Backend Engineer")}

	stats, err := env.runner.RunSource(context.Background(), env.source.ID)
	if err != nil {
		t.Fatalf("RunSource failed: %v", err)
	}
	if stats.Created != 1 {
		t.Errorf("Expected 1 created, got %+v", stats)
	}

	if _, err := env.runner.RunSource(context.Background(), "missing-id"); err == nil {
		t.Error("Expected unknown source to fail")
	}
}

func TestRunner_RunSource_WrapsUpstreamError(t *testing.T) {
	env := newPipelineEnv(t)
	env.fake.err = adapter.ErrUpstreamUnavailable

	_, err := env.runner.RunSource(context.Background(), env.source.ID)
	if !errors.Is(err, adapter.ErrUpstreamUnavailable) {
		t.Errorf("Expected wrapped upstream error, got %v", err)
	}
}

func TestPriorityFor(t *testing.T) {
	now := time.Now().UTC()
	hoursAgo := func(h int) *time.Time {
		ts := now.Add(-time.Duration(h) * time.Hour)
		return &ts
	}

	tests := []struct {
		name     string
		source   database.Source
		expected int
	}{
		{"never fetched gets the cap", database.Source{Priority: 100}, 100 + 720},
		{"fetched an hour ago", database.Source{Priority: 100, LastFetchedAt: hoursAgo(1)}, 101},
		{"staleness is capped", database.Source{Priority: 40, LastFetchedAt: hoursAgo(2000)}, 40 + 720},
		{"failing source stays low", database.Source{Priority: 10, LastFetchedAt: hoursAgo(3)}, 13},
	}

	for _, tt := range tests {
		if got := PriorityFor(&tt.source, now); got != tt.expected {
			t.Errorf("%s: PriorityFor = %d, expected %d", tt.name, got, tt.expected)
		}
	}
}
