package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/importer"
)

// ErrNoSourcesMatch is returned by Start when the filter selects no active
// sources. It is an operator input problem, not an infrastructure one.
var ErrNoSourcesMatch = fmt.Errorf("no active sources match the filter")

// SourceRunner executes a full fetch-and-import cycle for one source.
type SourceRunner interface {
	RunSource(ctx context.Context, sourceID string) (importer.Stats, error)
}

// RunAllService drives an import across every source matching a filter,
// one source at a time. Progress and the cancel flag live in the
// pipeline_runs table so the run can be observed and stopped from any
// process holding the database.
type RunAllService struct {
	sources database.SourceStore
	runs    database.RunStore
	runner  SourceRunner
	limiter *rate.Limiter
}

func NewRunAllService(sources database.SourceStore, runs database.RunStore, runner SourceRunner, interSourceDelay time.Duration) *RunAllService {
	if interSourceDelay <= 0 {
		interSourceDelay = time.Second
	}
	return &RunAllService{
		sources: sources,
		runs:    runs,
		runner:  runner,
		limiter: rate.NewLimiter(rate.Every(interSourceDelay), 1),
	}
}

// Start launches a run over the filtered sources in the background. It
// returns database.ErrRunActive when another run-all is in flight.
func (s *RunAllService) Start(filter database.SourceFilter) (string, error) {
	filter.ActiveOnly = true
	sources, err := s.sources.ListSources(filter)
	if err != nil {
		return "", fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		return "", ErrNoSourcesMatch
	}

	runID, err := s.runs.StartRun(database.RunKindRunAll, "")
	if err != nil {
		return "", err
	}

	go s.execute(runID, sources)

	slog.Info("Run-all started", "run", runID, "sources", len(sources))
	return runID, nil
}

// Cancel flips the stored cancel flag on the active run-all. The in-flight
// source finishes before the run stops.
func (s *RunAllService) Cancel() (bool, error) {
	return s.runs.RequestCancel(database.RunKindRunAll)
}

// Progress returns the most recent run-all record.
func (s *RunAllService) Progress() (*database.PipelineRun, error) {
	return s.runs.GetLatestRun(database.RunKindRunAll)
}

func (s *RunAllService) execute(runID string, sources []database.Source) {
	ctx := context.Background()
	processed := 0

	for i, src := range sources {
		cancelled, err := s.runs.IsCancelRequested(runID)
		if err != nil {
			slog.Error("Failed to read run cancel flag", "run", runID, "error", err)
		}
		if cancelled {
			slog.Info("Run-all cancelled", "run", runID, "processed", processed)
			s.finish(runID, database.RunDone, "cancelled")
			return
		}

		if i > 0 {
			if err := s.limiter.Wait(ctx); err != nil {
				s.finish(runID, database.RunError, err.Error())
				return
			}
		}

		stats, err := s.runner.RunSource(ctx, src.ID)
		if err != nil {
			slog.Warn("Run-all source failed", "source", src.Name, "error", err)
		} else {
			slog.Info("Run-all source finished", "source", src.Name,
				"fetched", stats.Fetched, "created", stats.Created)
		}
		processed++

		if err := s.runs.UpdateProgress(runID, 0, len(sources), processed); err != nil {
			slog.Error("Failed to update run progress", "run", runID, "error", err)
		}
	}

	s.finish(runID, database.RunDone, "")
	slog.Info("Run-all finished", "run", runID, "processed", processed)
}

func (s *RunAllService) finish(runID string, status database.RunStatus, errText string) {
	if err := s.runs.FinishRun(runID, status, errText); err != nil {
		slog.Error("Failed to finish run", "run", runID, "error", err)
	}
}
