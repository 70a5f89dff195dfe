package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/app/database"
)

// Scoring constants. The trailing window and thresholds are deliberate
// choices, not inherited values; see DESIGN.md.
const (
	scoringWindow = 14 * 24 * time.Hour

	failingFailureRate  = 0.5
	degradedFailureRate = 0.2

	priorityHealthy  = 100
	priorityUnknown  = 75
	priorityDegraded = 40
	priorityFailing  = 10
)

// Scorer derives each source's quality status and base priority from its
// trailing import log history.
type Scorer struct {
	sources database.SourceStore
	audit   database.AuditStore
}

func NewScorer(sources database.SourceStore, audit database.AuditStore) *Scorer {
	return &Scorer{sources: sources, audit: audit}
}

// RecalculateAllScores aggregates recent import history per source into a
// quality status and priority. It reads a snapshot and writes one row per
// source, so it is idempotent and safe to run next to ongoing imports. A
// failure on one source skips only that source.
func (s *Scorer) RecalculateAllScores(ctx context.Context) (int, error) {
	sources, err := s.sources.ListSources(database.SourceFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list sources: %w", err)
	}

	since := time.Now().UTC().Add(-scoringWindow)
	updated := 0

	for i := range sources {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		src := &sources[i]
		logs, err := s.audit.ListImportLogs(src.ID, since)
		if err != nil {
			slog.Warn("Skipping source in score recalculation", "source", src.Name, "error", err)
			continue
		}

		status, priority := Score(logs)
		if status == src.QualityStatus && priority == src.Priority {
			continue
		}

		if err := s.sources.UpdateQuality(src.ID, status, priority); err != nil {
			slog.Warn("Failed to update source quality", "source", src.Name, "error", err)
			continue
		}
		updated++
	}

	return updated, nil
}

// Score reduces one source's trailing import logs to a quality verdict.
func Score(logs []database.ImportLog) (database.QualityStatus, int) {
	if len(logs) == 0 {
		return database.QualityUnknown, priorityUnknown
	}

	failedRuns := 0
	fetched := 0
	for _, l := range logs {
		if l.Status == "failed" {
			failedRuns++
		}
		fetched += l.Fetched
	}

	failureRate := float64(failedRuns) / float64(len(logs))

	switch {
	case failureRate >= failingFailureRate:
		return database.QualityFailing, priorityFailing
	case failureRate >= degradedFailureRate:
		return database.QualityDegraded, priorityDegraded
	case fetched == 0:
		// Runs succeed but the upstream never yields a posting: worth
		// watching, not worth the healthy fetch budget.
		return database.QualityDegraded, priorityDegraded
	default:
		return database.QualityHealthy, priorityHealthy
	}
}
