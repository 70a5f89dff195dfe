package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/importer"
)

// stalenessCapHours bounds the recency contribution to task priority so a
// never-fetched source does not dominate forever.
const stalenessCapHours = 720

// Runner executes one source's import: adapter fetch, import engine run,
// source bookkeeping. It is used by the queue worker, by run-all and by ad
// hoc single-source runs.
type Runner struct {
	adapters *adapter.Registry
	engine   *importer.Engine
	sources  database.SourceStore
	tasks    database.TaskStore
}

func NewRunner(adapters *adapter.Registry, engine *importer.Engine, sources database.SourceStore, tasks database.TaskStore) *Runner {
	return &Runner{
		adapters: adapters,
		engine:   engine,
		sources:  sources,
		tasks:    tasks,
	}
}

// ExecuteTask runs a claimed task to a terminal state. The task is always
// completed or failed before returning.
func (r *Runner) ExecuteTask(ctx context.Context, task *database.ImportTask) {
	source, err := r.sources.GetSource(task.SourceID)
	if err != nil || source == nil {
		if err == nil {
			err = fmt.Errorf("source %s not found", task.SourceID)
		}
		r.failTask(task.ID, err)
		return
	}

	stats, err := r.runSource(ctx, source, task.ID)
	if err != nil {
		r.failTask(task.ID, err)
		return
	}

	if err := r.tasks.Complete(task.ID, stats.Fetched, stats.Created+stats.Skipped+stats.Failed); err != nil {
		slog.Error("Failed to complete task", "task", task.ID, "error", err)
	}
}

// RunSource performs an ad hoc import outside the queue. The audit trail is
// still written; only the ImportTask bookkeeping is skipped.
func (r *Runner) RunSource(ctx context.Context, sourceID string) (importer.Stats, error) {
	source, err := r.sources.GetSource(sourceID)
	if err != nil {
		return importer.Stats{}, err
	}
	if source == nil {
		return importer.Stats{}, fmt.Errorf("source %s not found", sourceID)
	}
	return r.runSource(ctx, source, "")
}

func (r *Runner) runSource(ctx context.Context, source *database.Source, taskID string) (importer.Stats, error) {
	a, err := r.adapters.For(source.SourceType)
	if err != nil {
		return importer.Stats{}, err
	}

	postings, err := a.Fetch(ctx, source)
	if err != nil {
		// A failed fetch still leaves an import log so the quality
		// scorer sees the failure.
		if logErr := r.engine.RunFailed(source, taskID, err); logErr != nil {
			slog.Error("Failed to record failed run", "source", source.Name, "error", logErr)
		}
		return importer.Stats{}, fmt.Errorf("fetch failed for source %s: %w", source.Name, err)
	}

	if taskID != "" {
		if err := r.tasks.UpdateProgress(taskID, len(postings), 0); err != nil {
			slog.Warn("Failed to update task progress", "task", taskID, "error", err)
		}
	}

	stats, err := r.engine.Run(ctx, source, taskID, postings)
	if err != nil {
		return stats, err
	}

	if err := r.sources.MarkFetched(source.ID, time.Now().UTC()); err != nil {
		slog.Error("Failed to stamp source fetch time", "source", source.Name, "error", err)
	}

	return stats, nil
}

func (r *Runner) failTask(taskID string, cause error) {
	slog.Error("Task failed", "task", taskID, "error", cause)
	if err := r.tasks.Fail(taskID, cause.Error()); err != nil {
		slog.Error("Failed to mark task failed", "task", taskID, "error", err)
	}
}

// PriorityFor derives a task priority from how stale the source is plus
// the source's scorer-assigned base priority. Higher staleness wins so
// rarely updated sources are not starved.
func PriorityFor(source *database.Source, now time.Time) int {
	staleness := stalenessCapHours
	if source.LastFetchedAt != nil {
		hours := int(now.Sub(*source.LastFetchedAt).Hours())
		if hours < 0 {
			hours = 0
		}
		if hours < stalenessCapHours {
			staleness = hours
		}
	}
	return source.Priority + staleness
}
