package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobsift/jobsift/app/cfg"
	"github.com/jobsift/jobsift/app/database"
)

// Scorer recalculates source quality. Implemented by the registry service;
// declared here so the scheduler does not import it.
type Scorer interface {
	RecalculateAllScores(ctx context.Context) (int, error)
}

// Housekeeper covers the retention chores the daily sweep drives.
type Housekeeper interface {
	PurgeOlderThan(retention time.Duration) (int, error)
}

// OrphanCleaner removes companies left without jobs.
type OrphanCleaner interface {
	DeleteOrphanCompanies() (int, error)
}

// Scheduler drives the periodic sweeps: enqueueing due sources, recovering
// stuck tasks, recalculating quality scores and audit housekeeping. The
// enqueue path is idempotent, so overlapping triggers (cron plus manual)
// are safe.
type Scheduler struct {
	sources database.SourceStore
	tasks   database.TaskStore
	scorer  Scorer
	audit   Housekeeper
	cleaner OrphanCleaner
	cron    *cron.Cron

	stuckTimeout   time.Duration
	auditRetention time.Duration
	sweepInterval  time.Duration
}

func NewScheduler(sources database.SourceStore, tasks database.TaskStore, scorer Scorer, audit Housekeeper, cleaner OrphanCleaner) *Scheduler {
	c := cfg.Get()
	return &Scheduler{
		sources:        sources,
		tasks:          tasks,
		scorer:         scorer,
		audit:          audit,
		cleaner:        cleaner,
		cron:           cron.New(),
		stuckTimeout:   time.Duration(c.StuckTaskTimeout) * time.Minute,
		auditRetention: time.Duration(c.AuditRetentionDays) * 24 * time.Hour,
		sweepInterval:  time.Duration(c.SchedulerInterval) * time.Second,
	}
}

func (s *Scheduler) Start() error {
	sweepSpec := fmt.Sprintf("@every %s", s.sweepInterval)
	if _, err := s.cron.AddFunc(sweepSpec, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("0 3 * * *", s.daily); err != nil {
		return fmt.Errorf("failed to schedule daily housekeeping: %w", err)
	}

	s.cron.Start()
	slog.Info("Scheduler started", "sweep_interval", s.sweepInterval.String())
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep recovers stuck tasks and enqueues every active source that has no
// pending work yet.
func (s *Scheduler) sweep() {
	if reset, err := s.tasks.ResetStuck(s.stuckTimeout); err != nil {
		slog.Error("Stuck task sweep failed", "error", err)
	} else if reset > 0 {
		slog.Warn("Stuck tasks reset", "count", reset)
	}

	created, err := s.EnqueueAllActive()
	if err != nil {
		slog.Error("Enqueue sweep failed", "error", err)
		return
	}
	if created > 0 {
		slog.Info("Sweep enqueued sources", "count", created)
	}
}

// EnqueueAllActive schedules every active source, skipping ones that
// already have a non-terminal task. Also serves the manual trigger.
func (s *Scheduler) EnqueueAllActive() (int, error) {
	sources, err := s.sources.ListSources(database.SourceFilter{ActiveOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to list active sources: %w", err)
	}

	now := time.Now().UTC()
	ids := make([]string, 0, len(sources))
	priorities := make(map[string]int, len(sources))
	for i := range sources {
		ids = append(ids, sources[i].ID)
		priorities[sources[i].ID] = PriorityFor(&sources[i], now)
	}

	return s.tasks.Enqueue(ids, priorities)
}

// ResetStuck exposes the stuck-task recovery for the operator trigger.
func (s *Scheduler) ResetStuck() (int, error) {
	return s.tasks.ResetStuck(s.stuckTimeout)
}

func (s *Scheduler) daily() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if n, err := s.scorer.RecalculateAllScores(ctx); err != nil {
		slog.Error("Daily score recalculation failed", "error", err)
	} else {
		slog.Info("Daily score recalculation done", "sources", n)
	}

	if n, err := s.audit.PurgeOlderThan(s.auditRetention); err != nil {
		slog.Error("Audit purge failed", "error", err)
	} else if n > 0 {
		slog.Info("Audit records purged", "count", n)
	}

	if n, err := s.cleaner.DeleteOrphanCompanies(); err != nil {
		slog.Error("Orphan company cleanup failed", "error", err)
	} else if n > 0 {
		slog.Info("Orphan companies removed", "count", n)
	}
}
