package api

import (
	"context"

	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/discovery"
	"github.com/jobsift/jobsift/app/importer"
	"github.com/jobsift/jobsift/app/registry"
	"github.com/jobsift/jobsift/app/tasks"
)

type RunnerInterface interface {
	RunSource(ctx context.Context, sourceID string) (importer.Stats, error)
}

var _ RunnerInterface = (*tasks.Runner)(nil)

type SchedulerInterface interface {
	EnqueueAllActive() (int, error)
	ResetStuck() (int, error)
}

var _ SchedulerInterface = (*tasks.Scheduler)(nil)

type Handler struct {
	sources   *database.SourceRepository
	tasks     *database.TaskRepository
	jobs      *database.JobRepository
	audit     *database.AuditRepository
	runner    RunnerInterface
	scheduler SchedulerInterface
	scorer    *registry.Scorer
	bulk      *registry.Service
	runAll    *registry.RunAllService
	discovery *discovery.Service
}
