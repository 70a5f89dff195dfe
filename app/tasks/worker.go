package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jobsift/jobsift/app/database"
)

// idleInterval is how long the worker sleeps when the queue is empty.
const idleInterval = 5 * time.Second

// ClaimStore is the slice of the task store the worker needs.
type ClaimStore interface {
	ClaimNext() (*database.ImportTask, error)
}

// Worker is the single logical consumer of the task queue. The atomic
// claim in the task repository is the concurrency boundary, so the loop
// itself stays sequential.
type Worker struct {
	runner *Runner
	claims ClaimStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(runner *Runner, claims ClaimStore) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		runner: runner,
		claims: claims,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		task, err := w.claims.ClaimNext()
		if err != nil {
			slog.Error("Failed to claim task", "error", err)
			w.sleep()
			continue
		}
		if task == nil {
			w.sleep()
			continue
		}

		slog.Debug("Task claimed", "task", task.ID, "source", task.SourceID)
		w.runner.ExecuteTask(w.ctx, task)
	}
}

func (w *Worker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(idleInterval):
	}
}
