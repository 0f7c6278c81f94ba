package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/bookkeeping/internal/posting"
)

type postJob struct {
	ReimbursementID string
}

type postResult struct {
	ReimbursementID string
	Outcome         posting.Outcome
	Err             error
}

type worker struct {
	ID         int
	WorkerPool chan chan postJob
	JobChannel chan postJob
	Logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan postJob, logger *slog.Logger) *worker {
	return &worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan postJob),
		Logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(postJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing reimbursement", "worker_id", w.ID, "reimbursement_id", job.ReimbursementID)
				process(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// pool fans ids out to a fixed number of workers and collects exactly one result per id.
type pool struct {
	maxWorkers int
	logger     *slog.Logger
}

func newPool(maxWorkers int, logger *slog.Logger) *pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &pool{maxWorkers: maxWorkers, logger: logger}
}

func (p *pool) run(ctx context.Context, ids []string, handle func(ctx context.Context, id string) postResult) []postResult {
	if len(ids) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := p.maxWorkers
	if workers > len(ids) {
		workers = len(ids)
	}

	var wg sync.WaitGroup
	workerPool := make(chan chan postJob, workers)
	results := make(chan postResult, len(ids))

	for i := 0; i < workers; i++ {
		newWorker(i, workerPool, p.logger).start(runCtx, &wg, func(job postJob) {
			results <- handle(ctx, job.ReimbursementID)
		})
	}

	dispatched := 0
dispatch:
	for _, id := range ids {
		select {
		case jobChannel := <-workerPool:
			select {
			case jobChannel <- postJob{ReimbursementID: id}:
				dispatched++
			case <-ctx.Done():
				break dispatch
			}
		case <-ctx.Done():
			break dispatch
		}
	}

	collected := make([]postResult, 0, len(ids))
	for i := 0; i < dispatched; i++ {
		collected = append(collected, <-results)
	}

	cancel()
	wg.Wait()

	for _, id := range ids[dispatched:] {
		collected = append(collected, postResult{ReimbursementID: id, Err: ctx.Err()})
	}
	if dispatched < len(ids) {
		p.logger.Warn("reconciliation cancelled before all items were dispatched",
			"dispatched", dispatched,
			"total", len(ids))
	}
	return collected
}
