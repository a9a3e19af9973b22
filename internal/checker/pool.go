package checker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"isitdown/internal/models"
)

// TargetChecker runs the full check for one raw target.
type TargetChecker interface {
	Check(ctx context.Context, raw models.RawTarget) models.PipelineResult
}

type job struct {
	index  int
	target models.RawTarget
}

// BatchResult pairs a result with the position of its target in the batch.
type BatchResult struct {
	Index  int
	Result models.PipelineResult
}

// WorkerPool checks a batch of targets with a fixed number of goroutines.
// Each target is still checked independently of the others.
type WorkerPool struct {
	checker  TargetChecker
	jobs     chan job
	results  chan BatchResult
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewWorkerPool creates a new worker pool and starts its workers.
func NewWorkerPool(ctx context.Context, checker TargetChecker, workers int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool{
		checker: checker,
		jobs:    make(chan job, workers*2),
		results: make(chan BatchResult, workers*2),
		logger:  logger.With().Str("component", "worker_pool").Logger(),
	}

	pool.startWorkers(ctx, workers)
	return pool
}

// startWorkers launches the worker goroutines.
func (p *WorkerPool) startWorkers(ctx context.Context, count int) {
	p.wg.Add(count)
	for i := 0; i < count; i++ {
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.results <- BatchResult{Index: j.index, Result: p.checker.Check(ctx, j.target)}
			}
		}()
	}
}

// Submit queues a target. It blocks while the queue is full; nothing is
// dropped.
func (p *WorkerPool) Submit(index int, target models.RawTarget) {
	p.jobs <- job{index: index, target: target}
}

// Results returns the channel results are delivered on, in completion order.
// It is closed after Stop once every worker has finished.
func (p *WorkerPool) Results() <-chan BatchResult {
	return p.results
}

// Stop closes the queue and waits for in-flight checks to finish.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		close(p.results)
	})
}

// CheckAll checks every target and returns the results in input order.
func CheckAll(ctx context.Context, checker TargetChecker, targets []models.RawTarget, workers int, logger zerolog.Logger) []models.PipelineResult {
	pool := NewWorkerPool(ctx, checker, workers, logger)

	go func() {
		for i, t := range targets {
			pool.Submit(i, t)
		}
		pool.Stop()
	}()

	out := make([]models.PipelineResult, len(targets))
	for r := range pool.Results() {
		out[r.Index] = r.Result
	}
	pool.logger.Info().Int("targets", len(targets)).Msg("batch finished")
	return out
}
