// Package worker bounds the number of analyses running at once.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

var (
	// ErrQueueFull is returned by Do when every worker is busy and the queue
	// has no free slot.
	ErrQueueFull = errors.New("worker: queue full")
	ErrStopped   = errors.New("worker: pool stopped")
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (domain.Report, error)
}

type result struct {
	report domain.Report
	err    error
}

// Job is a queued analysis and the channel its result is delivered on.
type Job struct {
	ctx     context.Context
	Request services.AnalyzeRequest
	done    chan result
}

// Pool manages a fixed set of analysis workers fed by a bounded queue.
type Pool struct {
	analyzer Analyzer
	logger   *slog.Logger
	workers  int
	jobs     chan Job
	wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(analyzer Analyzer, workers int, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{analyzer: analyzer, logger: logger, workers: workers, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(id, job)
			}
		}(i)
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Do queues req without blocking and waits for its result or for ctx to end.
// A full queue returns ErrQueueFull immediately.
func (p *Pool) Do(ctx context.Context, req services.AnalyzeRequest) (domain.Report, error) {
	job := Job{ctx: ctx, Request: req, done: make(chan result, 1)}

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return domain.Report{}, ErrStopped
	}
	select {
	case p.jobs <- job:
	default:
		p.mu.RUnlock()
		p.logger.Warn("dropping analysis job", slog.Int("queue_size", cap(p.jobs)))
		return domain.Report{}, ErrQueueFull
	}
	p.mu.RUnlock()

	select {
	case r := <-job.done:
		return r.report, r.err
	case <-ctx.Done():
		return domain.Report{}, ctx.Err()
	}
}

func (p *Pool) processJob(worker int, job Job) {
	if err := job.ctx.Err(); err != nil {
		job.done <- result{err: err}
		return
	}
	report, err := p.analyzer.Analyze(job.ctx, job.Request)
	if err != nil {
		p.logger.Debug("analysis failed", slog.Int("worker", worker), slog.Any("error", err))
	}
	job.done <- result{report: report, err: err}
}
