package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/voice-studio/internal/common"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// ErrShutdown is the cause recorded for jobs dropped by Shutdown before they started.
var ErrShutdown = errors.New("processing interrupted by shutdown")

// ProcessorQueue runs jobs on a fixed pool of in-process workers. Workers run
// under a base context that Shutdown cancels once its grace period is over.
type ProcessorQueue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	settle  time.Duration

	base   context.Context
	cancel context.CancelFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds each run. Zero leaves runs without a deadline.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithSettleTimeout is how long Shutdown waits for cancelled runs to record
// their outcome.
func WithSettleTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.settle = d
		}
	}
}

func NewProcessorQueue(runner Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	q := &ProcessorQueue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		settle:  15 * time.Second,
		ch:      make(chan Job, 128),
	}
	for _, o := range opts {
		o(q)
	}
	q.base, q.cancel = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	ctx := common.WithJobID(q.base, job.JobID)
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}
	if q.base.Err() != nil {
		q.abandon(ctx, workerID, job)
		return
	}
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := q.runner.Run(ctx, job.JobID); err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
		return
	}
	q.logger.Info("queue.job.done", "worker_id", workerID, "job_id", job.JobID,
		"elapsed_ms", time.Since(start).Milliseconds())
}

// abandon records jobs still buffered when Shutdown cancelled the workers.
func (q *ProcessorQueue) abandon(ctx context.Context, workerID int, job Job) {
	q.logger.Warn("queue.job.abandoned", "worker_id", workerID, "job_id", job.JobID)
	a, ok := q.runner.(Abandoner)
	if !ok {
		return
	}
	if err := a.Abandon(ctx, job.JobID, ErrShutdown); err != nil {
		q.logger.Error("queue.job.abandon_failed", "job_id", job.JobID, "error", err)
	}
}

// Enqueue hands the job to a worker, blocking while the buffer is full.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "job_id", job.JobID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueued", "job_id", job.JobID)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "job_id", job.JobID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	defer q.cancel()
	select {
	case <-done:
		q.logger.Info("queue.shutdown.drained")
		return
	case <-ctx.Done():
	}

	q.logger.Warn("queue.shutdown.cancelling")
	q.cancel()
	select {
	case <-done:
		q.logger.Info("queue.shutdown.cancelled")
	case <-time.After(q.settle):
		q.logger.Warn("queue.shutdown.interrupted")
	}
}
