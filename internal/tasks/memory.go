package tasks

import (
	"context"
	"log/slog"

	taskmetrics "formflow/internal/tasks/metrics"

	"golang.org/x/sync/errgroup"
)

// InProcessQueue runs tasks on a pool of goroutines in this process. Tasks still
// buffered at shutdown are lost; the retry sweep picks up their submissions.
type InProcessQueue struct {
	tasks   chan Task
	workers int
	logger  *slog.Logger
	metrics *taskmetrics.Metrics
}

type QueueOption func(*InProcessQueue)

func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *InProcessQueue) { q.logger = logger }
}

func WithQueueMetrics(m *taskmetrics.Metrics) QueueOption {
	return func(q *InProcessQueue) { q.metrics = m }
}

func NewInProcessQueue(size, workers int, opts ...QueueOption) *InProcessQueue {
	if size <= 0 {
		size = 256
	}
	if workers <= 0 {
		workers = 1
	}
	q := &InProcessQueue{
		tasks:   make(chan Task, size),
		workers: workers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue never blocks: a full buffer returns ErrQueueFull.
func (q *InProcessQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.tasks <- task:
		q.metrics.IncEnqueued(string(task.Kind), "memory")
		return nil
	default:
		return ErrQueueFull
	}
}

// Run executes tasks with the configured number of workers until ctx is cancelled.
func (q *InProcessQueue) Run(ctx context.Context, handler Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for range q.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case task := <-q.tasks:
					// Errors are logged by the handler; a failing task never stops a worker.
					_ = handler.Handle(ctx, task)
				}
			}
		})
	}
	return g.Wait()
}

// Len reports the number of buffered tasks.
func (q *InProcessQueue) Len() int { return len(q.tasks) }
