package app

import (
	"context"

	"formflow/internal/platform/kafka"
	"formflow/internal/platform/kafka/consumer"
	"formflow/internal/platform/kafka/producer"
	"formflow/internal/tasks"
	taskmetrics "formflow/internal/tasks/metrics"
)

// taskQueue pairs the queue tasks are enqueued on with the loop that executes them.
type taskQueue struct {
	queue tasks.Queue
	run   func(ctx context.Context, handler tasks.Handler) error
}

// openQueue selects Kafka when brokers are configured and the in-process queue
// otherwise.
func (a *App) openQueue(ctx context.Context, m *taskmetrics.Metrics) (taskQueue, error) {
	cfg := a.cfg.Kafka
	if len(cfg.Brokers) == 0 {
		a.logger.Warn("no kafka brokers configured, tasks run in process")
		q := tasks.NewInProcessQueue(a.cfg.Tasks.QueueSize, a.cfg.Tasks.Workers,
			tasks.WithQueueLogger(a.logger),
			tasks.WithQueueMetrics(m),
		)
		return taskQueue{queue: q, run: q.Run}, nil
	}

	prod, err := producer.New(cfg.Brokers, producer.WithLogger(a.logger))
	if err != nil {
		return taskQueue{}, err
	}
	a.closers = append(a.closers, prod.Close)
	a.health["kafka"] = prod.Ping
	if err := kafka.EnsureTopics(ctx, prod.Client(), int32(cfg.Partitions), int16(cfg.ReplicationFactor), cfg.TaskTopic); err != nil {
		return taskQueue{}, err
	}

	run := func(ctx context.Context, handler tasks.Handler) error {
		c, err := consumer.New(cfg.Brokers, cfg.ConsumerGroup, []string{cfg.TaskTopic},
			tasks.NewMessageHandler(handler, a.logger),
			consumer.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.Run(ctx)
	}
	return taskQueue{queue: tasks.NewKafkaQueue(prod, cfg.TaskTopic, m), run: run}, nil
}
