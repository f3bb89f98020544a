package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"formflow/internal/platform/kafka/consumer"
	taskmetrics "formflow/internal/tasks/metrics"
)

// Publisher writes one record to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaQueue publishes tasks to a topic keyed by submission, so every task of one
// submission lands on the same partition and runs in order.
type KafkaQueue struct {
	publisher Publisher
	topic     string
	metrics   *taskmetrics.Metrics
}

func NewKafkaQueue(publisher Publisher, topic string, m *taskmetrics.Metrics) *KafkaQueue {
	return &KafkaQueue{publisher: publisher, topic: topic, metrics: m}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	value, err := task.Encode()
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	headers := map[string]string{"kind": string(task.Kind)}
	if err := q.publisher.Publish(ctx, q.topic, []byte(task.SubmissionID.String()), value, headers); err != nil {
		return err
	}
	q.metrics.IncEnqueued(string(task.Kind), "kafka")
	return nil
}

// MessageHandler decodes consumed records into tasks.
type MessageHandler struct {
	handler Handler
	logger  *slog.Logger
}

func NewMessageHandler(handler Handler, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{handler: handler, logger: logger}
}

// Handle skips malformed records so they do not block the partition.
func (h *MessageHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	task, err := Decode(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "dropping malformed task",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	return h.handler.Handle(ctx, task)
}
