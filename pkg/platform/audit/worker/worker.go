package worker

import (
	"context"
	"log/slog"

	audit "formflow/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed append is
// logged and the worker moves on; log events never block a registration.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist submission log event",
					"action", event.Action,
					"submission_id", event.SubmissionID,
					"error", err,
				)
			}
		}
	}
}
