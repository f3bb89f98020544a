package tasks

import (
	"context"

	"formflow/internal/registrations"
	id "formflow/pkg/domain"
	"formflow/pkg/requestcontext"
)

// Scheduler turns submission lifecycle moments into tasks.
type Scheduler struct {
	queue Queue
}

func NewScheduler(queue Queue) *Scheduler {
	return &Scheduler{queue: queue}
}

func (s *Scheduler) SchedulePrefill(ctx context.Context, submissionID id.SubmissionID, initialData map[string]any) error {
	return s.queue.Enqueue(ctx, Task{
		Kind:         KindPrefill,
		SubmissionID: submissionID,
		InitialData:  initialData,
		RequestID:    requestcontext.RequestID(ctx),
	})
}

// ScheduleRegistration starts the registration chain of a completed submission.
func (s *Scheduler) ScheduleRegistration(ctx context.Context, submissionID id.SubmissionID) error {
	return s.ScheduleEvent(ctx, submissionID, registrations.EventOnCompletion)
}

// ScheduleEvent starts the registration chain for a payment or cosign event.
func (s *Scheduler) ScheduleEvent(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error {
	return s.queue.Enqueue(ctx, Task{
		Kind:         KindPreRegistration,
		SubmissionID: submissionID,
		Event:        event,
		RequestID:    requestcontext.RequestID(ctx),
	})
}
