package service

import (
	"context"

	id "formflow/pkg/domain"
)

//go:generate mockgen -source=scheduler.go -destination=mocks/scheduler_mock.go -package=mocks Scheduler

// Scheduler hands background work to the task queue.
type Scheduler interface {
	SchedulePrefill(ctx context.Context, submissionID id.SubmissionID, initialData map[string]any) error
	ScheduleRegistration(ctx context.Context, submissionID id.SubmissionID) error
}
