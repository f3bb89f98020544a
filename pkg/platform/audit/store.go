package audit

import (
	"context"

	id "formflow/pkg/domain"
)

// Store persists submission log events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubmission(ctx context.Context, submissionID id.SubmissionID) ([]Event, error)
}
