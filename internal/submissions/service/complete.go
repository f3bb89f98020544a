package service

import (
	"context"

	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"
	"formflow/pkg/requestcontext"
)

// Complete marks the submission completed and schedules its registration chain.
// Steps the logic rules made not applicable need not be submitted. A scheduling
// failure is logged, not returned: the retry sweep picks the submission up once its
// completion is older than the registration lock.
func (s *Service) Complete(ctx context.Context, submissionID id.SubmissionID) error {
	sub, form, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.IsCompleted() {
		return dErrors.New(dErrors.CodeConflict, "submission is already completed")
	}
	applicable, err := s.applicability(ctx, sub, form)
	if err != nil {
		return err
	}
	if !sub.CanComplete(form, applicable) {
		return dErrors.New(dErrors.CodeValidation, "not every step has been submitted")
	}

	sub.ApplyCompleted(requestcontext.Now(ctx))
	if err := s.store.Update(ctx, sub); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete submission")
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventSubmissionCompleted)

	if err := s.scheduler.ScheduleRegistration(ctx, sub.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to schedule registration",
			"submission_id", sub.ID.String(),
			"error", err,
		)
	}
	return nil
}
