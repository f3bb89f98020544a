package registrations

import (
	"context"

	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/requestcontext"
)

// RetryReport summarises one retry sweep.
type RetryReport struct {
	Picked  int
	Retried int
	Failed  int
}

// Retry re-runs pre-registration and registration for one submission as an explicit
// retry. Failures are returned.
func (s *Service) Retry(ctx context.Context, submissionID id.SubmissionID) error {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	if !sub.PreRegistrationCompleted {
		if err := s.PreRegister(ctx, sub.ID, EventOnRetry); err != nil {
			return err
		}
	}
	return s.Register(ctx, sub.ID, EventOnRetry)
}

// RetryFailed sweeps completed submissions that still have attempts left and either
// failed, never left pending because their task chain was lost, or stayed in progress
// longer than the registration lock lives. One submission's failure does not stop the
// sweep; failures stay recorded on the submissions themselves.
func (s *Service) RetryFailed(ctx context.Context) (RetryReport, error) {
	var report RetryReport
	subs, err := s.store.ListRetryable(ctx, models.RetrySelection{
		AttemptLimit:   s.policy.AttemptLimit,
		StaleBefore:    requestcontext.Now(ctx).Add(-s.policy.LockTTL),
		WaitForPayment: s.policy.WaitForPaymentToRegister,
	})
	if err != nil {
		return report, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list retryable submissions")
	}
	report.Picked = len(subs)
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.Retry(ctx, sub.ID); err != nil {
			report.Failed++
			s.metrics.IncRetrySweep("failure")
			s.logger.WarnContext(ctx, "registrations.retry_failed",
				"submission_id", sub.ID.String(), "error", err)
			continue
		}
		report.Retried++
		s.metrics.IncRetrySweep("success")
	}
	s.logger.InfoContext(ctx, "registrations.retry_sweep_done",
		"picked", report.Picked, "retried", report.Retried, "failed", report.Failed)
	return report, nil
}
