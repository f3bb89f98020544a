package registrations

import (
	"context"
	"fmt"
	"time"

	regmetrics "formflow/internal/registrations/metrics"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/audit"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UpdateWithConfirmationEmail lets the backend know the confirmation email went out.
// Plugin failures are recorded in the registration result and never change the
// registration status; only storage errors are returned.
func (s *Service) UpdateWithConfirmationEmail(ctx context.Context, submissionID id.SubmissionID) error {
	ctx, span := s.tracer.Start(ctx, "registration.confirmation_email", trace.WithAttributes(
		attribute.String("submission_id", submissionID.String()),
	))
	defer span.End()

	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	log := s.logger.With("action", "registrations.update_registration_with_confirmation_email",
		"submission_id", sub.ID.String())

	if sub.RegistrationStatus != models.RegistrationSuccess {
		log.InfoContext(ctx, "update_registration_with_confirmation_email_aborted",
			"reason", ReasonNotRegistered)
		s.metrics.IncAborted(regmetrics.StageConfirmationEmail, ReasonNotRegistered)
		return nil
	}

	plugin, err := s.resolvePlugin(sub)
	if err != nil {
		log.WarnContext(ctx, "update_registration_with_confirmation_email_failed", "error", err)
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateError,
			"plugin", sub.RegistrationBackend.Plugin, "error", err)
		s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, sub.RegistrationBackend.Plugin, regmetrics.OutcomeFailure)
		return nil
	}
	if plugin == nil {
		log.InfoContext(ctx, "update_registration_with_confirmation_email_completed",
			"reason", "no_plugin_is_configured")
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateSkip)
		s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, "", regmetrics.OutcomeSkipped)
		return nil
	}
	pluginID := plugin.Identifier()
	log = log.With("plugin", pluginID)

	if !plugin.IsEnabled() {
		log.InfoContext(ctx, "update_registration_with_confirmation_email_failed",
			"reason", "plugin_is_disabled")
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateError,
			"plugin", pluginID, "error", ErrPluginDisabled)
		s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, pluginID, regmetrics.OutcomeFailure)
		return nil
	}

	options, err := plugin.DecodeOptions(sub.RegistrationBackend.Options)
	if err != nil {
		cause := fmt.Errorf("%w: %w", ErrOptionsInvalid, err)
		log.WarnContext(ctx, "update_registration_with_confirmation_email_failed",
			"reason", "invalid_options", "error", cause)
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateError,
			"plugin", pluginID, "error", cause)
		s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, pluginID, regmetrics.OutcomeFailure)
		return nil
	}

	start := time.Now()
	result, err := invoke(func() (map[string]any, error) {
		return plugin.UpdateWithConfirmationEmail(ctx, sub, options)
	})
	s.metrics.ObservePluginCall(regmetrics.StageConfirmationEmail, pluginID, time.Since(start))
	if err != nil {
		log.WarnContext(ctx, "update_registration_with_confirmation_email_failed", "error", err)
		sub.MergeResult(map[string]any{models.ResultConfirmationEmailTraceback: traceback(err, true)})
		if err := s.save(ctx, sub); err != nil {
			return err
		}
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateError,
			"plugin", pluginID, "error", err)
		s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, pluginID, regmetrics.OutcomeFailure)
		return nil
	}

	sub.MergeResult(result)
	if err := s.save(ctx, sub); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventConfirmationEmailUpdateOK, "plugin", pluginID)
	s.metrics.ObserveStage(regmetrics.StageConfirmationEmail, pluginID, regmetrics.OutcomeSuccess)
	log.InfoContext(ctx, "done")
	return nil
}
