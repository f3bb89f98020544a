package registrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	regmetrics "formflow/internal/registrations/metrics"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/audit"
	"formflow/pkg/platform/sentinel"
	"formflow/pkg/requestcontext"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func lockKey(submissionID id.SubmissionID) string {
	return "registration:" + submissionID.String()
}

func (s *Service) registrationGate(sub *models.Submission) Decision {
	switch {
	case sub.RegistrationStatus == models.RegistrationSuccess:
		return Abort(ReasonAlreadyRegistered)
	case !sub.IsCompleted():
		return Abort(ReasonNotCompleted)
	case !sub.PreRegistrationCompleted:
		return Abort(ReasonPreRegistrationNeeded)
	case sub.Cosign.Waiting():
		return Abort(ReasonCosignRequired)
	case sub.PaymentPending(s.policy.WaitForPaymentToRegister):
		return Abort(ReasonPaymentNotReceived)
	case sub.AttemptsExhausted(s.policy.AttemptLimit):
		return Abort(ReasonAttemptsLimited)
	}
	return Continue
}

// Register delivers the submission to its backend. At most one Register runs per
// submission; a call that finds the submission's lock taken returns nil without doing
// anything. Failures are stored with a traceback and returned only for EventOnRetry.
func (s *Service) Register(ctx context.Context, submissionID id.SubmissionID, event Event) error {
	ctx, span := s.tracer.Start(ctx, "registration.register", trace.WithAttributes(
		attribute.String("submission_id", submissionID.String()),
		attribute.String("trigger", string(event)),
	))
	defer span.End()

	unlock, err := s.locker.TryAcquire(ctx, lockKey(submissionID), s.policy.LockTTL)
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			s.logger.InfoContext(ctx, "registrations.main_registration.coalesced",
				"submission_id", submissionID.String(), "trigger", string(event),
				"reason", ReasonAlreadyRunning)
			s.metrics.IncCoalesced()
			span.SetAttributes(attribute.Bool("registration.coalesced", true))
			return nil
		}
		return fmt.Errorf("acquire registration lock: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release registration lock",
				"submission_id", submissionID.String(), "error", err)
		}
	}()

	err = s.register(ctx, submissionID, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
	}
	return err
}

func (s *Service) register(ctx context.Context, submissionID id.SubmissionID, event Event) error {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	log := s.logger.With("action", "registrations.main_registration",
		"submission_id", sub.ID.String(), "trigger", string(event),
		"public_reference", sub.PublicRegistrationReference)

	if d := s.registrationGate(sub); d.Aborted() {
		s.logAbort(ctx, log, sub, d)
		s.metrics.IncAborted(regmetrics.StageRegistration, d.Reason)
		return nil
	}

	log.InfoContext(ctx, "registration_start")
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationStart,
		"attempt", sub.RegistrationAttempts+1)
	sub.ApplyRegistrationStart(requestcontext.Now(ctx))
	if err := s.save(ctx, sub); err != nil {
		return err
	}

	if !sub.RegistrationBackend.Configured() {
		log.InfoContext(ctx, "registration_completed", "reason", "no_registration_plugin_configured")
		sub.ApplyRegistrationStatus(models.RegistrationSuccess, nil, false)
		if err := s.save(ctx, sub); err != nil {
			return err
		}
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationSkip)
		s.metrics.ObserveStage(regmetrics.StageRegistration, "", regmetrics.OutcomeSkipped)
		return nil
	}

	pluginID := sub.RegistrationBackend.Plugin
	log = log.With("plugin", pluginID)
	log.DebugContext(ctx, "resolve_plugin")
	plugin, err := s.plugins.Get(pluginID)
	if err != nil {
		log.ErrorContext(ctx, "registration_failure", "error", err)
		return s.recordFailure(ctx, sub, event, pluginID, err, traceback(err, true))
	}

	if !plugin.IsEnabled() {
		log.InfoContext(ctx, "registration_failure", "reason", "plugin_disabled")
		cause := Failed("registration plugin %s is not enabled", pluginID).WithCause(ErrPluginDisabled)
		return s.recordFailure(ctx, sub, event, pluginID, cause, traceback(cause, false))
	}

	log.DebugContext(ctx, "deserialize_and_validate_registration_plugin_options")
	options, err := plugin.DecodeOptions(sub.RegistrationBackend.Options)
	if err != nil {
		cause := fmt.Errorf("%w: %w", ErrOptionsInvalid, err)
		log.WarnContext(ctx, "registration_failure", "reason", "invalid_options", "error", cause)
		return s.recordFailure(ctx, sub, event, pluginID, cause, traceback(cause, false))
	}

	log.DebugContext(ctx, "call_plugin")
	start := time.Now()
	result, err := invoke(func() (map[string]any, error) {
		return plugin.Register(ctx, sub, options)
	})
	s.metrics.ObservePluginCall(regmetrics.StageRegistration, pluginID, time.Since(start))
	if err != nil {
		var failed *RegistrationFailedError
		if errors.As(err, &failed) {
			log.WarnContext(ctx, "registration_failure", "reason", "registration_failed", "error", err)
			sub.MergeResult(failed.Result)
			return s.recordFailure(ctx, sub, event, pluginID, err, traceback(err, false))
		}
		tb := traceback(err, true)
		log.ErrorContext(ctx, "registration_failure", "error", err, "stack", tb)
		return s.recordFailure(ctx, sub, event, pluginID, err, tb)
	}

	log.InfoContext(ctx, "registration_success")
	if s.policy.WaitForPaymentToRegister && event == EventOnPaymentComplete {
		sub.ApplyPaymentsRegistered()
		log.InfoContext(ctx, "marked_payments_registered")
	}
	if result == nil {
		result = map[string]any{}
	}
	sub.ApplyRegistrationStatus(models.RegistrationSuccess, result, false)
	if err := s.save(ctx, sub); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationSuccess, "plugin", pluginID)
	s.metrics.ObserveStage(regmetrics.StageRegistration, pluginID, regmetrics.OutcomeSuccess)
	log.InfoContext(ctx, "done")
	return nil
}

func (s *Service) logAbort(ctx context.Context, log *slog.Logger, sub *models.Submission, d Decision) {
	switch d.Reason {
	case ReasonNotCompleted:
		log.ErrorContext(ctx, "submission_not_completed", "outcome", "skip")
	case ReasonPreRegistrationNeeded:
		log.DebugContext(ctx, "pre_registration_not_completed", "outcome", "skip")
	case ReasonCosignRequired:
		log.InfoContext(ctx, "skipped_registration", "reason", d.Reason, "outcome", "skip")
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationCosignRequired)
	case ReasonPaymentNotReceived:
		log.InfoContext(ctx, "skipped_registration", "reason", d.Reason, "outcome", "skip")
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationSkippedNotPaid)
	case ReasonAttemptsLimited:
		log.DebugContext(ctx, "max_registration_attempts_exceeded",
			"num_attempts", sub.RegistrationAttempts, "max_num", s.policy.AttemptLimit, "outcome", "skip")
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationAttemptsLimited,
			"attempts", sub.RegistrationAttempts)
	}
}

// recordFailure stores a failed main registration attempt. The attempt was already
// counted when the attempt started.
func (s *Service) recordFailure(ctx context.Context, sub *models.Submission, event Event, plugin string, cause error, tb string) error {
	sub.ApplyRegistrationStatus(models.RegistrationFailed, map[string]any{models.ResultTraceback: tb}, false)
	if err := s.save(ctx, sub); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventRegistrationFailure,
		"plugin", plugin, "error", cause)
	s.metrics.ObserveStage(regmetrics.StageRegistration, plugin, regmetrics.OutcomeFailure)
	return raiseOnRetry(event, cause)
}
