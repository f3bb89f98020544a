package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	regmetrics "formflow/internal/registrations/metrics"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (s *Service) preRegistrationGate(sub *models.Submission) Decision {
	switch {
	case !sub.IsCompleted():
		return Abort(ReasonNotCompleted)
	case sub.PreRegistrationCompleted:
		return Abort(ReasonAlreadyPreRegistered)
	case sub.AttemptsExhausted(s.policy.AttemptLimit):
		return Abort(ReasonAttemptsLimited)
	}
	return Continue
}

// PreRegister assigns the public reference and lets the backend prepare the
// registration. The plugin hooks run outside any transaction; only the reference
// assignment and the attempt bookkeeping are transactional. Failures are stored on the
// submission and returned only for EventOnRetry; an ownership violation of the initial
// data reference is always returned, with code forbidden.
func (s *Service) PreRegister(ctx context.Context, submissionID id.SubmissionID, event Event) error {
	ctx, span := s.tracer.Start(ctx, "registration.pre_register", trace.WithAttributes(
		attribute.String("submission_id", submissionID.String()),
		attribute.String("trigger", string(event)),
	))
	defer span.End()

	err := s.preRegister(ctx, submissionID, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-registration failed")
	}
	return err
}

func (s *Service) preRegister(ctx context.Context, submissionID id.SubmissionID, event Event) error {
	sub, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	log := s.logger.With("action", "registrations.pre_registration",
		"submission_id", sub.ID.String(), "trigger", string(event))

	if d := s.preRegistrationGate(sub); d.Aborted() {
		switch d.Reason {
		case ReasonNotCompleted:
			log.ErrorContext(ctx, "submission_not_completed")
		case ReasonAttemptsLimited:
			log.DebugContext(ctx, "max_registration_attempts_exceeded",
				"num_attempts", sub.RegistrationAttempts, "max_num", s.policy.AttemptLimit,
				"outcome", "skip_pre_registration")
		}
		s.metrics.IncAborted(regmetrics.StagePreRegistration, d.Reason)
		return nil
	}

	plugin, err := s.resolvePlugin(sub)
	if err != nil {
		return s.failPreRegistration(ctx, sub, event, sub.RegistrationBackend.Plugin, err)
	}
	if plugin == nil {
		log.InfoContext(ctx, "generate_submission_reference")
		err := s.store.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.assignReference(ctx, sub); err != nil {
				return err
			}
			sub.PreRegistrationCompleted = true
			return s.save(ctx, sub)
		})
		if err != nil {
			return err
		}
		s.metrics.ObserveStage(regmetrics.StagePreRegistration, "", regmetrics.OutcomeSuccess)
		return nil
	}
	log = log.With("plugin", plugin.Identifier())

	log.DebugContext(ctx, "validate_registration_plugin_options")
	options, err := plugin.DecodeOptions(sub.RegistrationBackend.Options)
	if err != nil {
		return s.failPreRegistration(ctx, sub, event, plugin.Identifier(), fmt.Errorf("%w: %w", ErrOptionsInvalid, err))
	}

	// A retried pre-registration keeps the reference of the earlier attempt around.
	if event == EventOnRetry {
		log.DebugContext(ctx, "store_temporary_internal_reference",
			"public_reference", sub.PublicRegistrationReference)
		sub.MergeResult(map[string]any{models.ResultTemporaryInternalReference: sub.PublicRegistrationReference})
		if err := s.save(ctx, sub); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "verify_initial_data_ownership", "skip", sub.InitialDataReference == "")
	if sub.InitialDataReference != "" {
		if _, err := invoke(func() (struct{}, error) {
			return struct{}{}, plugin.VerifyInitialDataOwnership(ctx, sub, options)
		}); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				if saveErr := s.store.RunInTx(ctx, func(ctx context.Context) error {
					return s.recordPreRegistrationFailure(ctx, sub, event, plugin.Identifier(), err)
				}); saveErr != nil {
					return saveErr
				}
				return dErrors.Wrap(err, dErrors.CodeForbidden, "initial data reference is not owned by the user")
			}
			return s.failPreRegistration(ctx, sub, event, plugin.Identifier(), err)
		}
	}

	start := time.Now()
	result, err := invoke(func() (PreRegistrationResult, error) {
		return plugin.PreRegister(ctx, sub, options)
	})
	s.metrics.ObservePluginCall(regmetrics.StagePreRegistration, plugin.Identifier(), time.Since(start))
	if err != nil {
		return s.failPreRegistration(ctx, sub, event, plugin.Identifier(), err)
	}

	log.DebugContext(ctx, "assign_registration_reference")
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if result.Reference != "" {
			sub.PublicRegistrationReference = result.Reference
		} else if err := s.assignReference(ctx, sub); err != nil {
			return err
		}
		if sub.RegistrationResult == nil {
			sub.RegistrationResult = map[string]any{}
		}
		sub.ClearTraceback()
		sub.MergeResult(result.Data)
		sub.PreRegistrationCompleted = true
		return s.save(ctx, sub)
	})
	if err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPreRegistrationSuccess,
		"plugin", plugin.Identifier(), "public_reference", sub.PublicRegistrationReference)
	s.metrics.ObserveStage(regmetrics.StagePreRegistration, plugin.Identifier(), regmetrics.OutcomeSuccess)
	return nil
}

// failPreRegistration records cause in its own transaction and hands it back for
// explicit retries.
func (s *Service) failPreRegistration(ctx context.Context, sub *models.Submission, event Event, plugin string, cause error) error {
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		return s.recordPreRegistrationFailure(ctx, sub, event, plugin, cause)
	})
	if err != nil {
		return err
	}
	return raiseOnRetry(event, cause)
}

// recordPreRegistrationFailure stores a failed pre-registration attempt: the
// submission gets a public reference, the failed status and one more attempt.
func (s *Service) recordPreRegistrationFailure(ctx context.Context, sub *models.Submission, event Event, plugin string, cause error) error {
	invalidOptions := errors.Is(cause, ErrOptionsInvalid)
	if invalidOptions {
		s.logger.WarnContext(ctx, "registrations.error", "submission_id", sub.ID.String(),
			"trigger", string(event), "plugin", plugin, "reason", "invalid_options", "error", cause)
	} else {
		s.logger.ErrorContext(ctx, "registrations.error", "submission_id", sub.ID.String(),
			"trigger", string(event), "plugin", plugin, "error", cause, "stack", traceback(cause, true))
	}

	if err := s.assignReference(ctx, sub); err != nil {
		return err
	}
	sub.ApplyRegistrationStatus(models.RegistrationFailed, map[string]any{
		models.ResultTraceback: traceback(cause, !invalidOptions),
	}, true)
	if err := s.save(ctx, sub); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPreRegistrationFailure,
		"plugin", plugin, "error", cause)
	s.metrics.ObserveStage(regmetrics.StagePreRegistration, plugin, regmetrics.OutcomeFailure)
	return nil
}

// raiseOnRetry hands err to the caller only for explicit retries.
func raiseOnRetry(event Event, err error) error {
	if event == EventOnRetry {
		return err
	}
	return nil
}
