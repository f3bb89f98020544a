package audit

import (
	"time"

	id "formflow/pkg/domain"
)

// EventCategory classifies submission log events by the stage that produced them.
type EventCategory string

const (
	// CategoryRegistration covers pre-registration, registration and the
	// confirmation-email update. These are the events operators look at when a
	// submission did not reach its backend.
	CategoryRegistration EventCategory = "registration"

	// CategoryPrefill covers prefill plugin fetches.
	CategoryPrefill EventCategory = "prefill"

	// CategorySubmission covers the step and completion flow.
	CategorySubmission EventCategory = "submission"
)

// Event is emitted from domain logic to capture what happened to a submission.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	SubmissionID id.SubmissionID
	Action       string
	// Plugin is the registration or prefill plugin identifier involved, if any.
	Plugin    string
	Reason    string
	Trigger   string
	RequestID string
	// Extra holds event specific details (attempt counts, plugin results).
	Extra map[string]any
}

type AuditEvent string

const (
	// Registration events
	EventRegistrationStart            AuditEvent = "registration_start"
	EventRegistrationSuccess          AuditEvent = "registration_success"
	EventRegistrationFailure          AuditEvent = "registration_failure"
	EventRegistrationSkip             AuditEvent = "registration_skip"
	EventRegistrationAttemptsLimited  AuditEvent = "registration_attempts_limited"
	EventRegistrationSkippedNotPaid   AuditEvent = "registration_skipped_not_yet_paid"
	EventRegistrationCosignRequired   AuditEvent = "skipped_registration_cosign_required"
	EventPreRegistrationSuccess       AuditEvent = "pre_registration_success"
	EventPreRegistrationFailure       AuditEvent = "pre_registration_failure"
	EventConfirmationEmailUpdateSkip  AuditEvent = "registration_update_with_confirmation_email_skip"
	EventConfirmationEmailUpdateOK    AuditEvent = "registration_update_with_confirmation_email_success"
	EventConfirmationEmailUpdateError AuditEvent = "registration_update_with_confirmation_email_failure"

	// Prefill events
	EventPrefillRetrieveSuccess AuditEvent = "prefill_retrieve_success"
	EventPrefillRetrieveEmpty   AuditEvent = "prefill_retrieve_empty"
	EventPrefillRetrieveFailure AuditEvent = "prefill_retrieve_failure"

	// Submission events
	EventSubmissionStepSaved AuditEvent = "submission_step_saved"
	EventSubmissionCompleted AuditEvent = "submission_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationStart:            CategoryRegistration,
	EventRegistrationSuccess:          CategoryRegistration,
	EventRegistrationFailure:          CategoryRegistration,
	EventRegistrationSkip:             CategoryRegistration,
	EventRegistrationAttemptsLimited:  CategoryRegistration,
	EventRegistrationSkippedNotPaid:   CategoryRegistration,
	EventRegistrationCosignRequired:   CategoryRegistration,
	EventPreRegistrationSuccess:       CategoryRegistration,
	EventPreRegistrationFailure:       CategoryRegistration,
	EventConfirmationEmailUpdateSkip:  CategoryRegistration,
	EventConfirmationEmailUpdateOK:    CategoryRegistration,
	EventConfirmationEmailUpdateError: CategoryRegistration,

	EventPrefillRetrieveSuccess: CategoryPrefill,
	EventPrefillRetrieveEmpty:   CategoryPrefill,
	EventPrefillRetrieveFailure: CategoryPrefill,

	EventSubmissionStepSaved: CategorySubmission,
	EventSubmissionCompleted: CategorySubmission,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategorySubmission.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategorySubmission
}
