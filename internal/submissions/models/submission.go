// Package models holds the submission aggregate and its registration bookkeeping.
package models

import (
	"maps"
	"slices"
	"time"

	"formflow/internal/forms"
	id "formflow/pkg/domain"
)

// RegistrationStatus tracks the main registration of a submission.
type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationInProgress RegistrationStatus = "in_progress"
	RegistrationSuccess    RegistrationStatus = "success"
	RegistrationFailed     RegistrationStatus = "failed"
)

// Result keys written by the registration flow.
const (
	ResultTraceback                  = "traceback"
	ResultTemporaryInternalReference = "temporary_internal_reference"
	ResultConfirmationEmailTraceback = "update_with_confirmation_emails_traceback"
)

// Cosign tracks the second signature some forms require before registration.
type Cosign struct {
	Required  bool
	Completed bool
}

// Waiting reports whether registration has to wait for the cosigner.
func (c Cosign) Waiting() bool { return c.Required && !c.Completed }

// Payment tracks whether the submission has to be paid for and whether the payment
// has been forwarded to the registration backend.
type Payment struct {
	Required   bool
	Paid       bool
	Registered bool
}

// AuthInfo is the identity the end user logged in with. Prefill plugins look up
// attributes by these identifiers.
type AuthInfo struct {
	Plugin    string
	Attribute string
	Value     string
	// Authorizee is set when the user acts on behalf of someone else.
	AuthorizeeAttribute string
	AuthorizeeValue     string
}

// IsAuthenticated reports whether the submission carries a login.
func (a AuthInfo) IsAuthenticated() bool { return a.Attribute != "" && a.Value != "" }

type Submission struct {
	ID             id.SubmissionID
	FormID         id.FormID
	Language       string
	CreatedOn      time.Time
	CompletedOn    *time.Time
	CompletedSteps []string

	RegistrationBackend         forms.Backend
	RegistrationStatus          RegistrationStatus
	RegistrationAttempts        int
	RegistrationResult          map[string]any
	PreRegistrationCompleted    bool
	PublicRegistrationReference string
	LastRegisterDate            *time.Time
	InitialDataReference        string

	Cosign  Cosign
	Payment Payment
	Auth    AuthInfo
}

// New starts a submission for the given form.
func New(form *forms.Form, now time.Time) *Submission {
	return &Submission{
		ID:                  id.NewSubmissionID(),
		FormID:              form.ID,
		Language:            "nl",
		CreatedOn:           now,
		RegistrationBackend: form.RegistrationBackend,
		RegistrationStatus:  RegistrationPending,
	}
}

func (s *Submission) IsCompleted() bool { return s.CompletedOn != nil }

// MarkStepCompleted records a step slug once.
func (s *Submission) MarkStepCompleted(slug string) {
	if !slices.Contains(s.CompletedSteps, slug) {
		s.CompletedSteps = append(s.CompletedSteps, slug)
	}
}

// CanComplete reports whether every applicable step of form has been submitted. A nil
// applicable treats every step as applicable.
func (s *Submission) CanComplete(form *forms.Form, applicable func(slug string) bool) bool {
	if s.IsCompleted() {
		return false
	}
	for _, step := range form.Steps {
		if applicable != nil && !applicable(step.Slug) {
			continue
		}
		if !slices.Contains(s.CompletedSteps, step.Slug) {
			return false
		}
	}
	return true
}

func (s *Submission) ApplyCompleted(now time.Time) {
	s.CompletedOn = &now
}

// AttemptsExhausted reports whether the attempt ceiling has been reached.
func (s *Submission) AttemptsExhausted(limit int) bool {
	return s.RegistrationAttempts >= limit
}

// PaymentPending reports whether registration has to wait for payment under the
// wait-for-payment policy.
func (s *Submission) PaymentPending(waitForPayment bool) bool {
	return waitForPayment && s.Payment.Required && !s.Payment.Paid
}

// ApplyRegistrationStart counts an attempt and flips the status to in progress.
func (s *Submission) ApplyRegistrationStart(now time.Time) {
	s.LastRegisterDate = &now
	s.RegistrationStatus = RegistrationInProgress
	s.RegistrationAttempts++
}

// ApplyRegistrationStatus sets the status and merges result into the stored result;
// new keys overwrite existing ones. A nil result on an empty accumulator keeps it nil.
func (s *Submission) ApplyRegistrationStatus(status RegistrationStatus, result map[string]any, recordAttempt bool) {
	s.RegistrationStatus = status
	s.MergeResult(result)
	if recordAttempt {
		s.RegistrationAttempts++
	}
}

// MergeResult merges data into the registration result accumulator.
func (s *Submission) MergeResult(data map[string]any) {
	if data == nil {
		return
	}
	if s.RegistrationResult == nil {
		s.RegistrationResult = make(map[string]any, len(data))
	}
	maps.Copy(s.RegistrationResult, data)
}

// ClearTraceback drops error information left by a previous attempt.
func (s *Submission) ClearTraceback() {
	delete(s.RegistrationResult, ResultTraceback)
}

// ResultString reads a string entry from the registration result.
func (s *Submission) ResultString(key string) (string, bool) {
	v, ok := s.RegistrationResult[key].(string)
	return v, ok && v != ""
}

// ApplyPaymentsRegistered marks the payment as forwarded to the backend.
func (s *Submission) ApplyPaymentsRegistered() {
	if s.Payment.Required && s.Payment.Paid {
		s.Payment.Registered = true
	}
}

// Clone returns a deep enough copy for stores to hand out without sharing maps.
func (s *Submission) Clone() *Submission {
	c := *s
	c.CompletedSteps = slices.Clone(s.CompletedSteps)
	if s.RegistrationResult != nil {
		c.RegistrationResult = maps.Clone(s.RegistrationResult)
	}
	if s.CompletedOn != nil {
		t := *s.CompletedOn
		c.CompletedOn = &t
	}
	if s.LastRegisterDate != nil {
		t := *s.LastRegisterDate
		c.LastRegisterDate = &t
	}
	return &c
}
