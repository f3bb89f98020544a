package models

import "time"

// RetrySelection picks the completed submissions the retry sweep works on, all with
// attempts left:
//   - failed registrations;
//   - pending ones completed before StaleBefore whose chain never ran, unless they
//     wait for a cosigner or, under WaitForPayment, for a payment;
//   - in-progress ones whose last attempt started before StaleBefore and was abandoned.
type RetrySelection struct {
	AttemptLimit   int
	StaleBefore    time.Time
	WaitForPayment bool
}

// Matches reports whether sub belongs to the selection.
func (r RetrySelection) Matches(sub *Submission) bool {
	if !sub.IsCompleted() || sub.AttemptsExhausted(r.AttemptLimit) {
		return false
	}
	switch sub.RegistrationStatus {
	case RegistrationFailed:
		return true
	case RegistrationPending:
		return sub.CompletedOn.Before(r.StaleBefore) &&
			!sub.Cosign.Waiting() &&
			!sub.PaymentPending(r.WaitForPayment)
	case RegistrationInProgress:
		return sub.LastRegisterDate == nil || sub.LastRegisterDate.Before(r.StaleBefore)
	}
	return false
}
