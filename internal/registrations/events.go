package registrations

// Event names what triggered a registration stage.
type Event string

const (
	EventOnCompletion      Event = "on_completion"
	EventOnPaymentComplete Event = "on_payment_complete"
	EventOnCosignComplete  Event = "on_cosign_complete"
	// EventOnRetry is an explicit retry, by an operator or the retry sweep. Failures
	// are returned to the caller only for this trigger.
	EventOnRetry Event = "on_retry"
)

func (e Event) Valid() bool {
	switch e {
	case EventOnCompletion, EventOnPaymentComplete, EventOnCosignComplete, EventOnRetry:
		return true
	}
	return false
}

// Reasons a stage stops before calling the backend.
const (
	ReasonNotCompleted          = "submission_not_completed"
	ReasonAlreadyPreRegistered  = "already_pre_registered"
	ReasonAlreadyRegistered     = "already_registered"
	ReasonPreRegistrationNeeded = "pre_registration_not_completed"
	ReasonCosignRequired        = "cosign_required"
	ReasonPaymentNotReceived    = "payment_not_received"
	ReasonAttemptsLimited       = "max_registration_attempts_exceeded"
	ReasonNotRegistered         = "main_registration_not_successful"
	ReasonAlreadyRunning        = "registration_already_running"
)

// Decision is the outcome of a gate check.
type Decision struct {
	abort  bool
	Reason string
}

// Continue lets the stage proceed.
var Continue = Decision{}

// Abort stops the stage without touching the registration state.
func Abort(reason string) Decision {
	return Decision{abort: true, Reason: reason}
}

func (d Decision) Aborted() bool { return d.abort }
