package registrations

import (
	"errors"
	"fmt"

	"formflow/internal/submissions/models"
)

var (
	ErrPluginNotFound  = errors.New("registration plugin not found")
	ErrDuplicatePlugin = errors.New("registration plugin already registered")
	ErrPluginDisabled  = errors.New("registration plugin is not enabled")
	ErrOptionsInvalid  = errors.New("invalid registration options")

	// ErrRegistrationFailed marks failures a backend reports on purpose, as opposed to
	// crashes and transport errors.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrOwnershipUnsupported is returned by plugins that cannot check who owns an
	// initial data reference.
	ErrOwnershipUnsupported = errors.New("initial data ownership check not supported")

	ErrPermissionDenied = models.ErrPermissionDenied
)

// RegistrationFailedError is a backend-reported failure. Result carries partial
// results that must survive the failed attempt, such as an external booking id.
type RegistrationFailedError struct {
	Message string
	Result  map[string]any
	Err     error
}

// Failed builds a RegistrationFailedError.
func Failed(format string, args ...any) *RegistrationFailedError {
	return &RegistrationFailedError{Message: fmt.Sprintf(format, args...)}
}

// WithCause records the error that made the backend fail.
func (e *RegistrationFailedError) WithCause(err error) *RegistrationFailedError {
	e.Err = err
	return e
}

// WithResult attaches partial results.
func (e *RegistrationFailedError) WithResult(result map[string]any) *RegistrationFailedError {
	e.Result = result
	return e
}

func (e *RegistrationFailedError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RegistrationFailedError) Unwrap() error { return e.Err }

func (e *RegistrationFailedError) Is(target error) bool {
	return target == ErrRegistrationFailed
}
