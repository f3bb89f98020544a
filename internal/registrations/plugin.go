package registrations

import (
	"context"
	"encoding/json"

	"formflow/internal/submissions/models"
)

//go:generate mockgen -source=plugin.go -destination=mocks/plugin_mock.go -package=mocks Plugin

// PreRegistrationResult is what a backend hands back before the main registration.
// An empty Reference means the platform generates the public reference itself.
type PreRegistrationResult struct {
	Reference string
	Data      map[string]any
}

// Plugin delivers completed submissions to one registration backend.
//
// Options are decoded once per stage by DecodeOptions; the decoded value is passed
// back to the other hooks unchanged.
type Plugin interface {
	Identifier() string
	IsEnabled() bool
	DecodeOptions(raw json.RawMessage) (any, error)
	VerifyInitialDataOwnership(ctx context.Context, sub *models.Submission, options any) error
	PreRegister(ctx context.Context, sub *models.Submission, options any) (PreRegistrationResult, error)
	Register(ctx context.Context, sub *models.Submission, options any) (map[string]any, error)
	UpdateWithConfirmationEmail(ctx context.Context, sub *models.Submission, options any) (map[string]any, error)
}

// Base supplies the optional hooks. Plugins embed it and implement the rest.
type Base struct{}

func (Base) VerifyInitialDataOwnership(context.Context, *models.Submission, any) error {
	return ErrOwnershipUnsupported
}

func (Base) PreRegister(context.Context, *models.Submission, any) (PreRegistrationResult, error) {
	return PreRegistrationResult{}, nil
}

func (Base) UpdateWithConfirmationEmail(context.Context, *models.Submission, any) (map[string]any, error) {
	return nil, nil
}
