// Package prefill fetches external data for a submission and reconciles it into the
// submission's variable state.
package prefill

import (
	"context"
	"errors"
	"slices"

	"formflow/internal/submissions/models"
	"formflow/internal/variables"
)

//go:generate mockgen -source=plugin.go -destination=mocks/plugin_mock.go -package=mocks Plugin,OptionsPlugin

var (
	ErrPluginNotFound   = errors.New("prefill plugin not registered")
	ErrDuplicatePlugin  = errors.New("prefill plugin already registered")
	ErrOptionsInvalid   = errors.New("invalid prefill options")
	ErrPermissionDenied = models.ErrPermissionDenied
)

// Plugin looks up attribute values for the identity attached to a submission.
//
// Values returns a map keyed by the requested attribute. Attributes without a value
// are omitted; an error means the whole lookup failed.
type Plugin interface {
	Identifier() string
	IsEnabled() bool
	// RequiresAuth lists the auth attributes (bsn, kvk, ...) the plugin can look up.
	// Authenticated submissions only reach plugins that list their auth attribute, so
	// a plugin with an empty list is only used for anonymous submissions.
	RequiresAuth() []string
	// RequiresAuthPlugin restricts the plugin to logins from specific auth plugins.
	RequiresAuthPlugin() []string
	Values(ctx context.Context, sub *models.Submission, attributes []string, role variables.IdentifierRole) (map[string]any, error)
}

// OptionsPlugin fetches values driven by per-variable options instead of attributes.
// The returned map is keyed by variable key and may fill several variables at once.
type OptionsPlugin interface {
	Plugin
	// DecodeOptions validates the raw options stored on the variable. Errors wrap
	// ErrOptionsInvalid.
	DecodeOptions(raw map[string]any) (any, error)
	// VerifyInitialDataOwnership returns an error wrapping ErrPermissionDenied when
	// the logged in user does not own the submission's initial data reference.
	VerifyInitialDataOwnership(ctx context.Context, sub *models.Submission, options any) error
	ValuesFromOptions(ctx context.Context, sub *models.Submission, options any, variable variables.FormVariable) (map[string]any, error)
}

// authPluginAllowed reports whether the submission's login satisfies the plugin's
// auth plugin restriction.
func authPluginAllowed(p Plugin, sub *models.Submission) bool {
	allowed := p.RequiresAuthPlugin()
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, sub.Auth.Plugin)
}

// authAttributeAccepted mirrors the login check done before attribute lookups:
// an authenticated submission is only passed to plugins that understand its
// auth attribute.
func authAttributeAccepted(p Plugin, sub *models.Submission) bool {
	if !sub.Auth.IsAuthenticated() {
		return true
	}
	return slices.Contains(p.RequiresAuth(), sub.Auth.Attribute)
}

// IdentifierValue returns the identifier a plugin should look up for role, or "" when
// the submission carries none the plugin accepts.
func IdentifierValue(p Plugin, sub *models.Submission, role variables.IdentifierRole) string {
	if !sub.Auth.IsAuthenticated() {
		return ""
	}
	switch role {
	case variables.RoleAuthorizee:
		if slices.Contains(p.RequiresAuth(), sub.Auth.AuthorizeeAttribute) {
			return sub.Auth.AuthorizeeValue
		}
	default:
		if slices.Contains(p.RequiresAuth(), sub.Auth.Attribute) {
			return sub.Auth.Value
		}
	}
	return ""
}
