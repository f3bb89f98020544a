// Package static is a prefill plugin that serves a fixed attribute table. It backs
// demo forms and local development without an external registry.
package static

import (
	"context"

	"formflow/internal/formio"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
)

const Identifier = "static"

type Plugin struct {
	values       formio.Data
	requiresAuth []string
	enabled      bool
}

type Option func(*Plugin)

// WithRequiresAuth lists the auth attributes the plugin accepts.
func WithRequiresAuth(attributes ...string) Option {
	return func(p *Plugin) { p.requiresAuth = attributes }
}

// Disabled registers the plugin switched off.
func Disabled() Option {
	return func(p *Plugin) { p.enabled = false }
}

// New serves values; attributes may use dotted paths into nested objects.
func New(values map[string]any, opts ...Option) *Plugin {
	p := &Plugin{values: formio.Data(values), enabled: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Identifier() string           { return Identifier }
func (p *Plugin) IsEnabled() bool              { return p.enabled }
func (p *Plugin) RequiresAuth() []string       { return p.requiresAuth }
func (p *Plugin) RequiresAuthPlugin() []string { return nil }

func (p *Plugin) Values(_ context.Context, _ *models.Submission, attributes []string, _ variables.IdentifierRole) (map[string]any, error) {
	out := make(map[string]any, len(attributes))
	for _, attr := range attributes {
		if v, ok := p.values.Get(attr); ok {
			out[attr] = v
		}
	}
	return out, nil
}
