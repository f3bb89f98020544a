// Package httpjson is a prefill plugin backed by a JSON HTTP service. Attribute
// lookups fetch the person record for the login identifier; options lookups fetch the
// object named by the submission's initial data reference and map fields to
// variables.
package httpjson

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"formflow/internal/formio"
	"formflow/internal/platform/jsonclient"
	"formflow/internal/prefill"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	"formflow/pkg/platform/sentinel"
)

const Identifier = "httpjson"

// Options configure an options-based variable.
type Options struct {
	// ObjectPath is the collection the initial data reference points into.
	ObjectPath string
	// OwnerField is the dotted path of the owner identifier inside the object.
	OwnerField string
	// Mapping maps variable keys to dotted paths inside the object.
	Mapping map[string]string
}

type Plugin struct {
	client       *jsonclient.Client
	personPath   string
	requiresAuth []string
	enabled      bool
}

type Option func(*Plugin)

// WithPersonPath sets the collection person records are read from. Defaults to "people".
func WithPersonPath(path string) Option {
	return func(p *Plugin) { p.personPath = path }
}

func WithRequiresAuth(attributes ...string) Option {
	return func(p *Plugin) { p.requiresAuth = attributes }
}

// Disabled registers the plugin switched off, used when no backend URL is configured.
func Disabled() Option {
	return func(p *Plugin) { p.enabled = false }
}

func New(client *jsonclient.Client, opts ...Option) *Plugin {
	p := &Plugin{
		client:       client,
		personPath:   "people",
		requiresAuth: []string{"bsn"},
		enabled:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Identifier() string           { return Identifier }
func (p *Plugin) IsEnabled() bool              { return p.enabled }
func (p *Plugin) RequiresAuth() []string       { return p.requiresAuth }
func (p *Plugin) RequiresAuthPlugin() []string { return nil }

// Values reads the person record of the identifier for role. Unknown people and
// missing attributes yield no values.
func (p *Plugin) Values(ctx context.Context, sub *models.Submission, attributes []string, role variables.IdentifierRole) (map[string]any, error) {
	identifier := prefill.IdentifierValue(p, sub, role)
	if identifier == "" {
		return nil, nil
	}
	var record map[string]any
	if err := p.client.Get(ctx, p.personPath+"/"+url.PathEscape(identifier), &record); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data := formio.Data(record)
	out := make(map[string]any, len(attributes))
	for _, attr := range attributes {
		if v, ok := data.Get(attr); ok {
			out[attr] = v
		}
	}
	return out, nil
}

func (p *Plugin) DecodeOptions(raw map[string]any) (any, error) {
	path, _ := raw["objectPath"].(string)
	if path == "" {
		return nil, fmt.Errorf("%w: objectPath is required", prefill.ErrOptionsInvalid)
	}
	opts := Options{ObjectPath: path, OwnerField: "owner", Mapping: map[string]string{}}
	if owner, ok := raw["ownerField"].(string); ok && owner != "" {
		opts.OwnerField = owner
	}
	mapping, ok := raw["mapping"].(map[string]any)
	if !ok || len(mapping) == 0 {
		return nil, fmt.Errorf("%w: mapping is required", prefill.ErrOptionsInvalid)
	}
	for key, v := range mapping {
		target, ok := v.(string)
		if !ok || target == "" {
			return nil, fmt.Errorf("%w: mapping for %q must be a path", prefill.ErrOptionsInvalid, key)
		}
		opts.Mapping[key] = target
	}
	return opts, nil
}

// VerifyInitialDataOwnership checks that the referenced object's owner field equals
// the login identifier.
func (p *Plugin) VerifyInitialDataOwnership(ctx context.Context, sub *models.Submission, options any) error {
	opts, ok := options.(Options)
	if !ok {
		return fmt.Errorf("%w: unexpected options type %T", prefill.ErrOptionsInvalid, options)
	}
	object, err := p.fetchObject(ctx, opts, sub.InitialDataReference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("%w: object %s not found", prefill.ErrPermissionDenied, sub.InitialDataReference)
		}
		return err
	}
	owner, _ := object.Get(opts.OwnerField)
	if !sub.Auth.IsAuthenticated() || owner != sub.Auth.Value {
		return fmt.Errorf("%w: object %s is not owned by the user", prefill.ErrPermissionDenied, sub.InitialDataReference)
	}
	return nil
}

func (p *Plugin) ValuesFromOptions(ctx context.Context, sub *models.Submission, options any, _ variables.FormVariable) (map[string]any, error) {
	opts, ok := options.(Options)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected options type %T", prefill.ErrOptionsInvalid, options)
	}
	if sub.InitialDataReference == "" {
		return nil, nil
	}
	object, err := p.fetchObject(ctx, opts, sub.InitialDataReference)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(opts.Mapping))
	for key, path := range opts.Mapping {
		if v, ok := object.Get(path); ok {
			out[key] = v
		}
	}
	return out, nil
}

func (p *Plugin) fetchObject(ctx context.Context, opts Options, reference string) (formio.Data, error) {
	var object map[string]any
	if err := p.client.Get(ctx, opts.ObjectPath+"/"+url.PathEscape(reference), &object); err != nil {
		return nil, err
	}
	return formio.Data(object), nil
}
