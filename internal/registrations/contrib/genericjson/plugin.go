// Package genericjson registers submissions by posting their values as JSON to a
// configured service.
package genericjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"formflow/internal/platform/jsonclient"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
)

const Identifier = "json_dump"

// Options select the endpoint and the variables sent to it.
type Options struct {
	Path              string   `json:"path"`
	Variables         []string `json:"variables"`
	MetadataVariables []string `json:"additionalMetadataVariables,omitempty"`
}

// fixedMetadata is always sent along with the values.
var fixedMetadata = []string{"form_id", "public_reference", "submission_id"}

type ValueLoader interface {
	LoadValues(ctx context.Context, submissionID id.SubmissionID) ([]variables.SubmissionValue, error)
}

type Plugin struct {
	registrations.Base
	client  *jsonclient.Client
	values  ValueLoader
	enabled bool
}

type Option func(*Plugin)

func Disabled() Option {
	return func(p *Plugin) { p.enabled = false }
}

func New(client *jsonclient.Client, values ValueLoader, opts ...Option) *Plugin {
	p := &Plugin{client: client, values: values, enabled: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Identifier() string { return Identifier }
func (p *Plugin) IsEnabled() bool    { return p.enabled }

func (p *Plugin) DecodeOptions(raw json.RawMessage) (any, error) {
	var opts Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, err
	}
	if strings.Contains(opts.Path, "..") {
		return nil, errors.New("path must not contain '..'")
	}
	if len(opts.Variables) == 0 {
		return nil, errors.New("at least one variable is required")
	}
	return opts, nil
}

type payload struct {
	Values   map[string]any `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

func (p *Plugin) Register(ctx context.Context, sub *models.Submission, options any) (map[string]any, error) {
	opts, ok := options.(Options)
	if !ok {
		return nil, fmt.Errorf("unexpected options type %T", options)
	}
	stored, err := p.values.LoadValues(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("load submission values: %w", err)
	}
	data := variables.ValuesData(stored)

	values := make(map[string]any, len(opts.Variables))
	for _, key := range opts.Variables {
		if v, ok := data.Get(key); ok {
			values[key] = v
		}
	}

	static := staticData(sub)
	metadata := make(map[string]any)
	for key, v := range static {
		if slices.Contains(fixedMetadata, key) || slices.Contains(opts.MetadataVariables, key) {
			metadata[key] = v
		}
	}

	var response any
	if err := p.client.Post(ctx, opts.Path, payload{Values: values, Metadata: metadata}, &response); err != nil {
		var status *jsonclient.StatusError
		if errors.As(err, &status) {
			return nil, registrations.Failed("service rejected the submission").WithCause(err)
		}
		return nil, err
	}
	if response == nil {
		response = ""
	}
	return map[string]any{"api_response": response}, nil
}

// staticData are the submission-level values every registration can refer to.
func staticData(sub *models.Submission) map[string]any {
	out := map[string]any{
		"submission_id":    sub.ID.String(),
		"form_id":          sub.FormID.String(),
		"public_reference": sub.PublicRegistrationReference,
		"language_code":    sub.Language,
		"auth_type":        sub.Auth.Attribute,
	}
	if sub.CompletedOn != nil {
		out["completed_on"] = sub.CompletedOn.UTC().Format(time.RFC3339)
	}
	return out
}
