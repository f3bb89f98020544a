package logic

import (
	"context"
	"log/slog"

	"formflow/internal/formio"
)

// maxVisibilityPasses bounds ResolveVisibility on configurations whose conditionals
// never settle.
const maxVisibilityPasses = 16

// Outcome holds the effects of the triggered rules that are applied after the rules
// ran. Variable assignments are already written to the evaluated data.
type Outcome struct {
	Properties []Action
	// Applicability maps step slugs to the applicability the last matching action set.
	Applicability map[string]bool
	DisableNext   bool
	// Variables holds the values variable actions assigned, by variable key.
	Variables map[string]any
}

// Applicable reports whether the rules left slug applicable. Steps default to
// applicable.
func (o *Outcome) Applicable(slug string) bool {
	applicable, ok := o.Applicability[slug]
	return !ok || applicable
}

// Apply writes the property changes into configuration, normally a per-request
// clone. Components that are not part of configuration are skipped.
func (o *Outcome) Apply(configuration formio.Component) {
	w := formio.NewConfigurationWrapper(configuration)
	for _, a := range o.Properties {
		component, err := w.Component(a.Component)
		if err != nil {
			continue
		}
		formio.Data(component).Set(a.Property, a.State)
	}
}

type Evaluator struct {
	registry *formio.Registry
	logger   *slog.Logger
}

type Option func(*Evaluator)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

func WithRegistry(r *formio.Registry) Option {
	return func(e *Evaluator) { e.registry = r }
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{registry: formio.Default, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveVisibility clears the values of hidden components below node until the data
// stops changing, so conditionals that depend on cleared values settle. Components in
// ignoreHidden are driven by rules and their static hidden flag is not applied.
func (e *Evaluator) ResolveVisibility(node formio.Component, data formio.Data, wrapper *formio.ConfigurationWrapper, ignoreHidden []string) error {
	for range maxVisibilityPasses {
		before := data.Clone()
		err := formio.ProcessVisibility(node, data, wrapper,
			formio.WithIgnoreHidden(ignoreHidden...),
			formio.WithRegistry(e.registry),
		)
		if err != nil {
			return err
		}
		if formio.ValuesEqual(before, data) {
			return nil
		}
	}
	return nil
}

// Evaluate runs rules in order against data. Variable actions update data as soon as
// their rule triggers, so later rules see the new values. A rule that does not
// trigger clears the components it would have shown when they are hidden by default.
// Broken triggers and expressions are logged and treated as not triggered.
func (e *Evaluator) Evaluate(ctx context.Context, rules []Rule, data formio.Data, wrapper *formio.ConfigurationWrapper) (*Outcome, error) {
	out := &Outcome{Applicability: map[string]bool{}, Variables: map[string]any{}}
	for i, rule := range rules {
		result, err := Apply(rule.Trigger, data)
		if err != nil {
			e.logger.WarnContext(ctx, "logic.trigger_failed", "rule", i, "error", err)
		}
		if err != nil || !Truthy(result) {
			if err := e.clearHiddenByDefault(rule, data, wrapper); err != nil {
				return nil, err
			}
			continue
		}

		for _, action := range rule.Actions {
			switch action.Type {
			case ActionVariable:
				value, err := Apply(action.Value, data)
				if err != nil {
					e.logger.WarnContext(ctx, "logic.variable_failed",
						"rule", i, "variable", action.Variable, "error", err)
					continue
				}
				value = e.normalize(wrapper, action.Variable, value)
				data.Set(action.Variable, value)
				out.Variables[action.Variable] = value
			case ActionProperty:
				out.Properties = append(out.Properties, action)
			case ActionStepApplicable:
				out.Applicability[action.Step] = true
			case ActionStepNotApplicable:
				out.Applicability[action.Step] = false
			case ActionDisableNext:
				out.DisableNext = true
			}
		}
	}
	return out, nil
}

func (e *Evaluator) clearHiddenByDefault(rule Rule, data formio.Data, wrapper *formio.ConfigurationWrapper) error {
	for _, a := range rule.Actions {
		if !a.hides() {
			continue
		}
		component, err := wrapper.Component(a.Component)
		if err != nil || !component.Hidden() {
			continue
		}
		// The component alone, so its own conditional still gets a say.
		node := formio.Component{"components": []any{map[string]any(component)}}
		if err := formio.ProcessVisibility(node, data, wrapper, formio.WithRegistry(e.registry)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) normalize(wrapper *formio.ConfigurationWrapper, key string, value any) any {
	component, err := wrapper.Component(key)
	if err != nil {
		return value
	}
	return e.registry.Normalize(component, value)
}
