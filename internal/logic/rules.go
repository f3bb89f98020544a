// Package logic evaluates the logic rules of a form. A rule has a JSON-logic trigger
// and a list of actions that run when the trigger holds: set a component property,
// assign a variable, change the applicability of a step or block submitting the step.
package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ActionType selects what an action does.
type ActionType string

const (
	ActionProperty          ActionType = "property"
	ActionVariable          ActionType = "variable"
	ActionStepApplicable    ActionType = "step-applicable"
	ActionStepNotApplicable ActionType = "step-not-applicable"
	ActionDisableNext       ActionType = "disable-next"
)

// PropertyHidden is the component property that controls visibility.
const PropertyHidden = "hidden"

// Action is one effect of a triggered rule.
type Action struct {
	Type ActionType `json:"type"`

	// Component and Property address the property a property action sets to State.
	// Property may be a dotted path such as "validate.required".
	Component string `json:"component,omitempty"`
	Property  string `json:"property,omitempty"`
	State     any    `json:"state"`

	// Variable receives the result of the JSON-logic expression in Value.
	Variable string          `json:"variable,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`

	// Step is the slug of the step a step action applies to.
	Step string `json:"step,omitempty"`
}

// Validate checks that the action carries the fields its type needs.
func (a Action) Validate() error {
	switch a.Type {
	case ActionProperty:
		if a.Component == "" || a.Property == "" {
			return errors.New("property action needs a component and a property")
		}
	case ActionVariable:
		if a.Variable == "" {
			return errors.New("variable action needs a variable")
		}
		if !json.Valid(a.Value) {
			return fmt.Errorf("variable action for %q has an invalid expression", a.Variable)
		}
	case ActionStepApplicable, ActionStepNotApplicable:
		if a.Step == "" {
			return fmt.Errorf("%s action needs a step", a.Type)
		}
	case ActionDisableNext:
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// hides reports whether the action drives the hidden property of a component.
func (a Action) hides() bool {
	return a.Type == ActionProperty && a.Property == PropertyHidden
}

// Rule is a JSON-logic trigger with the actions to run when it holds.
type Rule struct {
	Trigger json.RawMessage `json:"trigger"`
	// TriggerFromStep limits the rule to that step and the steps after it.
	TriggerFromStep string   `json:"trigger_from_step,omitempty"`
	Actions         []Action `json:"actions"`
}

func (r Rule) Validate() error {
	if len(r.Trigger) == 0 || !json.Valid(r.Trigger) {
		return errors.New("rule trigger is not valid JSON")
	}
	if len(r.Actions) == 0 {
		return errors.New("rule has no actions")
	}
	var errs []error
	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("action %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ForStep returns the rules that apply on step position current. stepIndex maps a
// slug to its position; rules whose trigger step is unknown are dropped.
func ForStep(rules []Rule, current int, stepIndex func(slug string) int) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.TriggerFromStep == "" {
			out = append(out, r)
			continue
		}
		if from := stepIndex(r.TriggerFromStep); from >= 0 && current >= from {
			out = append(out, r)
		}
	}
	return out
}

// HiddenActionComponents returns the keys of the components whose hidden property
// some rule sets, whether or not the rule triggers. Their static hidden flag must not
// decide visibility on its own.
func HiddenActionComponents(rules []Rule) []string {
	var keys []string
	for _, r := range rules {
		for _, a := range r.Actions {
			if a.hides() && !slices.Contains(keys, a.Component) {
				keys = append(keys, a.Component)
			}
		}
	}
	return keys
}
