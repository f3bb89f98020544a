// Package forms holds form definitions: the ordered steps with their Formio
// configuration and the variables declared on the form.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"

	"formflow/internal/formio"
	"formflow/internal/logic"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
)

// Backend selects the registration plugin for a form and its raw options.
// Options are validated by the plugin, never by the form.
type Backend struct {
	Plugin  string          `json:"plugin"`
	Options json.RawMessage `json:"options,omitempty"`
}

// Configured reports whether a registration plugin is selected.
func (b Backend) Configured() bool { return b.Plugin != "" }

// Step is one page of the form wizard.
type Step struct {
	Slug          string           `json:"slug"`
	Configuration formio.Component `json:"configuration"`
}

type Form struct {
	ID                  id.FormID
	Name                string
	Steps               []Step
	Variables           []variables.FormVariable
	Logic               []logic.Rule
	RegistrationBackend Backend
}

// Wrapper indexes the components of every step so conditionals can refer across steps.
func (f *Form) Wrapper() *formio.ConfigurationWrapper {
	if len(f.Steps) == 0 {
		return formio.NewConfigurationWrapper(formio.Component{})
	}
	w := formio.NewConfigurationWrapper(f.Steps[0].Configuration)
	for _, step := range f.Steps[1:] {
		w.Merge(step.Configuration)
	}
	return w
}

// Step returns the step with the given slug.
func (f *Form) Step(slug string) (Step, error) {
	for _, s := range f.Steps {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Step{}, dErrors.New(dErrors.CodeNotFound, "step not found: "+slug)
}

// StepIndex returns the position of the step with the given slug, -1 when unknown.
func (f *Form) StepIndex(slug string) int {
	for i, s := range f.Steps {
		if s.Slug == slug {
			return i
		}
	}
	return -1
}

// RulesForStep returns the logic rules evaluated on the given step.
func (f *Form) RulesForStep(slug string) []logic.Rule {
	return logic.ForStep(f.Logic, f.StepIndex(slug), f.StepIndex)
}

// Validate checks the structural rules a form must satisfy before it is stored.
func (f *Form) Validate() error {
	if f.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "form id is required")
	}
	if len(f.Steps) == 0 {
		return dErrors.New(dErrors.CodeValidation, "form needs at least one step")
	}
	seen := make(map[string]struct{}, len(f.Steps))
	for _, s := range f.Steps {
		if s.Slug == "" {
			return dErrors.New(dErrors.CodeValidation, "step slug is required")
		}
		if _, dup := seen[s.Slug]; dup {
			return dErrors.New(dErrors.CodeValidation, "duplicate step slug: "+s.Slug)
		}
		seen[s.Slug] = struct{}{}
	}

	var errs []error
	keys := make(map[string]struct{}, len(f.Variables))
	for _, v := range f.Variables {
		if _, dup := keys[v.Key]; dup {
			errs = append(errs, fmt.Errorf("duplicate variable key %q", v.Key))
			continue
		}
		keys[v.Key] = struct{}{}
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.validateConditionals(); err != nil {
		errs = append(errs, err)
	}
	if err := f.validateLogic(keys); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return dErrors.Wrap(errors.Join(errs...), dErrors.CodeInvariantViolation, "invalid form definition")
	}
	return nil
}

// validateConditionals checks that every conditional refers to a component that
// exists on some step of the form.
func (f *Form) validateConditionals() error {
	w := f.Wrapper()
	var errs []error
	w.Walk(func(c formio.Component) {
		cond, ok := c.Conditional()
		if !ok {
			return
		}
		if !w.Has(cond.When) {
			errs = append(errs, fmt.Errorf("component %q: conditional refers to unknown key %q", c.Key(), cond.When))
		}
	})
	return errors.Join(errs...)
}

// validateLogic checks every rule and that its actions refer to components, variables
// and steps of this form.
func (f *Form) validateLogic(variableKeys map[string]struct{}) error {
	w := f.Wrapper()
	var errs []error
	for i, rule := range f.Logic {
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("logic rule %d: %w", i, err))
			continue
		}
		if rule.TriggerFromStep != "" && f.StepIndex(rule.TriggerFromStep) < 0 {
			errs = append(errs, fmt.Errorf("logic rule %d: unknown trigger step %q", i, rule.TriggerFromStep))
		}
		for _, a := range rule.Actions {
			switch a.Type {
			case logic.ActionProperty:
				if !w.Has(a.Component) {
					errs = append(errs, fmt.Errorf("logic rule %d: unknown component %q", i, a.Component))
				}
			case logic.ActionVariable:
				if _, ok := variableKeys[a.Variable]; !ok && !w.Has(a.Variable) {
					errs = append(errs, fmt.Errorf("logic rule %d: unknown variable %q", i, a.Variable))
				}
			case logic.ActionStepApplicable, logic.ActionStepNotApplicable:
				if f.StepIndex(a.Step) < 0 {
					errs = append(errs, fmt.Errorf("logic rule %d: unknown step %q", i, a.Step))
				}
			}
		}
	}
	return errors.Join(errs...)
}
