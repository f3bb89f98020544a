package service

import (
	"context"
	"slices"

	"formflow/internal/formio"
	"formflow/internal/forms"
	"formflow/internal/logic"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"
)

// StepView is a step configuration ready to render, with the values saved so far.
type StepView struct {
	Slug          string
	Configuration formio.Component
	Data          formio.Data
	// CanSubmit is false when a logic rule blocks submitting the step.
	CanSubmit bool
}

// GetStep returns a copy of the step configuration with the logic rules applied and
// prefilled values injected as component defaults.
func (s *Service) GetStep(ctx context.Context, submissionID id.SubmissionID, slug string) (*StepView, error) {
	sub, form, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	step, err := form.Step(slug)
	if err != nil {
		return nil, err
	}

	configuration := step.Configuration.Clone()
	prefilled, err := s.prefill.PrefilledData(ctx, sub, form)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prefilled data")
	}
	s.prefill.InjectPrefill(ctx, sub, configuration, prefilled)

	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, form.Wrapper(), s.components)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission values")
	}
	outcome, err := s.logic.Evaluate(ctx, form.RulesForStep(slug), state.Data(true), form.Wrapper())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid form configuration")
	}
	outcome.Apply(configuration)

	return &StepView{
		Slug:          slug,
		Configuration: configuration,
		Data:          stepData(configuration, state.Data(false)),
		CanSubmit:     !outcome.DisableNext,
	}, nil
}

// StepInput is the data posted for one step.
type StepInput struct {
	Data formio.Data
}

// StepResult is what SubmitStep stored and which posted values it changed.
type StepResult struct {
	Data formio.Data
	// Changed holds the values visibility evaluation or logic replaced, keyed by
	// component key.
	Changed formio.Data
	// NotApplicable lists the steps the logic rules switched off, in form order.
	NotApplicable []string
}

// SubmitStep evaluates the step against the posted data merged with the rest of the
// submission and stores the step data. Hidden values are cleared first; only logic
// rules of the form can exempt a statically hidden component. The rules then run in
// order and their variable assignments are stored with the step.
func (s *Service) SubmitStep(ctx context.Context, submissionID id.SubmissionID, slug string, input StepInput) (*StepResult, error) {
	sub, form, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.IsCompleted() {
		return nil, dErrors.New(dErrors.CodeConflict, "submission is already completed")
	}
	step, err := form.Step(slug)
	if err != nil {
		return nil, err
	}

	wrapper := form.Wrapper()
	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, wrapper, s.components)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission values")
	}
	posted := input.Data.Clone()
	state.SetValues(posted)

	data := state.Data(true)
	data.Update(posted.Clone())

	rules := form.RulesForStep(slug)
	if err := s.logic.ResolveVisibility(step.Configuration, data, wrapper, logic.HiddenActionComponents(rules)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid form configuration")
	}
	outcome, err := s.logic.Evaluate(ctx, rules, data, wrapper)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid form configuration")
	}
	if outcome.DisableNext {
		return nil, dErrors.New(dErrors.CodeForbidden, "step cannot be submitted")
	}

	// Components the rules hid are cleared like statically hidden ones.
	configuration := step.Configuration.Clone()
	outcome.Apply(configuration)
	if err := s.logic.ResolveVisibility(configuration, data, wrapper, nil); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid form configuration")
	}
	saved := formio.Data{}
	if outcome.Applicable(slug) {
		saved = stepData(configuration, data)
	}
	changed := formio.Data{}
	for key, value := range saved {
		before, ok := posted.Get(key)
		_, assigned := outcome.Variables[key]
		if (ok && !formio.ValuesEqual(before, value)) || (!ok && assigned) {
			changed[key] = value
		}
	}

	if err := s.values.SaveValues(ctx, sub.ID, saved, variables.ValueSourceUserInput); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save step data")
	}
	if derived := logicValues(state, outcome, saved); len(derived) > 0 {
		if err := s.values.SaveValues(ctx, sub.ID, derived, variables.ValueSourceLogic); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save logic variables")
		}
	}
	sub.MarkStepCompleted(slug)
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save submission")
	}

	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventSubmissionStepSaved,
		"step", slug,
		"cleared", len(changed),
	)
	return &StepResult{Data: saved, Changed: changed, NotApplicable: notApplicable(form, outcome)}, nil
}

// applicability evaluates every rule of the form against the saved submission data
// and reports which steps stay applicable.
func (s *Service) applicability(ctx context.Context, sub *models.Submission, form *forms.Form) (func(slug string) bool, error) {
	if len(form.Logic) == 0 || len(form.Steps) == 0 {
		return nil, nil
	}
	wrapper := form.Wrapper()
	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, wrapper, s.components)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission values")
	}
	last := form.Steps[len(form.Steps)-1].Slug
	outcome, err := s.logic.Evaluate(ctx, form.RulesForStep(last), state.Data(true), wrapper)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid form configuration")
	}
	return outcome.Applicable, nil
}

// logicValues picks the variables assigned by logic that are declared on the form and
// not already stored as step data.
func logicValues(state *variables.State, outcome *logic.Outcome, saved formio.Data) map[string]any {
	out := map[string]any{}
	for key, value := range outcome.Variables {
		if _, declared := state.Definition(key); !declared || saved.Has(key) {
			continue
		}
		out[key] = value
	}
	return out
}

func notApplicable(form *forms.Form, outcome *logic.Outcome) []string {
	var out []string
	for _, step := range form.Steps {
		if !outcome.Applicable(step.Slug) {
			out = append(out, step.Slug)
		}
	}
	return slices.Clip(out)
}

// stepData picks the values of the keyed components of configuration from data.
func stepData(configuration formio.Component, data formio.Data) formio.Data {
	out := formio.Data{}
	formio.NewConfigurationWrapper(configuration).Walk(func(c formio.Component) {
		key := c.Key()
		if key == "" {
			return
		}
		if v, ok := data.Get(key); ok {
			out.Set(key, v)
		}
	})
	return out
}
