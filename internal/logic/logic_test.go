package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"formflow/internal/formio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{json.Number("0"), false},
		{json.Number("0.5"), true},
		{float64(0), false},
		{"", false},
		{"no", true},
		{[]any{}, false},
		{[]any{false}, true},
		{map[string]any{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.value), "%#v", tt.value)
	}
}

func TestApply(t *testing.T) {
	data := formio.Data{"name": "Kim", "address": map[string]any{"city": "Utrecht"}, "age": json.Number("41")}

	got, err := Apply(raw(`{"==":[{"var":"address.city"},"Utrecht"]}`), data)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = Apply(raw(`{"+":[{"var":"age"},1]}`), data)
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), got)

	got, err = Apply(raw(`{"cat":["Hi ",{"var":"name"}]}`), data)
	require.NoError(t, err)
	assert.Equal(t, "Hi Kim", got)

	_, err = Apply(raw(`{"==":`), data)
	assert.Error(t, err)
}

func TestRule_Validate(t *testing.T) {
	valid := Rule{Trigger: raw(`true`), Actions: []Action{{Type: ActionDisableNext}}}
	require.NoError(t, valid.Validate())

	tests := map[string]Rule{
		"missing trigger":  {Actions: []Action{{Type: ActionDisableNext}}},
		"broken trigger":   {Trigger: raw(`{"var"`), Actions: []Action{{Type: ActionDisableNext}}},
		"no actions":       {Trigger: raw(`true`)},
		"unknown action":   {Trigger: raw(`true`), Actions: []Action{{Type: "fetch-from-service"}}},
		"property no key":  {Trigger: raw(`true`), Actions: []Action{{Type: ActionProperty, Property: "hidden"}}},
		"variable no expr": {Trigger: raw(`true`), Actions: []Action{{Type: ActionVariable, Variable: "total"}}},
		"step no slug":     {Trigger: raw(`true`), Actions: []Action{{Type: ActionStepNotApplicable}}},
	}
	for name, rule := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, rule.Validate())
		})
	}
}

func TestRule_DecodesFromJSON(t *testing.T) {
	var rule Rule
	require.NoError(t, json.Unmarshal([]byte(`{
		"trigger": {"==": [{"var": "married"}, "yes"]},
		"trigger_from_step": "partner",
		"actions": [
			{"type": "property", "component": "partnerName", "property": "validate.required", "state": true},
			{"type": "variable", "variable": "adults", "value": {"+": [1, 1]}}
		]
	}`), &rule))

	require.NoError(t, rule.Validate())
	assert.Equal(t, "partner", rule.TriggerFromStep)
	assert.Equal(t, true, rule.Actions[0].State)
	assert.JSONEq(t, `{"+": [1, 1]}`, string(rule.Actions[1].Value))
}

func TestForStep(t *testing.T) {
	index := map[string]int{"person": 0, "partner": 1}
	stepIndex := func(slug string) int {
		if i, ok := index[slug]; ok {
			return i
		}
		return -1
	}
	rules := []Rule{
		{Trigger: raw(`true`)},
		{Trigger: raw(`false`), TriggerFromStep: "partner"},
		{Trigger: raw(`null`), TriggerFromStep: "removed"},
	}

	assert.Len(t, ForStep(rules, 0, stepIndex), 1)
	got := ForStep(rules, 1, stepIndex)
	require.Len(t, got, 2)
	assert.Equal(t, "partner", got[1].TriggerFromStep)
}

func TestHiddenActionComponents(t *testing.T) {
	rules := []Rule{
		{Actions: []Action{
			{Type: ActionProperty, Component: "nickname", Property: PropertyHidden, State: false},
			{Type: ActionProperty, Component: "email", Property: "validate.required", State: true},
		}},
		{Actions: []Action{
			{Type: ActionProperty, Component: "nickname", Property: PropertyHidden, State: true},
			{Type: ActionProperty, Component: "iban", Property: PropertyHidden, State: true},
			{Type: ActionVariable, Variable: "hidden"},
		}},
	}
	assert.Equal(t, []string{"nickname", "iban"}, HiddenActionComponents(rules))
	assert.Empty(t, HiddenActionComponents(nil))
}

type EvaluatorSuite struct {
	suite.Suite
	ctx       context.Context
	logs      *bytes.Buffer
	evaluator *Evaluator
	config    formio.Component
	wrapper   *formio.ConfigurationWrapper
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.logs = &bytes.Buffer{}
	s.evaluator = NewEvaluator(WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))))
	s.config = formio.Component{"components": []any{
		map[string]any{"key": "name", "type": "textfield"},
		map[string]any{"key": "nickname", "type": "textfield", "hidden": true},
		map[string]any{"key": "postcode", "type": "postcode"},
		map[string]any{"key": "email", "type": "email", "validate": map[string]any{"required": false}},
	}}
	s.wrapper = formio.NewConfigurationWrapper(s.config)
}

func (s *EvaluatorSuite) TestVariablesAreVisibleToLaterRules() {
	rules := []Rule{
		{Trigger: raw(`true`), Actions: []Action{
			{Type: ActionVariable, Variable: "greeting", Value: raw(`{"cat":["Hello ",{"var":"name"}]}`)},
		}},
		{Trigger: raw(`{"==":[{"var":"greeting"},"Hello Kim"]}`), Actions: []Action{
			{Type: ActionProperty, Component: "email", Property: "validate.required", State: true},
		}},
	}
	data := formio.Data{"name": "Kim"}

	out, err := s.evaluator.Evaluate(s.ctx, rules, data, s.wrapper)
	s.Require().NoError(err)
	s.Equal("Hello Kim", data["greeting"])
	s.Equal(map[string]any{"greeting": "Hello Kim"}, out.Variables)
	s.Require().Len(out.Properties, 1)
	s.Equal("email", out.Properties[0].Component)
}

func (s *EvaluatorSuite) TestVariableValuesAreNormalized() {
	rules := []Rule{{Trigger: raw(`true`), Actions: []Action{
		{Type: ActionVariable, Variable: "postcode", Value: raw(`"1234ab"`)},
	}}}
	data := formio.Data{}

	out, err := s.evaluator.Evaluate(s.ctx, rules, data, s.wrapper)
	s.Require().NoError(err)
	s.Equal("1234 AB", data["postcode"])
	s.Equal("1234 AB", out.Variables["postcode"])
}

func (s *EvaluatorSuite) TestStepActions() {
	rules := []Rule{
		{Trigger: raw(`true`), Actions: []Action{{Type: ActionStepNotApplicable, Step: "partner"}}},
		{Trigger: raw(`{"var":"married"}`), Actions: []Action{{Type: ActionStepApplicable, Step: "partner"}}},
		{Trigger: raw(`{"!":[{"var":"name"}]}`), Actions: []Action{{Type: ActionDisableNext}}},
	}

	out, err := s.evaluator.Evaluate(s.ctx, rules, formio.Data{"married": false, "name": "Kim"}, s.wrapper)
	s.Require().NoError(err)
	s.False(out.Applicable("partner"))
	s.True(out.Applicable("person"))
	s.False(out.DisableNext)

	out, err = s.evaluator.Evaluate(s.ctx, rules, formio.Data{"married": true, "name": ""}, s.wrapper)
	s.Require().NoError(err)
	s.True(out.Applicable("partner"), "the last matching action wins")
	s.True(out.DisableNext)
}

func (s *EvaluatorSuite) TestUntriggeredRuleClearsComponentHiddenByDefault() {
	rules := []Rule{{Trigger: raw(`{"==":[{"var":"name"},"Kim"]}`), Actions: []Action{
		{Type: ActionProperty, Component: "nickname", Property: PropertyHidden, State: false},
	}}}

	data := formio.Data{"name": "Sam", "nickname": "smuggled"}
	out, err := s.evaluator.Evaluate(s.ctx, rules, data, s.wrapper)
	s.Require().NoError(err)
	s.Empty(out.Properties)
	s.Equal("", data["nickname"])

	data = formio.Data{"name": "Kim", "nickname": "K"}
	out, err = s.evaluator.Evaluate(s.ctx, rules, data, s.wrapper)
	s.Require().NoError(err)
	s.Len(out.Properties, 1)
	s.Equal("K", data["nickname"])
}

func (s *EvaluatorSuite) TestBrokenTriggerIsLoggedAndSkipped() {
	rules := []Rule{
		{Trigger: raw(`{"==":`), Actions: []Action{{Type: ActionDisableNext}}},
		{Trigger: raw(`true`), Actions: []Action{{Type: ActionVariable, Variable: "total", Value: raw(`{"+":`)}}},
	}

	data := formio.Data{}
	out, err := s.evaluator.Evaluate(s.ctx, rules, data, s.wrapper)
	s.Require().NoError(err)
	s.False(out.DisableNext)
	s.Empty(out.Variables)
	s.False(data.Has("total"))
	s.Contains(s.logs.String(), "logic.trigger_failed")
	s.Contains(s.logs.String(), "logic.variable_failed")
}

func (s *EvaluatorSuite) TestOutcomeApply() {
	out := &Outcome{Properties: []Action{
		{Type: ActionProperty, Component: "nickname", Property: PropertyHidden, State: false},
		{Type: ActionProperty, Component: "email", Property: "validate.required", State: true},
		{Type: ActionProperty, Component: "elsewhere", Property: PropertyHidden, State: true},
	}}
	configuration := s.config.Clone()
	out.Apply(configuration)

	w := formio.NewConfigurationWrapper(configuration)
	nickname, err := w.Component("nickname")
	s.Require().NoError(err)
	s.False(nickname.Hidden())
	email, err := w.Component("email")
	s.Require().NoError(err)
	s.Equal(true, formio.Data(email).Value("validate.required"))

	original, err := s.wrapper.Component("nickname")
	s.Require().NoError(err)
	s.True(original.Hidden(), "the source configuration is untouched")
}

func (s *EvaluatorSuite) TestResolveVisibilitySettlesChainedConditionals() {
	// c depends on b, which is listed after it; clearing b needs a second pass.
	config := formio.Component{"components": []any{
		map[string]any{"key": "c", "type": "textfield", "conditional": map[string]any{"show": true, "when": "b", "eq": "x"}},
		map[string]any{"key": "b", "type": "textfield", "conditional": map[string]any{"show": true, "when": "a", "eq": true}},
		map[string]any{"key": "a", "type": "checkbox"},
		map[string]any{"key": "nickname", "type": "textfield", "hidden": true},
	}}
	data := formio.Data{"a": false, "b": "x", "c": "y", "nickname": "K"}

	s.Require().NoError(s.evaluator.ResolveVisibility(config, data, nil, []string{"nickname"}))
	s.Equal(formio.Data{"a": false, "b": "", "c": "", "nickname": "K"}, data)

	s.Require().NoError(s.evaluator.ResolveVisibility(config, data, nil, nil))
	s.Equal("", data["nickname"])
}
