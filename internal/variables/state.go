package variables

import (
	"context"
	"fmt"

	"formflow/internal/formio"
	id "formflow/pkg/domain"
)

// Store persists submission values.
type Store interface {
	LoadValues(ctx context.Context, submissionID id.SubmissionID) ([]SubmissionValue, error)
	// SavePrefill writes the given values with source prefill as one atomic batch.
	// Existing values for the same keys are replaced.
	SavePrefill(ctx context.Context, submissionID id.SubmissionID, values map[string]any) error
	// SaveValues upserts values with the given source.
	SaveValues(ctx context.Context, submissionID id.SubmissionID, values map[string]any, source ValueSource) error
}

// State is the value state of one submission. It is built per invocation and never
// shared between submissions.
type State struct {
	submissionID id.SubmissionID
	order        []string
	definitions  map[string]FormVariable
	values       map[string]*SubmissionValue
	wrapper      *formio.ConfigurationWrapper
	registry     *formio.Registry
}

// NewState builds the state from the form's variable definitions and the values saved
// so far. Every declared variable gets a slot; unsaved slots start at the initial value.
func NewState(submissionID id.SubmissionID, definitions []FormVariable, saved []SubmissionValue, wrapper *formio.ConfigurationWrapper, registry *formio.Registry) *State {
	if registry == nil {
		registry = formio.Default
	}
	s := &State{
		submissionID: submissionID,
		order:        make([]string, 0, len(definitions)),
		definitions:  make(map[string]FormVariable, len(definitions)),
		values:       make(map[string]*SubmissionValue, len(definitions)),
		wrapper:      wrapper,
		registry:     registry,
	}
	for _, def := range definitions {
		if _, dup := s.definitions[def.Key]; dup {
			continue
		}
		s.order = append(s.order, def.Key)
		s.definitions[def.Key] = def
		s.values[def.Key] = &SubmissionValue{
			SubmissionID:         submissionID,
			Key:                  def.Key,
			Value:                def.InitialValue,
			IsInitiallyPrefilled: def.HasPrefill(),
		}
	}
	for _, v := range saved {
		slot, ok := s.values[v.Key]
		if !ok {
			continue
		}
		slot.Value = v.Value
		slot.Source = v.Source
		slot.CreatedAt = v.CreatedAt
		slot.ModifiedAt = v.ModifiedAt
		slot.Saved = true
	}
	return s
}

// Load is NewState with the saved values read from store.
func Load(ctx context.Context, store Store, submissionID id.SubmissionID, definitions []FormVariable, wrapper *formio.ConfigurationWrapper, registry *formio.Registry) (*State, error) {
	saved, err := store.LoadValues(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load submission values: %w", err)
	}
	return NewState(submissionID, definitions, saved, wrapper, registry), nil
}

func (s *State) SubmissionID() id.SubmissionID { return s.submissionID }

// Wrapper returns the configuration of every step of the form.
func (s *State) Wrapper() *formio.ConfigurationWrapper { return s.wrapper }

// Variable returns the value slot for key.
func (s *State) Variable(key string) (*SubmissionValue, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Definition returns the form variable declared under key.
func (s *State) Definition(key string) (FormVariable, bool) {
	d, ok := s.definitions[key]
	return d, ok
}

// PrefillVariables returns the definitions of variables flagged as initially
// prefilled, in declaration order.
func (s *State) PrefillVariables() []FormVariable {
	var out []FormVariable
	for _, key := range s.order {
		if s.values[key].IsInitiallyPrefilled {
			out = append(out, s.definitions[key])
		}
	}
	return out
}

// Partition splits the prefill variables into attribute-based and options-based
// requests. A user defined variable may appear in both.
func (s *State) Partition() (attribute, options []FormVariable) {
	for _, def := range s.PrefillVariables() {
		if def.AttributeBased() {
			attribute = append(attribute, def)
		}
		if def.OptionsBased() {
			options = append(options, def)
		}
	}
	return attribute, options
}

// Normalize coerces a value fetched for key. Component-backed variables go through
// their component type's normalizer; other variables keep the raw value.
func (s *State) Normalize(key string, value any) any {
	def, ok := s.definitions[key]
	if !ok || def.Source != SourceComponent || s.wrapper == nil {
		return value
	}
	component, err := s.wrapper.Component(key)
	if err != nil {
		return value
	}
	return s.registry.Normalize(component, value)
}

// SavePrefillData persists the values of known variables as one prefill batch and
// mirrors them in memory. Unknown keys are dropped.
func (s *State) SavePrefillData(ctx context.Context, store Store, data map[string]any) error {
	batch := make(map[string]any, len(data))
	for key, value := range data {
		if _, ok := s.values[key]; ok {
			batch[key] = value
		}
	}
	if len(batch) == 0 {
		return nil
	}
	if err := store.SavePrefill(ctx, s.submissionID, batch); err != nil {
		return fmt.Errorf("save prefill data: %w", err)
	}
	for key, value := range batch {
		slot := s.values[key]
		slot.Value = value
		slot.Source = ValueSourcePrefill
		slot.Saved = true
	}
	return nil
}

// SetValues applies data to the in-memory state without persisting it.
func (s *State) SetValues(data formio.Data) {
	for key, slot := range s.values {
		if v, ok := data.Get(key); ok {
			slot.Value = v
		}
	}
}

// Data returns the variable values. Unsaved slots are included on request.
func (s *State) Data(includeUnsaved bool) formio.Data {
	out := make(formio.Data, len(s.values))
	for key, slot := range s.values {
		if !includeUnsaved && !slot.Saved {
			continue
		}
		out.Set(key, slot.Value)
	}
	return out
}

// PrefilledData returns the values whose current source is prefill.
func (s *State) PrefilledData() map[string]any {
	out := map[string]any{}
	for key, slot := range s.values {
		if slot.Source == ValueSourcePrefill {
			out[key] = slot.Value
		}
	}
	return out
}

// ValuesData turns stored values into form data keyed by variable key.
func ValuesData(values []SubmissionValue) formio.Data {
	out := make(formio.Data, len(values))
	for _, v := range values {
		out.Set(v.Key, v.Value)
	}
	return out
}
