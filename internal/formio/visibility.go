package formio

// VisibilityContext carries the evaluation state down the component tree.
type VisibilityContext struct {
	Data    Data
	Wrapper *ConfigurationWrapper
	// ParentHidden is set when an ancestor is hidden; conditionals are then skipped.
	ParentHidden bool
	// IgnoreHidden lists keys whose static "hidden" flag is ignored. A valid
	// conditional still takes precedence.
	IgnoreHidden map[string]struct{}
	// EvaluationData, when set, derives the data conditionals are evaluated against.
	EvaluationData func(Data) Data
	Registry       *Registry
}

// VisibilityOption configures ProcessVisibility.
type VisibilityOption func(*VisibilityContext)

func WithParentHidden(hidden bool) VisibilityOption {
	return func(vc *VisibilityContext) { vc.ParentHidden = hidden }
}

func WithIgnoreHidden(keys ...string) VisibilityOption {
	return func(vc *VisibilityContext) {
		if vc.IgnoreHidden == nil {
			vc.IgnoreHidden = make(map[string]struct{}, len(keys))
		}
		for _, k := range keys {
			vc.IgnoreHidden[k] = struct{}{}
		}
	}
}

func WithEvaluationData(fn func(Data) Data) VisibilityOption {
	return func(vc *VisibilityContext) { vc.EvaluationData = fn }
}

func WithRegistry(r *Registry) VisibilityOption {
	return func(vc *VisibilityContext) { vc.Registry = r }
}

// ProcessVisibility evaluates the visibility of every component below node and clears
// the values of hidden components in place. Cleared keys are set to the type's empty
// value, never deleted. The wrapper resolves conditional triggers that live outside
// node; when nil it is built from node.
func ProcessVisibility(node Component, data Data, wrapper *ConfigurationWrapper, opts ...VisibilityOption) error {
	vc := VisibilityContext{Data: data, Wrapper: wrapper, Registry: Default}
	for _, opt := range opts {
		opt(&vc)
	}
	if vc.Wrapper == nil {
		vc.Wrapper = NewConfigurationWrapper(node)
	}
	return vc.Process(node)
}

// Process walks the direct children of node in document order.
func (vc VisibilityContext) Process(node Component) error {
	for _, component := range node.Components() {
		hidden := vc.ParentHidden
		if !hidden {
			var err error
			if hidden, err = vc.IsHidden(component); err != nil {
				return err
			}
		}

		key := component.Key()
		if hidden && component.ClearOnHide() && key != "" && vc.Data.Has(key) {
			empty, err := vc.Registry.EmptyValue(component)
			if err != nil {
				return err
			}
			vc.Data.Set(key, empty)
		}

		if component.Type() == "softRequiredErrors" {
			continue
		}
		h, err := vc.Registry.Lookup(component.Type())
		if err != nil {
			return err
		}
		child := vc
		child.ParentHidden = hidden
		if err := h.ApplyVisibility(child, component); err != nil {
			return err
		}
	}
	return nil
}

// IsHidden evaluates a single component, ignoring its ancestors.
func (vc VisibilityContext) IsHidden(component Component) (bool, error) {
	cond, ok := component.Conditional()
	if !ok {
		if _, ignored := vc.IgnoreHidden[component.Key()]; ignored {
			return false, nil
		}
		return component.Hidden(), nil
	}

	data := vc.Data
	if vc.EvaluationData != nil {
		data = vc.EvaluationData(vc.Data)
	}
	trigger, err := vc.Wrapper.Component(cond.When)
	if err != nil {
		return false, err
	}
	triggered, err := vc.Registry.TestConditional(trigger, data.Value(cond.When), cond.Eq)
	if err != nil {
		return false, err
	}
	if triggered {
		return !cond.Show, nil
	}
	return cond.Show, nil
}
