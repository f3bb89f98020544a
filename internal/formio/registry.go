package formio

import (
	"fmt"
	"slices"
	"sync"

	dErrors "formflow/pkg/domain-errors"
)

// MaxTypeNameLength bounds registered component type names.
const MaxTypeNameLength = 50

// Handler implements the behaviour of one component type.
type Handler interface {
	// TestConditional performs a type specific comparison. ok=false means no opinion
	// and the registry falls back to membership (multiple) or equality.
	TestConditional(component Component, value, compareValue any) (triggered bool, ok bool)
	// ApplyVisibility propagates visibility to nested components. Leaves do nothing.
	ApplyVisibility(vc VisibilityContext, component Component) error
	// EmptyValue is written when a hidden component is cleared.
	EmptyValue(component Component) any
}

// Normalizer is implemented by handlers that coerce values from external sources
// (prefill, initial data) into the shape the component expects.
type Normalizer interface {
	Normalize(component Component, value any) any
}

// Registry maps component type names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds typeName to h.
func (r *Registry) Register(typeName string, h Handler) error {
	if typeName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "component type name is required")
	}
	if len(typeName) > MaxTypeNameLength {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("component type name exceeds %d characters", MaxTypeNameLength))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[typeName]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, typeName)
	}
	r.handlers[typeName] = h
	return nil
}

// MustRegister panics on registration errors. Use at init time.
func (r *Registry) MustRegister(typeName string, h Handler) {
	if err := r.Register(typeName, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for typeName.
func (r *Registry) Lookup(typeName string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredType, typeName)
	}
	return h, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// TestConditional evaluates whether a conditional on trigger is triggered by value.
func (r *Registry) TestConditional(trigger Component, value, compareValue any) (bool, error) {
	h, err := r.Lookup(trigger.Type())
	if err != nil {
		return false, err
	}
	if triggered, ok := h.TestConditional(trigger, value, compareValue); ok {
		return triggered, nil
	}
	if trigger.Multiple() {
		if value == nil {
			return false, nil
		}
		items, ok := asList(value)
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrNotASequence, trigger.Key())
		}
		return slices.ContainsFunc(items, func(item any) bool {
			return ValuesEqual(item, compareValue)
		}), nil
	}
	return ValuesEqual(value, compareValue), nil
}

// EmptyValue returns the value a hidden component is cleared to.
func (r *Registry) EmptyValue(component Component) (any, error) {
	h, err := r.Lookup(component.Type())
	if err != nil {
		return nil, err
	}
	if component.Multiple() && !isTemporal(component.Type()) {
		return []any{}, nil
	}
	return h.EmptyValue(component), nil
}

// Normalize coerces value through the type's normalizer. Unknown types and handlers
// without a normalizer return value unchanged.
func (r *Registry) Normalize(component Component, value any) any {
	h, err := r.Lookup(component.Type())
	if err != nil {
		return value
	}
	n, ok := h.(Normalizer)
	if !ok {
		return value
	}
	if component.Multiple() {
		if items, ok := asList(value); ok {
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = n.Normalize(component, item)
			}
			return out
		}
	}
	return n.Normalize(component, value)
}
