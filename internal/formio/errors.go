package formio

import "errors"

var (
	// ErrUnregisteredType is returned when no handler exists for a component type.
	ErrUnregisteredType = errors.New("unregistered component type")
	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("component type already registered")
	// ErrComponentNotFound is returned by configuration lookups for unknown keys.
	ErrComponentNotFound = errors.New("component not found")
	// ErrNotASequence is returned when a multiple component holds a non-list value.
	ErrNotASequence = errors.New("value of multiple component is not a list")
)
