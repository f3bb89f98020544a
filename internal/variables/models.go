// Package variables holds form variable definitions and the per-submission value state
// that step data, prefill results and initial data are reconciled into.
package variables

import (
	"time"

	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
)

// Source tells where a form variable is defined.
type Source string

const (
	SourceComponent   Source = "component"
	SourceUserDefined Source = "user_defined"
	SourceStatic      Source = "static"
)

// DataType is the declared type of a variable's value.
type DataType string

const (
	DataTypeString   DataType = "string"
	DataTypeBoolean  DataType = "boolean"
	DataTypeObject   DataType = "object"
	DataTypeArray    DataType = "array"
	DataTypeInt      DataType = "int"
	DataTypeFloat    DataType = "float"
	DataTypeDatetime DataType = "datetime"
	DataTypeDate     DataType = "date"
	DataTypeTime     DataType = "time"
)

// IdentifierRole selects whose identifier a prefill plugin looks up.
type IdentifierRole string

const (
	RoleMain       IdentifierRole = "main"
	RoleAuthorizee IdentifierRole = "authorizee"
)

// FormVariable is a named, typed slot declared on a form.
type FormVariable struct {
	Key                   string         `json:"key"`
	Name                  string         `json:"name,omitempty"`
	Source                Source         `json:"source"`
	DataType              DataType       `json:"data_type"`
	InitialValue          any            `json:"initial_value,omitempty"`
	PrefillPlugin         string         `json:"prefill_plugin,omitempty"`
	PrefillAttribute      string         `json:"prefill_attribute,omitempty"`
	PrefillIdentifierRole IdentifierRole `json:"prefill_identifier_role,omitempty"`
	PrefillOptions        map[string]any `json:"prefill_options,omitempty"`
}

// Validate enforces that a variable has plugin+attribute, plugin+options or neither.
func (v FormVariable) Validate() error {
	if v.Key == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "variable key is required")
	}
	switch v.Source {
	case SourceComponent, SourceUserDefined, SourceStatic:
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown variable source "+string(v.Source))
	}
	hasAttribute := v.PrefillAttribute != ""
	hasOptions := len(v.PrefillOptions) > 0
	switch {
	case hasAttribute && hasOptions:
		return dErrors.New(dErrors.CodeInvariantViolation, "variable "+v.Key+" has both prefill attribute and prefill options")
	case (hasAttribute || hasOptions) && v.PrefillPlugin == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "variable "+v.Key+" configures prefill without a plugin")
	case v.PrefillPlugin != "" && !hasAttribute && !hasOptions:
		return dErrors.New(dErrors.CodeInvariantViolation, "variable "+v.Key+" configures a prefill plugin without attribute or options")
	case hasOptions && v.Source != SourceUserDefined:
		return dErrors.New(dErrors.CodeInvariantViolation, "prefill options are only supported on user defined variables")
	}
	return nil
}

// AttributeBased reports whether the variable is prefilled by plugin attribute.
func (v FormVariable) AttributeBased() bool {
	if v.PrefillPlugin == "" || v.PrefillAttribute == "" {
		return false
	}
	return v.Source == SourceComponent || v.Source == SourceUserDefined
}

// OptionsBased reports whether the variable is prefilled through plugin options.
func (v FormVariable) OptionsBased() bool {
	return v.Source == SourceUserDefined && v.PrefillPlugin != "" && len(v.PrefillOptions) > 0
}

// HasPrefill reports whether the variable needs a prefill pass.
func (v FormVariable) HasPrefill() bool {
	return v.AttributeBased() || v.OptionsBased()
}

// Role returns the identifier role, main when unset.
func (v FormVariable) Role() IdentifierRole {
	if v.PrefillIdentifierRole == "" {
		return RoleMain
	}
	return v.PrefillIdentifierRole
}

// ValueSource tells how a submission value was obtained.
type ValueSource string

const (
	ValueSourceUserInput ValueSource = "user_input"
	ValueSourcePrefill   ValueSource = "prefill"
	ValueSourceLogic     ValueSource = "logic"
)

// SubmissionValue is the runtime value of one variable in one submission.
type SubmissionValue struct {
	SubmissionID         id.SubmissionID
	Key                  string
	Value                any
	Source               ValueSource
	IsInitiallyPrefilled bool
	CreatedAt            time.Time
	ModifiedAt           time.Time
	// Saved is false for values that only exist in memory.
	Saved bool
}
