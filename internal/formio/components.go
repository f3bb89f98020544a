package formio

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default is the registry holding every built-in component type.
var Default = NewRegistry()

func init() {
	registerBuiltins(Default)
}

func registerBuiltins(r *Registry) {
	for _, name := range []string{
		"textfield", "email", "textarea", "password", "phoneNumber", "iban", "bsn",
		"licenseplate", "select", "radio", "signature", "cosign", "npFamilyMembers",
	} {
		r.MustRegister(name, textHandler{})
	}
	r.MustRegister("postcode", postcodeHandler{})
	r.MustRegister("number", numberHandler{})
	r.MustRegister("currency", numberHandler{})
	r.MustRegister("checkbox", checkboxHandler{})
	r.MustRegister("selectboxes", selectboxesHandler{})
	r.MustRegister("date", dateHandler{})
	r.MustRegister("datetime", datetimeHandler{})
	r.MustRegister("time", temporalHandler{})
	r.MustRegister("map", nullHandler{})
	r.MustRegister("file", listHandler{})
	r.MustRegister("fieldset", containerHandler{})
	r.MustRegister("columns", columnsHandler{})
	r.MustRegister("editgrid", editGridHandler{})
	for _, name := range []string{"content", "htmlelement", "softRequiredErrors"} {
		r.MustRegister(name, layoutHandler{})
	}
}

func isTemporal(typeName string) bool {
	switch typeName {
	case "date", "time", "datetime":
		return true
	}
	return false
}

// leaf provides the no-op parts shared by value components.
type leaf struct{}

func (leaf) TestConditional(Component, any, any) (bool, bool) { return false, false }
func (leaf) ApplyVisibility(VisibilityContext, Component) error { return nil }

type textHandler struct{ leaf }

func (textHandler) EmptyValue(Component) any { return "" }

type nullHandler struct{ leaf }

func (nullHandler) EmptyValue(Component) any { return nil }

type listHandler struct{ leaf }

func (listHandler) EmptyValue(Component) any { return []any{} }

type layoutHandler struct{ leaf }

func (layoutHandler) EmptyValue(Component) any { return nil }

var postcodePattern = regexp.MustCompile(`^([1-9][0-9]{3})\s*([a-zA-Z]{2})$`)

type postcodeHandler struct{ textHandler }

// Normalize formats Dutch postcodes as "1234 AB". Other strings pass through.
func (postcodeHandler) Normalize(_ Component, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	m := postcodePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return value
	}
	return m[1] + " " + strings.ToUpper(m[2])
}

type numberHandler struct{ nullHandler }

func (numberHandler) Normalize(_ Component, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return value
	}
	return f
}

type checkboxHandler struct{ leaf }

func (checkboxHandler) EmptyValue(Component) any { return false }

// TestConditional accepts compare values stored as strings by the form builder.
func (checkboxHandler) TestConditional(_ Component, value, compareValue any) (bool, bool) {
	want, ok := asBool(compareValue)
	if !ok {
		return false, false
	}
	got, _ := asBool(value)
	return got == want, true
}

func (checkboxHandler) Normalize(_ Component, value any) any {
	if b, ok := asBool(value); ok {
		return b
	}
	return value
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	case nil:
		return false, true
	}
	return false, false
}

type selectboxesHandler struct{ leaf }

// EmptyValue maps every option to false.
func (selectboxesHandler) EmptyValue(c Component) any {
	out := map[string]any{}
	for _, opt := range children(c["values"]) {
		if v, ok := opt["value"].(string); ok && v != "" {
			out[v] = false
		}
	}
	return out
}

// TestConditional is triggered when the compared option is checked.
func (selectboxesHandler) TestConditional(_ Component, value, compareValue any) (bool, bool) {
	option, ok := compareValue.(string)
	if !ok {
		return false, false
	}
	selected, ok := asObject(value)
	if !ok {
		return false, true
	}
	checked, _ := selected[option].(bool)
	return checked, true
}

type temporalHandler struct{ nullHandler }

type dateHandler struct{ temporalHandler }

// Normalize reduces datetimes to their ISO date.
func (dateHandler) Normalize(_ Component, value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(s) > len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
			return s[:len(time.DateOnly)]
		}
	}
	return value
}

type datetimeHandler struct{ temporalHandler }

// Normalize turns a bare date into midnight UTC.
func (datetimeHandler) Normalize(_ Component, value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return value
}

type containerHandler struct{ layoutHandler }

func (containerHandler) ApplyVisibility(vc VisibilityContext, c Component) error {
	return vc.Process(c)
}

type columnsHandler struct{ layoutHandler }

func (columnsHandler) ApplyVisibility(vc VisibilityContext, c Component) error {
	for _, column := range c.Columns() {
		if err := vc.Process(column); err != nil {
			return err
		}
	}
	return nil
}

type editGridHandler struct{ listHandler }

// ApplyVisibility evaluates the nested components once per row. Conditionals inside a
// row see the outer data overlaid with the row's own values.
func (editGridHandler) ApplyVisibility(vc VisibilityContext, c Component) error {
	rows, ok := asList(vc.Data.Value(c.Key()))
	if !ok {
		return nil
	}
	outer, outerEval := vc.Data, vc.EvaluationData
	for _, raw := range rows {
		rowData, ok := asObject(raw)
		if !ok {
			continue
		}
		rowVC := vc
		rowVC.Data = Data(rowData)
		rowVC.EvaluationData = func(row Data) Data {
			base := outer
			if outerEval != nil {
				base = outerEval(outer)
			}
			merged := make(Data, len(base)+len(row))
			for k, v := range base {
				merged[k] = v
			}
			for k, v := range row {
				merged[k] = v
			}
			return merged
		}
		if err := rowVC.Process(c); err != nil {
			return err
		}
	}
	return nil
}
