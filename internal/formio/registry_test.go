package formio

import (
	"strings"
	"testing"

	dErrors "formflow/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("textfield", textHandler{}))

	err := r.Register("textfield", textHandler{})
	assert.ErrorIs(t, err, ErrDuplicateType)

	err = r.Register("", textHandler{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = r.Register(strings.Repeat("x", MaxTypeNameLength+1), textHandler{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.NoError(t, r.Register(strings.Repeat("x", MaxTypeNameLength), textHandler{}))
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("textfield", textHandler{})
	assert.Panics(t, func() { r.MustRegister("textfield", textHandler{}) })
}

func TestRegistry_LookupUnknown(t *testing.T) {
	_, err := NewRegistry().Lookup("nope")
	assert.ErrorIs(t, err, ErrUnregisteredType)
}

func TestRegistry_TestConditional(t *testing.T) {
	tests := []struct {
		name      string
		trigger   Component
		value     any
		compare   any
		triggered bool
		wantErr   error
	}{
		{"equal strings", Component{"type": "textfield"}, "yes", "yes", true, nil},
		{"different strings", Component{"type": "textfield"}, "no", "yes", false, nil},
		{"nil differs from empty string", Component{"type": "textfield"}, nil, "", false, nil},
		{"numbers compare by value", Component{"type": "number"}, float64(3), 3, true, nil},
		{"membership for multiple", Component{"type": "textfield", "multiple": true}, []any{"a", "b"}, "b", true, nil},
		{"no membership for multiple", Component{"type": "textfield", "multiple": true}, []any{"a"}, "b", false, nil},
		{"nil multiple value", Component{"type": "textfield", "multiple": true}, nil, "b", false, nil},
		{"non list multiple value", Component{"type": "textfield", "multiple": true, "key": "m"}, "a", "a", false, ErrNotASequence},
		{"checkbox string compare", Component{"type": "checkbox"}, true, "true", true, nil},
		{"checkbox unchecked", Component{"type": "checkbox"}, nil, "true", false, nil},
		{"selectboxes option checked", Component{"type": "selectboxes"}, map[string]any{"a": true, "b": false}, "a", true, nil},
		{"selectboxes option unchecked", Component{"type": "selectboxes"}, map[string]any{"a": true, "b": false}, "b", false, nil},
		{"unregistered type", Component{"type": "mystery"}, "x", "x", false, ErrUnregisteredType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triggered, err := Default.TestConditional(tt.trigger, tt.value, tt.compare)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.triggered, triggered)
		})
	}
}

func TestRegistry_EmptyValue(t *testing.T) {
	tests := []struct {
		name      string
		component Component
		want      any
	}{
		{"textfield", Component{"type": "textfield"}, ""},
		{"number", Component{"type": "number"}, nil},
		{"checkbox", Component{"type": "checkbox"}, false},
		{"date", Component{"type": "date"}, nil},
		{"multiple date", Component{"type": "date", "multiple": true}, nil},
		{"time", Component{"type": "time"}, nil},
		{"datetime", Component{"type": "datetime"}, nil},
		{"file", Component{"type": "file"}, []any{}},
		{"multiple textfield", Component{"type": "textfield", "multiple": true}, []any{}},
		{"selectboxes", Component{"type": "selectboxes", "values": []any{
			map[string]any{"value": "a", "label": "A"},
			map[string]any{"value": "b", "label": "B"},
		}}, map[string]any{"a": false, "b": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default.EmptyValue(tt.component)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		component Component
		in        any
		want      any
	}{
		{"postcode", Component{"type": "postcode"}, "1234ab", "1234 AB"},
		{"postcode passthrough", Component{"type": "postcode"}, "not a postcode", "not a postcode"},
		{"number from string", Component{"type": "number"}, "4,5", 4.5},
		{"checkbox from string", Component{"type": "checkbox"}, "true", true},
		{"date from datetime", Component{"type": "date"}, "2024-02-29T13:00:00Z", "2024-02-29"},
		{"multiple postcode", Component{"type": "postcode", "multiple": true}, []any{"1234ab"}, []any{"1234 AB"}},
		{"no normalizer", Component{"type": "textfield"}, 42, 42},
		{"unknown type", Component{"type": "mystery"}, "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Default.Normalize(tt.component, tt.in))
		})
	}
}
