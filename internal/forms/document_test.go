package forms

import (
	"testing"

	dErrors "formflow/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const permitDocument = `{
	"id": "6f0c1b9e-8a41-4c53-9d0e-2b7b0c1e5a10",
	"name": "permit",
	"steps": [
		{"slug": "person", "configuration": {"components": [
			{"key": "married", "type": "radio"}
		]}},
		{"slug": "partner", "configuration": {"components": [
			{"key": "partnerName", "type": "textfield",
			 "conditional": {"show": true, "when": "married", "eq": "yes"}}
		]}}
	],
	"variables": [
		{"key": "married", "source": "component", "data_type": "string"},
		{"key": "partnerName", "source": "component", "data_type": "string"}
	],
	"registration_backend": {"plugin": "json_dump", "options": {"path": "submissions", "variables": ["married"]}}
}`

func TestDecode(t *testing.T) {
	form, err := Decode([]byte(permitDocument))
	require.NoError(t, err)

	assert.Equal(t, "6f0c1b9e-8a41-4c53-9d0e-2b7b0c1e5a10", form.ID.String())
	assert.Equal(t, "permit", form.Name)
	require.Len(t, form.Steps, 2)
	assert.Equal(t, "partner", form.Steps[1].Slug)
	assert.Len(t, form.Variables, 2)
	assert.Equal(t, "json_dump", form.RegistrationBackend.Plugin)
	assert.JSONEq(t, `{"path": "submissions", "variables": ["married"]}`, string(form.RegistrationBackend.Options))
}

func TestDecode_Rejects(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode([]byte(`{`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	t.Run("bad id", func(t *testing.T) {
		_, err := Decode([]byte(`{"id": "nope", "steps": [{"slug": "a"}]}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
	t.Run("no steps", func(t *testing.T) {
		_, err := Decode([]byte(`{"id": "6f0c1b9e-8a41-4c53-9d0e-2b7b0c1e5a10"}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
