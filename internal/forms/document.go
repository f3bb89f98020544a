package forms

import (
	"encoding/json"

	"formflow/internal/logic"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
)

// document is the JSON shape forms are imported from.
type document struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	Steps               []Step                   `json:"steps"`
	Variables           []variables.FormVariable `json:"variables"`
	Logic               []logic.Rule             `json:"logic"`
	RegistrationBackend Backend                  `json:"registration_backend"`
}

// Decode parses and validates a form document.
func Decode(data []byte) (*Form, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form document")
	}
	formID, err := id.ParseFormID(doc.ID)
	if err != nil {
		return nil, err
	}
	form := &Form{
		ID:                  formID,
		Name:                doc.Name,
		Steps:               doc.Steps,
		Variables:           doc.Variables,
		Logic:               doc.Logic,
		RegistrationBackend: doc.RegistrationBackend,
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form, nil
}
