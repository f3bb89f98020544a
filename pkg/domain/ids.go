// Package domain holds the typed identifiers shared across modules.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "formflow/pkg/domain-errors"
)

// SubmissionID identifies one end-user run through a form.
type SubmissionID uuid.UUID

// FormID identifies a form definition.
type FormID uuid.UUID

func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id SubmissionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id FormID) String() string { return uuid.UUID(id).String() }
func (id FormID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the ID in its canonical string form for JSON and queue payloads.
func (id SubmissionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SubmissionID) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*id = SubmissionID(u)
	return nil
}

// NewSubmissionID returns a random submission ID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// NewFormID returns a random form ID.
func NewFormID() FormID { return FormID(uuid.New()) }

// ParseSubmissionID parses an ID received at a trust boundary (URL, CLI flag, queue message).
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubmissionID{}, err
	}
	return SubmissionID(u), nil
}

// ParseFormID parses a form ID received at a trust boundary.
func ParseFormID(s string) (FormID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return FormID{}, err
	}
	return FormID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be nil")
	}
	return u, nil
}
