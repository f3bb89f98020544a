// Package appointments holds the appointments booked for submissions and the contract
// with the booking systems that take them.
package appointments

import (
	"time"

	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
)

type Product struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

// Appointment is the booking request of one submission. A submission has at most one.
type Appointment struct {
	SubmissionID id.SubmissionID
	Plugin       string
	Location     string
	StartTime    time.Time
	Contact      map[string]any
	Products     []Product
}

func (a Appointment) Validate() error {
	switch {
	case a.Location == "":
		return dErrors.New(dErrors.CodeValidation, "appointment location is required")
	case a.StartTime.IsZero():
		return dErrors.New(dErrors.CodeValidation, "appointment start time is required")
	case len(a.Products) == 0:
		return dErrors.New(dErrors.CodeValidation, "appointment needs at least one product")
	}
	for _, p := range a.Products {
		if p.ID == "" || p.Amount < 1 {
			return dErrors.New(dErrors.CodeValidation, "appointment products need an id and a positive amount")
		}
	}
	return nil
}
