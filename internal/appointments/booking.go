package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formflow/internal/platform/jsonclient"
)

//go:generate mockgen -source=booking.go -destination=mocks/booking_mock.go -package=mocks Booker

// ErrCreateFailed is returned when the booking system did not create the appointment.
var ErrCreateFailed = errors.New("appointment create failed")

// Booker creates appointments in an external booking system.
type Booker interface {
	Identifier() string
	CreateAppointment(ctx context.Context, appt Appointment, remarks string) (string, error)
}

// HTTPBooker books through a JSON API exposing POST /appointments.
type HTTPBooker struct {
	identifier string
	client     *jsonclient.Client
}

func NewHTTPBooker(identifier string, client *jsonclient.Client) *HTTPBooker {
	return &HTTPBooker{identifier: identifier, client: client}
}

func (b *HTTPBooker) Identifier() string { return b.identifier }

type bookingRequest struct {
	Location string         `json:"location"`
	Start    time.Time      `json:"start"`
	Products []Product      `json:"products"`
	Customer map[string]any `json:"customer"`
	Remarks  string         `json:"remarks,omitempty"`
}

type bookingResponse struct {
	ID string `json:"id"`
}

func (b *HTTPBooker) CreateAppointment(ctx context.Context, appt Appointment, remarks string) (string, error) {
	req := bookingRequest{
		Location: appt.Location,
		Start:    appt.StartTime,
		Products: appt.Products,
		Customer: appt.Contact,
		Remarks:  remarks,
	}
	var resp bookingResponse
	if err := b.client.Post(ctx, "appointments", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: booking system returned no id", ErrCreateFailed)
	}
	return resp.ID, nil
}
