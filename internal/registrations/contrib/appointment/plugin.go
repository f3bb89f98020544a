// Package appointment registers submissions by booking the appointment the user picked.
// The booking id is kept in the registration result so a retry never books twice.
// After booking, the submission can be handed on to a second backend.
package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"formflow/internal/appointments"
	"formflow/internal/formio"
	"formflow/internal/forms"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
)

const Identifier = "appointment"

// Result keys.
const (
	ResultAppointmentID      = "appointment_id"
	ResultStatus             = "status"
	ResultSecondRegistration = "second_registration"
)

// Form keys the booking details are read from.
const (
	KeyDate     = "appointmentDate"
	KeyTime     = "appointmentTime"
	KeyLocation = "appointmentLocation"
	KeyProduct  = "appointmentProduct"
	KeyRemarks  = "appointmentRemarks"
)

// contactFields maps form keys to the contact details sent to the booking system.
var contactFields = []struct{ formKey, contactKey string }{
	{"appointmentFirstName", "firstName"},
	{"appointmentLastName", "lastName"},
	{"appointmentEmail", "email"},
	{"appointmentPhone", "phone"},
	{"appointmentIdentificationNumber", "identificationNumber"},
	{"appointmentExternalID", "externalId"},
	{"appointmentDateOfBirth", "dateOfBirth"},
}

// Options may chain a second backend that runs after a successful booking.
type Options struct {
	Chain *forms.Backend `json:"chain,omitempty"`
}

// ValueLoader reads the stored submission values.
type ValueLoader interface {
	LoadValues(ctx context.Context, submissionID id.SubmissionID) ([]variables.SubmissionValue, error)
}

type Plugin struct {
	registrations.Base
	values       ValueLoader
	appointments appointments.Store
	booker       appointments.Booker
	chain        *registrations.Registry
	location     *time.Location
	logger       *slog.Logger
	enabled      bool
}

type Option func(*Plugin)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) { p.logger = logger }
}

// WithLocation sets the zone the appointment date and time are read in.
func WithLocation(loc *time.Location) Option {
	return func(p *Plugin) { p.location = loc }
}

// WithChain lets options name a second backend from plugins.
func WithChain(plugins *registrations.Registry) Option {
	return func(p *Plugin) { p.chain = plugins }
}

func Disabled() Option {
	return func(p *Plugin) { p.enabled = false }
}

func New(values ValueLoader, store appointments.Store, booker appointments.Booker, opts ...Option) *Plugin {
	p := &Plugin{
		values:       values,
		appointments: store,
		booker:       booker,
		location:     time.UTC,
		logger:       slog.Default(),
		enabled:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Identifier() string { return Identifier }
func (p *Plugin) IsEnabled() bool    { return p.enabled }

func (p *Plugin) DecodeOptions(raw json.RawMessage) (any, error) {
	var opts Options
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, err
		}
	}
	if opts.Chain != nil {
		if opts.Chain.Plugin == "" {
			return nil, errors.New("chain needs a plugin")
		}
		if opts.Chain.Plugin == Identifier {
			return nil, errors.New("chain cannot point at the appointment plugin")
		}
	}
	return opts, nil
}

func (p *Plugin) Register(ctx context.Context, sub *models.Submission, options any) (map[string]any, error) {
	opts, ok := options.(Options)
	if !ok {
		return nil, fmt.Errorf("unexpected options type %T", options)
	}

	var result map[string]any
	if existing, ok := sub.ResultString(ResultAppointmentID); ok {
		p.logger.InfoContext(ctx, "appointment already created, skipping appointment creation",
			"submission_id", sub.ID.String(), "appointment_id", existing)
		status, _ := sub.ResultString(ResultStatus)
		if status == "" {
			status = "success"
		}
		result = map[string]any{ResultAppointmentID: existing, ResultStatus: status}
	} else {
		appointmentID, err := p.book(ctx, sub)
		if err != nil {
			return nil, err
		}
		result = map[string]any{ResultAppointmentID: appointmentID, ResultStatus: "success"}
	}

	if opts.Chain != nil {
		if err := p.registerChain(ctx, sub, *opts.Chain, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Plugin) book(ctx context.Context, sub *models.Submission) (string, error) {
	values, err := p.values.LoadValues(ctx, sub.ID)
	if err != nil {
		return "", fmt.Errorf("load submission values: %w", err)
	}
	data := variables.ValuesData(values)

	appt, err := p.appointmentFrom(sub.ID, data)
	if err != nil {
		return "", registrations.Failed("invalid appointment data").WithCause(err)
	}
	if err := p.appointments.Save(ctx, appt); err != nil {
		return "", fmt.Errorf("save appointment: %w", err)
	}

	remarks, _ := data.Value(KeyRemarks).(string)
	appointmentID, err := p.booker.CreateAppointment(ctx, appt, remarks)
	if err != nil {
		p.logger.ErrorContext(ctx, "appointment creation failed",
			"submission_id", sub.ID.String(), "plugin", p.booker.Identifier(), "error", err)
		return "", registrations.Failed("unable to create appointment").WithCause(err)
	}
	return appointmentID, nil
}

func (p *Plugin) appointmentFrom(submissionID id.SubmissionID, data formio.Data) (appointments.Appointment, error) {
	date, _ := data.Value(KeyDate).(string)
	clock, _ := data.Value(KeyTime).(string)
	start, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date+" "+clock), p.location)
	if err != nil {
		return appointments.Appointment{}, fmt.Errorf("parse appointment date and time: %w", err)
	}
	location, _ := data.Value(KeyLocation).(string)
	product, _ := data.Value(KeyProduct).(string)

	contact := map[string]any{}
	for _, f := range contactFields {
		if v, ok := data.Get(f.formKey); ok && v != nil && v != "" {
			contact[f.contactKey] = v
		}
	}

	appt := appointments.Appointment{
		SubmissionID: submissionID,
		Plugin:       p.booker.Identifier(),
		Location:     location,
		StartTime:    start,
		Contact:      contact,
		Products:     []appointments.Product{{ID: product, Amount: 1}},
	}
	return appt, appt.Validate()
}

// registerChain hands the submission to the second backend. Its failure fails the whole
// registration but keeps the booking id in the stored result.
func (p *Plugin) registerChain(ctx context.Context, sub *models.Submission, backend forms.Backend, result map[string]any) error {
	fail := func(msg string, err error, detail map[string]any) error {
		detail["backend"] = backend.Plugin
		result[ResultSecondRegistration] = detail
		p.logger.ErrorContext(ctx, "second registration failed",
			"submission_id", sub.ID.String(), "backend", backend.Plugin, "error", err)
		return registrations.Failed("%s", msg).WithCause(err).WithResult(result)
	}

	if p.chain == nil {
		return fail("second registration backend is not available", registrations.ErrPluginNotFound, map[string]any{})
	}
	second, err := p.chain.Get(backend.Plugin)
	if err != nil {
		return fail("second registration backend is not available", err, map[string]any{"error": err.Error()})
	}
	options, err := second.DecodeOptions(backend.Options)
	if err != nil {
		return fail("second registration backend has invalid options", err,
			map[string]any{"error": "Invalid options", "validation_errors": err.Error()})
	}
	p.logger.InfoContext(ctx, "triggering second registration backend",
		"submission_id", sub.ID.String(), "backend", backend.Plugin)
	secondResult, err := second.Register(ctx, sub, options)
	if err != nil {
		return fail("second registration backend failed", err, map[string]any{"error": err.Error()})
	}
	result[ResultSecondRegistration] = map[string]any{"backend": backend.Plugin, "result": secondResult}
	return nil
}
