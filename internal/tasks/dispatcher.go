package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"formflow/internal/forms"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	taskmetrics "formflow/internal/tasks/metrics"
	id "formflow/pkg/domain"
	"formflow/pkg/requestcontext"
)

// TriggerQueue marks work started by a queued task.
const TriggerQueue = "queue"

// SubmissionFinder loads submissions.
type SubmissionFinder interface {
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
}

// Prefiller runs the prefill pipeline for a submission.
type Prefiller interface {
	PrefillVariables(ctx context.Context, sub *models.Submission, form *forms.Form) error
	ApplyInitialData(ctx context.Context, sub *models.Submission, form *forms.Form, initialData map[string]any) error
}

// Registrar runs the registration stages.
type Registrar interface {
	PreRegister(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error
	Register(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error
	UpdateWithConfirmationEmail(ctx context.Context, submissionID id.SubmissionID) error
	Status(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
}

// Dispatcher executes tasks and chains the registration stages.
type Dispatcher struct {
	submissions SubmissionFinder
	forms       forms.Store
	prefill     Prefiller
	registrar   Registrar
	queue       Queue
	logger      *slog.Logger
	metrics     *taskmetrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMetrics(m *taskmetrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(submissions SubmissionFinder, formStore forms.Store, prefill Prefiller, registrar Registrar, queue Queue, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		submissions: submissions,
		forms:       formStore,
		prefill:     prefill,
		registrar:   registrar,
		queue:       queue,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs one task. The returned error is for logging only; stage failures are
// already recorded on the submission.
func (d *Dispatcher) Handle(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		d.logger.ErrorContext(ctx, "task rejected",
			"kind", string(task.Kind),
			"submission_id", task.SubmissionID.String(),
			"error", err,
		)
		d.metrics.ObserveTask(string(task.Kind), "invalid", 0)
		return err
	}
	ctx = requestcontext.WithTrigger(ctx, TriggerQueue)
	if task.RequestID != "" {
		ctx = requestcontext.WithRequestID(ctx, task.RequestID)
	}

	start := time.Now()
	var err error
	switch task.Kind {
	case KindPrefill:
		err = d.handlePrefill(ctx, task)
	case KindPreRegistration:
		err = d.handlePreRegistration(ctx, task)
	case KindRegistration:
		err = d.handleRegistration(ctx, task)
	case KindConfirmationEmail:
		err = d.registrar.UpdateWithConfirmationEmail(ctx, task.SubmissionID)
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
		d.logger.WarnContext(ctx, "task failed",
			"kind", string(task.Kind),
			"submission_id", task.SubmissionID.String(),
			"error", err,
		)
	}
	d.metrics.ObserveTask(string(task.Kind), outcome, time.Since(start))
	return err
}

func (d *Dispatcher) handlePrefill(ctx context.Context, task Task) error {
	sub, err := d.submissions.FindByID(ctx, task.SubmissionID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	form, err := d.forms.FindByID(ctx, sub.FormID)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}
	if err := d.prefill.PrefillVariables(ctx, sub, form); err != nil {
		return err
	}
	return d.prefill.ApplyInitialData(ctx, sub, form, task.InitialData)
}

func (d *Dispatcher) handlePreRegistration(ctx context.Context, task Task) error {
	if err := d.registrar.PreRegister(ctx, task.SubmissionID, task.Event); err != nil {
		return err
	}
	sub, err := d.registrar.Status(ctx, task.SubmissionID)
	if err != nil {
		return err
	}
	if !sub.PreRegistrationCompleted {
		return nil
	}
	return d.enqueue(ctx, Task{Kind: KindRegistration, SubmissionID: task.SubmissionID, Event: task.Event, RequestID: task.RequestID})
}

func (d *Dispatcher) handleRegistration(ctx context.Context, task Task) error {
	if err := d.registrar.Register(ctx, task.SubmissionID, task.Event); err != nil {
		return err
	}
	sub, err := d.registrar.Status(ctx, task.SubmissionID)
	if err != nil {
		return err
	}
	if sub.RegistrationStatus != models.RegistrationSuccess {
		return nil
	}
	return d.enqueue(ctx, Task{Kind: KindConfirmationEmail, SubmissionID: task.SubmissionID, RequestID: task.RequestID})
}

func (d *Dispatcher) enqueue(ctx context.Context, next Task) error {
	if err := d.queue.Enqueue(ctx, next); err != nil {
		if errors.Is(err, ErrQueueFull) {
			d.logger.WarnContext(ctx, "task queue full, follow-up left to the retry sweep",
				"kind", string(next.Kind),
				"submission_id", next.SubmissionID.String(),
			)
		}
		return fmt.Errorf("enqueue %s: %w", next.Kind, err)
	}
	return nil
}
