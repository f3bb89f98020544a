// Package service implements the submission wizard: starting a submission, rendering
// a step with its prefilled defaults, saving step data after visibility and logic
// evaluation and completing the submission.
package service

import (
	"context"
	"errors"
	"log/slog"

	"formflow/internal/formio"
	"formflow/internal/forms"
	"formflow/internal/logic"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"
	"formflow/pkg/platform/sentinel"
	"formflow/pkg/requestcontext"
)

// Store is the submission persistence the wizard needs.
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
	Update(ctx context.Context, sub *models.Submission) error
}

// Prefiller reads prefilled values and writes them into step configurations.
type Prefiller interface {
	PrefilledData(ctx context.Context, sub *models.Submission, form *forms.Form) (map[string]any, error)
	InjectPrefill(ctx context.Context, sub *models.Submission, configuration formio.Component, prefilled map[string]any)
}

type Service struct {
	store      Store
	forms      forms.Store
	values     variables.Store
	prefill    Prefiller
	scheduler  Scheduler
	components *formio.Registry
	logic      *logic.Evaluator
	logger     *slog.Logger
	auditor    audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(emitter audit.Emitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithComponentRegistry(r *formio.Registry) Option {
	return func(s *Service) { s.components = r }
}

func New(store Store, formStore forms.Store, values variables.Store, prefill Prefiller, scheduler Scheduler, opts ...Option) *Service {
	s := &Service{
		store:      store,
		forms:      formStore,
		values:     values,
		prefill:    prefill,
		scheduler:  scheduler,
		components: formio.Default,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logic = logic.NewEvaluator(logic.WithRegistry(s.components), logic.WithLogger(s.logger))
	return s
}

// StartRequest describes a new submission.
type StartRequest struct {
	FormID   id.FormID
	Language string
	Auth     models.AuthInfo
	// InitialDataReference points at an external object the submission continues from.
	InitialDataReference string
	// InitialData overrides prefilled values once prefill has run.
	InitialData map[string]any
}

// Start creates the submission and schedules its prefill.
func (s *Service) Start(ctx context.Context, req StartRequest) (*models.Submission, error) {
	form, err := s.loadForm(ctx, req.FormID)
	if err != nil {
		return nil, err
	}
	sub := models.New(form, requestcontext.Now(ctx))
	if req.Language != "" {
		sub.Language = req.Language
	}
	sub.Auth = req.Auth
	sub.InitialDataReference = req.InitialDataReference

	if err := s.store.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create submission")
	}
	if err := s.scheduler.SchedulePrefill(ctx, sub.ID, req.InitialData); err != nil {
		// The step endpoints still work without prefill, so the submission stays.
		s.logger.ErrorContext(ctx, "failed to schedule prefill",
			"submission_id", sub.ID.String(),
			"error", err,
		)
	}
	return sub, nil
}

func (s *Service) load(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, *forms.Form, error) {
	sub, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "submission not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}
	form, err := s.loadForm(ctx, sub.FormID)
	if err != nil {
		return nil, nil, err
	}
	return sub, form, nil
}

func (s *Service) loadForm(ctx context.Context, formID id.FormID) (*forms.Form, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "form not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load form")
	}
	return form, nil
}
