// Package registrations drives completed submissions through pre-registration, the
// main registration and the confirmation email update.
//
// Each stage is safe to run again: gates return a Decision and stop without touching
// the submission when the stage has nothing to do. Failures are stored on the
// submission with a traceback and handed back to the caller only for explicit retries,
// so background triggers never crash-loop on a broken backend.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"formflow/internal/platform/config"
	"formflow/internal/platform/lock"
	regmetrics "formflow/internal/registrations/metrics"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"
	"formflow/pkg/platform/sentinel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store is the submission persistence the registration stages need.
type Store interface {
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
	Update(ctx context.Context, sub *models.Submission) error
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ListRetryable(ctx context.Context, sel models.RetrySelection) ([]*models.Submission, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const maxReferenceTries = 10

// Service runs the registration stages for one submission at a time.
type Service struct {
	store        Store
	plugins      *Registry
	locker       lock.Locker
	policy       config.Registration
	logger       *slog.Logger
	auditor      audit.Emitter
	metrics      *regmetrics.Metrics
	tracer       trace.Tracer
	newReference func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(emitter audit.Emitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithReferenceGenerator replaces the public reference generator.
func WithReferenceGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newReference = fn }
}

func New(store Store, plugins *Registry, locker lock.Locker, policy config.Registration, opts ...Option) *Service {
	if policy.AttemptLimit <= 0 {
		policy.AttemptLimit = config.DefaultAttemptLimit
	}
	if policy.LockTTL <= 0 {
		policy.LockTTL = config.DefaultLockTTL
	}
	s := &Service{
		store:        store,
		plugins:      plugins,
		locker:       locker,
		policy:       policy,
		logger:       slog.Default(),
		tracer:       otel.Tracer("formflow/registrations"),
		newReference: models.NewPublicReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the submission with its current registration state.
func (s *Service) Status(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	return s.load(ctx, submissionID)
}

func (s *Service) load(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}
	return sub, nil
}

func (s *Service) save(ctx context.Context, sub *models.Submission) error {
	if err := s.store.Update(ctx, sub); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration state")
	}
	return nil
}

// assignReference gives the submission a public reference unless it already has one.
func (s *Service) assignReference(ctx context.Context, sub *models.Submission) error {
	_, err := sub.EnsurePublicReference(func() (string, error) {
		for range maxReferenceTries {
			ref, err := s.newReference()
			if err != nil {
				return "", fmt.Errorf("generate public reference: %w", err)
			}
			taken, err := s.store.ReferenceExists(ctx, ref)
			if err != nil {
				return "", err
			}
			if !taken {
				return ref, nil
			}
		}
		return "", fmt.Errorf("no free public reference after %d tries: %w", maxReferenceTries, sentinel.ErrConflict)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign public reference")
	}
	return nil
}

// resolvePlugin returns the plugin of the submission's backend, nil when none is configured.
func (s *Service) resolvePlugin(sub *models.Submission) (Plugin, error) {
	if !sub.RegistrationBackend.Configured() {
		return nil, nil
	}
	return s.plugins.Get(sub.RegistrationBackend.Plugin)
}

// panicError is a plugin panic turned into an error.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("plugin panicked: %v", e.value) }

// invoke runs a plugin hook. A panic is returned as an error carrying its stack.
func invoke[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return fn()
}

// traceback renders err and its causes for the registration result. Stacks are added
// for panics and, when withStack is set, for the failing call site.
func traceback(err error, withStack bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%T: %v", err, err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(&b, "\ncaused by %T: %v", cause, cause)
	}
	var p *panicError
	if errors.As(err, &p) {
		b.WriteString("\n\n")
		b.Write(p.stack)
	} else if withStack {
		b.WriteString("\n\n")
		b.Write(debug.Stack())
	}
	return b.String()
}
