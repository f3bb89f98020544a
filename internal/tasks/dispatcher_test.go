package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"formflow/internal/forms"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	"formflow/internal/submissions/store"
	taskmetrics "formflow/internal/tasks/metrics"
	id "formflow/pkg/domain"
	"formflow/pkg/requestcontext"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []Task
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) kinds() []Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Kind, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, t.Kind)
	}
	return out
}

// fakeRegistrar applies a scripted outcome to the stored submission.
type fakeRegistrar struct {
	store    *store.InMemoryStore
	err      error
	preReg   bool
	status   models.RegistrationStatus
	triggers []string
	events   []registrations.Event
}

func (f *fakeRegistrar) PreRegister(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error {
	f.triggers = append(f.triggers, requestcontext.Trigger(ctx))
	f.events = append(f.events, event)
	if f.err != nil {
		return f.err
	}
	return f.mutate(ctx, submissionID, func(sub *models.Submission) { sub.PreRegistrationCompleted = f.preReg })
}

func (f *fakeRegistrar) Register(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error {
	f.events = append(f.events, event)
	if f.err != nil {
		return f.err
	}
	return f.mutate(ctx, submissionID, func(sub *models.Submission) { sub.RegistrationStatus = f.status })
}

func (f *fakeRegistrar) UpdateWithConfirmationEmail(context.Context, id.SubmissionID) error {
	return f.err
}

func (f *fakeRegistrar) Status(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	return f.store.FindByID(ctx, submissionID)
}

func (f *fakeRegistrar) mutate(ctx context.Context, submissionID id.SubmissionID, fn func(*models.Submission)) error {
	sub, err := f.store.FindByID(ctx, submissionID)
	if err != nil {
		return err
	}
	fn(sub)
	return f.store.Update(ctx, sub)
}

type fakePrefiller struct {
	prefilled   []id.SubmissionID
	initialData map[string]any
	err         error
}

func (f *fakePrefiller) PrefillVariables(_ context.Context, sub *models.Submission, _ *forms.Form) error {
	f.prefilled = append(f.prefilled, sub.ID)
	return f.err
}

func (f *fakePrefiller) ApplyInitialData(_ context.Context, _ *models.Submission, _ *forms.Form, initialData map[string]any) error {
	f.initialData = initialData
	return nil
}

type DispatcherSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemoryStore
	queue      *recordingQueue
	registrar  *fakeRegistrar
	prefiller  *fakePrefiller
	dispatcher *Dispatcher
	sub        *models.Submission
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemoryStore()
	s.queue = &recordingQueue{}
	s.registrar = &fakeRegistrar{store: s.store}
	s.prefiller = &fakePrefiller{}

	form := &forms.Form{ID: id.NewFormID(), Steps: []forms.Step{{Slug: "one"}}}
	formStore := forms.NewInMemoryStore()
	s.Require().NoError(formStore.Save(s.ctx, form))

	s.sub = models.New(form, requestcontext.Now(s.ctx))
	s.Require().NoError(s.store.Create(s.ctx, s.sub))

	s.dispatcher = NewDispatcher(s.store, formStore, s.prefiller, s.registrar, s.queue,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(taskmetrics.NewWithRegisterer(prometheus.NewRegistry())),
	)
}

func (s *DispatcherSuite) task(kind Kind) Task {
	return Task{Kind: kind, SubmissionID: s.sub.ID, Event: registrations.EventOnCompletion, RequestID: "req-7"}
}

func (s *DispatcherSuite) TestPrefill() {
	task := s.task(KindPrefill)
	task.InitialData = map[string]any{"name": "Kim"}
	s.Require().NoError(s.dispatcher.Handle(s.ctx, task))
	s.Equal([]id.SubmissionID{s.sub.ID}, s.prefiller.prefilled)
	s.Equal(map[string]any{"name": "Kim"}, s.prefiller.initialData)
	s.Empty(s.queue.kinds())
}

func (s *DispatcherSuite) TestPrefillFailureSkipsInitialData() {
	s.prefiller.err = errors.New("storage down")
	s.Error(s.dispatcher.Handle(s.ctx, s.task(KindPrefill)))
	s.Nil(s.prefiller.initialData)
}

func (s *DispatcherSuite) TestPreRegistrationChainsRegistration() {
	s.registrar.preReg = true
	s.Require().NoError(s.dispatcher.Handle(s.ctx, s.task(KindPreRegistration)))

	s.Equal([]Kind{KindRegistration}, s.queue.kinds())
	next := s.queue.tasks[0]
	s.Equal(registrations.EventOnCompletion, next.Event)
	s.Equal("req-7", next.RequestID)
	s.Equal([]string{TriggerQueue}, s.registrar.triggers)
}

func (s *DispatcherSuite) TestIncompletePreRegistrationStopsChain() {
	s.Require().NoError(s.dispatcher.Handle(s.ctx, s.task(KindPreRegistration)))
	s.Empty(s.queue.kinds())
}

func (s *DispatcherSuite) TestRegistrationChainsConfirmationEmail() {
	s.registrar.status = models.RegistrationSuccess
	s.Require().NoError(s.dispatcher.Handle(s.ctx, s.task(KindRegistration)))
	s.Equal([]Kind{KindConfirmationEmail}, s.queue.kinds())
}

func (s *DispatcherSuite) TestFailedRegistrationStopsChain() {
	s.registrar.status = models.RegistrationFailed
	s.Require().NoError(s.dispatcher.Handle(s.ctx, s.task(KindRegistration)))
	s.Empty(s.queue.kinds())

	s.registrar.err = errors.New("backend down")
	s.Error(s.dispatcher.Handle(s.ctx, s.task(KindRegistration)))
	s.Empty(s.queue.kinds())
}

func (s *DispatcherSuite) TestFullQueue() {
	s.registrar.preReg = true
	s.queue.err = ErrQueueFull
	err := s.dispatcher.Handle(s.ctx, s.task(KindPreRegistration))
	s.ErrorIs(err, ErrQueueFull)
}

func (s *DispatcherSuite) TestInvalidTask() {
	var logs bytes.Buffer
	dispatcher := NewDispatcher(s.store, forms.NewInMemoryStore(), s.prefiller, s.registrar, s.queue,
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithMetrics(taskmetrics.NewWithRegisterer(prometheus.NewRegistry())),
	)

	err := dispatcher.Handle(s.ctx, Task{Kind: KindRegistration, SubmissionID: s.sub.ID})
	s.ErrorIs(err, ErrInvalidTask)
	s.Empty(s.registrar.events)
	s.Contains(logs.String(), "task rejected")
	s.Contains(logs.String(), "unknown event")
}

func (s *DispatcherSuite) TestScheduler() {
	scheduler := NewScheduler(s.queue)
	ctx := requestcontext.WithRequestID(s.ctx, "req-9")

	s.Require().NoError(scheduler.SchedulePrefill(ctx, s.sub.ID, map[string]any{"a": 1}))
	s.Require().NoError(scheduler.ScheduleRegistration(ctx, s.sub.ID))
	s.Require().NoError(scheduler.ScheduleEvent(ctx, s.sub.ID, registrations.EventOnPaymentComplete))

	s.Equal([]Kind{KindPrefill, KindPreRegistration, KindPreRegistration}, s.queue.kinds())
	s.Equal(registrations.EventOnCompletion, s.queue.tasks[1].Event)
	s.Equal(registrations.EventOnPaymentComplete, s.queue.tasks[2].Event)
	for _, t := range s.queue.tasks {
		s.Equal("req-9", t.RequestID)
	}
}
