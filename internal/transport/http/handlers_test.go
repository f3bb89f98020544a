package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formflow/internal/formio"
	"formflow/internal/platform/metrics"
	"formflow/internal/platform/ratelimit"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	"formflow/internal/submissions/service"
	"formflow/internal/transport/http/mocks"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/httputil"
	"formflow/pkg/requestcontext"
	"formflow/pkg/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type HandlerSuite struct {
	suite.Suite
	submissions   *mocks.MockSubmissionService
	registrations *mocks.MockRegistrationService
	events        *mocks.MockEventScheduler
	router        http.Handler
	subID         id.SubmissionID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.submissions = mocks.NewMockSubmissionService(ctrl)
	s.registrations = mocks.NewMockRegistrationService(ctrl)
	s.events = mocks.NewMockEventScheduler(ctrl)
	reg := prometheus.NewRegistry()
	h := New(s.submissions, s.registrations, s.events,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWithRegisterer(reg)),
		WithGatherer(reg),
	)
	s.router = h.Router()
	s.subID = id.NewSubmissionID()
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewRequest(s.T(), method, path, body))
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	return testutil.DecodeBody(s.T(), w)
}

func (s *HandlerSuite) TestStart() {
	formID := id.NewFormID()
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s.submissions.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req service.StartRequest) (*models.Submission, error) {
			s.Equal(formID, req.FormID)
			s.Equal("bsn", req.Auth.Attribute)
			s.Equal("Kim", req.InitialData["name"])
			s.NotEmpty(requestcontext.RequestID(ctx))
			return &models.Submission{ID: s.subID, FormID: formID, Language: "nl", CreatedOn: created}, nil
		})

	w := s.do(http.MethodPost, "/submissions/",
		`{"form_id":"`+formID.String()+`","auth":{"plugin":"digid","attribute":"bsn","value":"111222333"},"initial_data":{"name":"Kim"}}`)
	s.Equal(http.StatusCreated, w.Code)
	body := s.decode(w)
	s.Equal(s.subID.String(), body["id"])
	s.Equal("2025-05-01T09:00:00Z", body["created_on"])
}

func (s *HandlerSuite) TestStartRejectsBadInput() {
	w := s.do(http.MethodPost, "/submissions/", `{"form_id":"nope"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/submissions/", `{`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestGetStep() {
	s.submissions.EXPECT().GetStep(gomock.Any(), s.subID, "personal").Return(&service.StepView{
		Slug:          "personal",
		Configuration: formio.Component{"components": []any{map[string]any{"key": "name", "type": "textfield"}}},
		Data:          formio.Data{"name": "Kim"},
		CanSubmit:     true,
	}, nil)

	w := s.do(http.MethodGet, "/submissions/"+s.subID.String()+"/steps/personal", "")
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("personal", body["slug"])
	s.Equal(map[string]any{"name": "Kim"}, body["data"])
	s.Equal(true, body["can_submit"])
}

func (s *HandlerSuite) TestSubmitStep() {
	s.submissions.EXPECT().SubmitStep(gomock.Any(), s.subID, "personal", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.SubmissionID, _ string, input service.StepInput) (*service.StepResult, error) {
			s.Equal(service.StepInput{Data: formio.Data{"partnerName": "Sam"}}, input)
			return &service.StepResult{
				Data:          formio.Data{"partnerName": ""},
				Changed:       formio.Data{"partnerName": ""},
				NotApplicable: []string{"partner"},
			}, nil
		})

	// Hidden handling is decided by the form; an ignore_hidden list in the body has no effect.
	w := s.do(http.MethodPut, "/submissions/"+s.subID.String()+"/steps/personal",
		`{"data":{"partnerName":"Sam"},"ignore_hidden":["partnerName"]}`)
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(map[string]any{"partnerName": ""}, body["changed"])
	s.Equal([]any{"partner"}, body["steps_not_applicable"])
}

func (s *HandlerSuite) TestComplete() {
	s.submissions.EXPECT().Complete(gomock.Any(), s.subID).Return(nil)
	w := s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/complete", "")
	s.Equal(http.StatusAccepted, w.Code)

	s.submissions.EXPECT().Complete(gomock.Any(), s.subID).
		Return(dErrors.New(dErrors.CodeValidation, "not every step has been submitted"))
	w = s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/complete", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("not every step has been submitted", s.decode(w)["error_description"])
}

func (s *HandlerSuite) TestRegistrationStatusHidesTracebacks() {
	s.registrations.EXPECT().Status(gomock.Any(), s.subID).Return(&models.Submission{
		ID:                          s.subID,
		RegistrationStatus:          models.RegistrationFailed,
		RegistrationAttempts:        2,
		PublicRegistrationReference: "OF-ABC123",
		RegistrationResult: map[string]any{
			models.ResultTraceback: "boom",
			"appointment_id":       "A-1",
		},
	}, nil)

	w := s.do(http.MethodGet, "/submissions/"+s.subID.String()+"/registration", "")
	s.Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("failed", body["status"])
	s.Equal(float64(2), body["attempts"])
	s.Equal("OF-ABC123", body["public_reference"])
	s.Equal(map[string]any{"appointment_id": "A-1"}, body["result"])
}

func (s *HandlerSuite) TestRetry() {
	s.Run("success returns the new state", func() {
		s.registrations.EXPECT().Retry(gomock.Any(), s.subID).Return(nil)
		s.registrations.EXPECT().Status(gomock.Any(), s.subID).
			Return(&models.Submission{ID: s.subID, RegistrationStatus: models.RegistrationSuccess}, nil)

		w := s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/registration/retry", "")
		s.Equal(http.StatusOK, w.Code)
		s.Equal("success", s.decode(w)["status"])
	})

	s.Run("registration failure hides the cause", func() {
		s.registrations.EXPECT().Retry(gomock.Any(), s.subID).
			Return(registrations.Failed("backend said no").WithCause(errors.New("dial tcp 10.0.0.1:443")))

		w := s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/registration/retry", "")
		s.Equal(http.StatusServiceUnavailable, w.Code)
		body := s.decode(w)
		s.Equal(httputil.GenericUserMessage, body["message"])
		s.NotContains(w.Body.String(), "10.0.0.1")
	})

	s.Run("forbidden ownership", func() {
		s.registrations.EXPECT().Retry(gomock.Any(), s.subID).
			Return(dErrors.Wrap(registrations.ErrPermissionDenied, dErrors.CodeForbidden, "permission denied"))
		w := s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/registration/retry", "")
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *HandlerSuite) TestEvent() {
	s.events.EXPECT().ScheduleEvent(gomock.Any(), s.subID, registrations.EventOnPaymentComplete).Return(nil)
	w := s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/events/on_payment_complete", "")
	s.Equal(http.StatusAccepted, w.Code)

	w = s.do(http.MethodPost, "/submissions/"+s.subID.String()+"/events/on_retry", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestInvalidSubmissionID() {
	w := s.do(http.MethodGet, "/submissions/not-a-uuid/registration", "")
	testutil.AssertError(s.T(), w, http.StatusBadRequest, "invalid_input")
}

func (s *HandlerSuite) TestMetricsAndHealth() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", "").Code)

	w := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "formflow_http_requests_total")
}

func (s *HandlerSuite) TestStartIsRateLimited() {
	reg := prometheus.NewRegistry()
	h := New(s.submissions, s.registrations, s.events,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWithRegisterer(reg)),
		WithGatherer(reg),
		WithRateLimit(ratelimit.New(ratelimit.NewMemory(), "start", 1, time.Minute), nil),
	)
	s.router = h.Router()

	w := s.do(http.MethodPost, "/submissions/", `{"form_id":"nope"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/submissions/", `{"form_id":"nope"}`)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))
}

func (s *HandlerSuite) TestHealthReportsFailingDependency() {
	h := New(s.submissions, s.registrations, s.events,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHealthCheck("database", func(context.Context) error { return nil }),
		WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
	)
	s.router = h.Router()

	w := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
	body := s.decode(w)
	s.Equal("unavailable", body["status"])
	s.Equal(map[string]any{"database": "ok", "redis": "unavailable"}, body["checks"])
}
