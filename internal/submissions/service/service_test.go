package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"formflow/internal/formio"
	"formflow/internal/forms"
	"formflow/internal/logic"
	"formflow/internal/prefill"
	"formflow/internal/submissions/models"
	"formflow/internal/submissions/service"
	"formflow/internal/submissions/service/mocks"
	"formflow/internal/submissions/store"
	"formflow/internal/variables"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit/publisher"
	auditmemory "formflow/pkg/platform/audit/store/memory"
	"formflow/pkg/requestcontext"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var requestTime = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	scheduler  *mocks.MockScheduler
	store      *store.InMemoryStore
	values     *variables.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	form       *forms.Form
	service    *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), requestTime)
	s.ctrl = gomock.NewController(s.T())
	s.scheduler = mocks.NewMockScheduler(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.values = variables.NewInMemoryStore()
	s.auditStore = auditmemory.NewInMemoryStore()

	s.form = &forms.Form{
		ID:   id.NewFormID(),
		Name: "partner",
		Steps: []forms.Step{
			{Slug: "personal", Configuration: formio.Component{"components": []any{
				map[string]any{"key": "name", "type": "textfield"},
				map[string]any{"key": "hasPartner", "type": "checkbox"},
				map[string]any{"key": "partnerName", "type": "textfield", "conditional": map[string]any{
					"show": true, "when": "hasPartner", "eq": true,
				}},
				map[string]any{"key": "nickname", "type": "textfield", "hidden": true},
			}}},
			{Slug: "contact", Configuration: formio.Component{"components": []any{
				map[string]any{"key": "email", "type": "email", "defaultValue": "", "prefill": map[string]any{
					"plugin": "static", "attribute": "email",
				}},
			}}},
		},
		Variables: []variables.FormVariable{
			{Key: "name", Source: variables.SourceComponent, DataType: variables.DataTypeString},
			{Key: "hasPartner", Source: variables.SourceComponent, DataType: variables.DataTypeBoolean},
			{Key: "partnerName", Source: variables.SourceComponent, DataType: variables.DataTypeString},
			{Key: "nickname", Source: variables.SourceComponent, DataType: variables.DataTypeString},
			{Key: "email", Source: variables.SourceComponent, DataType: variables.DataTypeString,
				PrefillPlugin: "static", PrefillAttribute: "email"},
		},
	}
	formStore := forms.NewInMemoryStore()
	s.Require().NoError(formStore.Save(s.ctx, s.form))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = service.New(s.store, formStore, s.values,
		prefill.New(prefill.NewRegistry(), s.values, prefill.WithLogger(logger)),
		s.scheduler,
		service.WithLogger(logger),
		service.WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *ServiceSuite) start() *models.Submission {
	s.scheduler.EXPECT().SchedulePrefill(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	sub, err := s.service.Start(s.ctx, service.StartRequest{FormID: s.form.ID})
	s.Require().NoError(err)
	return sub
}

func (s *ServiceSuite) TestStart() {
	s.Run("creates the submission and schedules prefill with the initial data", func() {
		initial := map[string]any{"name": "Kim"}
		var scheduled id.SubmissionID
		s.scheduler.EXPECT().SchedulePrefill(gomock.Any(), gomock.Any(), initial).
			DoAndReturn(func(_ context.Context, submissionID id.SubmissionID, _ map[string]any) error {
				scheduled = submissionID
				return nil
			})

		sub, err := s.service.Start(s.ctx, service.StartRequest{
			FormID:      s.form.ID,
			Language:    "en",
			Auth:        models.AuthInfo{Plugin: "digid", Attribute: "bsn", Value: "111222333"},
			InitialData: initial,
		})
		s.Require().NoError(err)
		s.Equal(sub.ID, scheduled)

		stored, err := s.store.FindByID(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal("en", stored.Language)
		s.Equal(requestTime, stored.CreatedOn)
		s.True(stored.Auth.IsAuthenticated())
		s.Equal(models.RegistrationPending, stored.RegistrationStatus)
	})

	s.Run("keeps the submission when prefill cannot be scheduled", func() {
		s.scheduler.EXPECT().SchedulePrefill(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("queue down"))
		sub, err := s.service.Start(s.ctx, service.StartRequest{FormID: s.form.ID})
		s.Require().NoError(err)
		_, err = s.store.FindByID(s.ctx, sub.ID)
		s.NoError(err)
	})

	s.Run("unknown form", func() {
		_, err := s.service.Start(s.ctx, service.StartRequest{FormID: id.NewFormID()})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSubmitStep() {
	posted := func(hasPartner bool) formio.Data {
		return formio.Data{"name": "Kim", "hasPartner": hasPartner, "partnerName": "Sam", "nickname": "K"}
	}

	s.Run("clears hidden components and reports what changed", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{Data: posted(false)})
		s.Require().NoError(err)

		s.Equal(formio.Data{"name": "Kim", "hasPartner": false, "partnerName": "", "nickname": ""}, result.Data)
		s.Equal(formio.Data{"partnerName": "", "nickname": ""}, result.Changed)

		stored, err := s.values.LoadValues(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal(result.Data, variables.ValuesData(stored))
		for _, v := range stored {
			s.Equal(variables.ValueSourceUserInput, v.Source)
		}

		got, err := s.store.FindByID(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Equal([]string{"personal"}, got.CompletedSteps)
		s.Contains(s.auditStore.Actions(sub.ID), "submission_step_saved")
	})

	s.Run("conditional shows the component", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{Data: posted(true)})
		s.Require().NoError(err)
		s.Equal("Sam", result.Data["partnerName"])
		s.Equal(formio.Data{"nickname": ""}, result.Changed)
	})

	s.Run("statically hidden values are cleared whatever the client posts", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "Kim", "nickname": "smuggled"},
		})
		s.Require().NoError(err)
		s.Equal("", result.Data["nickname"])
		s.Equal(formio.Data{"nickname": ""}, result.Changed)
	})

	s.Run("unknown step", func() {
		sub := s.start()
		_, err := s.service.SubmitStep(s.ctx, sub.ID, "missing", service.StepInput{Data: formio.Data{}})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown submission", func() {
		_, err := s.service.SubmitStep(s.ctx, id.NewSubmissionID(), "personal", service.StepInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSubmitStepAppliesLogic() {
	s.form.Logic = []logic.Rule{
		{
			Trigger: json.RawMessage(`{"==":[{"var":"name"},"Kim"]}`),
			Actions: []logic.Action{{Type: logic.ActionProperty, Component: "nickname", Property: "hidden", State: false}},
		},
		{
			Trigger: json.RawMessage(`true`),
			Actions: []logic.Action{{Type: logic.ActionVariable, Variable: "greeting", Value: json.RawMessage(`{"cat":["Hello ",{"var":"name"}]}`)}},
		},
		{
			Trigger: json.RawMessage(`{"==":[{"var":"greeting"},"Hello Jo"]}`),
			Actions: []logic.Action{{Type: logic.ActionProperty, Component: "name", Property: "hidden", State: true}},
		},
		{
			Trigger: json.RawMessage(`{"==":[{"var":"hasPartner"},false]}`),
			Actions: []logic.Action{{Type: logic.ActionStepNotApplicable, Step: "contact"}},
		},
		{
			Trigger: json.RawMessage(`{"==":[{"var":"name"},"blocked"]}`),
			Actions: []logic.Action{{Type: logic.ActionDisableNext}},
		},
	}
	s.form.Variables = append(s.form.Variables, variables.FormVariable{
		Key: "greeting", Source: variables.SourceUserDefined, DataType: variables.DataTypeString,
	})
	s.Require().NoError(s.form.Validate())

	s.Run("a triggered rule shows a statically hidden component", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "Kim", "hasPartner": true, "nickname": "K"},
		})
		s.Require().NoError(err)
		s.Equal("K", result.Data["nickname"])
		s.Empty(result.NotApplicable)
	})

	s.Run("an untriggered rule leaves the component hidden", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "Sam", "hasPartner": true, "nickname": "smuggled"},
		})
		s.Require().NoError(err)
		s.Equal("", result.Data["nickname"])
	})

	s.Run("variable assignments are stored and seen by later rules", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "Jo", "hasPartner": true},
		})
		s.Require().NoError(err)
		s.Equal("", result.Data["name"], "the rule on greeting hides name")

		stored, err := s.values.LoadValues(s.ctx, sub.ID)
		s.Require().NoError(err)
		var greeting *variables.SubmissionValue
		for i := range stored {
			if stored[i].Key == "greeting" {
				greeting = &stored[i]
			}
		}
		s.Require().NotNil(greeting)
		s.Equal("Hello Jo", greeting.Value)
		s.Equal(variables.ValueSourceLogic, greeting.Source)
	})

	s.Run("a step made not applicable is not needed to complete", func() {
		sub := s.start()
		result, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "Kim", "hasPartner": false},
		})
		s.Require().NoError(err)
		s.Equal([]string{"contact"}, result.NotApplicable)

		s.scheduler.EXPECT().ScheduleRegistration(gomock.Any(), sub.ID).Return(nil)
		s.NoError(s.service.Complete(s.ctx, sub.ID))
	})

	s.Run("a disabled step cannot be submitted", func() {
		sub := s.start()
		_, err := s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{
			Data: formio.Data{"name": "blocked"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, err := s.values.LoadValues(s.ctx, sub.ID)
		s.Require().NoError(err)
		s.Empty(stored)
	})
}

func (s *ServiceSuite) TestGetStep() {
	sub := s.start()
	s.Require().NoError(s.values.SavePrefill(s.ctx, sub.ID, map[string]any{"email": "kim@example.nl"}))

	view, err := s.service.GetStep(s.ctx, sub.ID, "contact")
	s.Require().NoError(err)

	email, err := formio.NewConfigurationWrapper(view.Configuration).Component("email")
	s.Require().NoError(err)
	s.Equal("kim@example.nl", email.DefaultValue())
	s.Equal(formio.Data{"email": "kim@example.nl"}, view.Data)
	s.True(view.CanSubmit)

	original, err := s.form.Wrapper().Component("email")
	s.Require().NoError(err)
	s.Equal("", original.DefaultValue(), "the stored form configuration is not touched")
}

func (s *ServiceSuite) TestComplete() {
	sub := s.start()

	err := s.service.Complete(s.ctx, sub.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{Data: formio.Data{"name": "Kim"}})
	s.Require().NoError(err)
	_, err = s.service.SubmitStep(s.ctx, sub.ID, "contact", service.StepInput{Data: formio.Data{"email": "kim@example.nl"}})
	s.Require().NoError(err)

	s.scheduler.EXPECT().ScheduleRegistration(gomock.Any(), sub.ID).Return(nil)
	s.Require().NoError(s.service.Complete(s.ctx, sub.ID))

	got, err := s.store.FindByID(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.CompletedOn)
	s.Equal(requestTime, *got.CompletedOn)
	s.Contains(s.auditStore.Actions(sub.ID), "submission_completed")

	err = s.service.Complete(s.ctx, sub.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = s.service.SubmitStep(s.ctx, sub.ID, "personal", service.StepInput{Data: formio.Data{"name": "Kim"}})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}
