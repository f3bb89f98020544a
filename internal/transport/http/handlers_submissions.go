package httptransport

import (
	"context"
	"net/http"
	"time"

	"formflow/internal/formio"
	"formflow/internal/submissions/models"
	"formflow/internal/submissions/service"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=handlers_submissions.go -destination=mocks/submissions_mock.go -package=mocks SubmissionService

// SubmissionService is the wizard flow.
type SubmissionService interface {
	Start(ctx context.Context, req service.StartRequest) (*models.Submission, error)
	GetStep(ctx context.Context, submissionID id.SubmissionID, slug string) (*service.StepView, error)
	SubmitStep(ctx context.Context, submissionID id.SubmissionID, slug string, input service.StepInput) (*service.StepResult, error)
	Complete(ctx context.Context, submissionID id.SubmissionID) error
}

type authRequest struct {
	Plugin    string `json:"plugin"`
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

type startRequest struct {
	FormID               string         `json:"form_id"`
	Language             string         `json:"language"`
	Auth                 *authRequest   `json:"auth,omitempty"`
	InitialDataReference string         `json:"initial_data_reference"`
	InitialData          map[string]any `json:"initial_data"`
}

type submissionResponse struct {
	ID        string    `json:"id"`
	FormID    string    `json:"form_id"`
	Language  string    `json:"language"`
	CreatedOn time.Time `json:"created_on"`
}

type stepRequest struct {
	Data map[string]any `json:"data"`
}

type stepResponse struct {
	Slug          string           `json:"slug"`
	Configuration formio.Component `json:"configuration"`
	Data          formio.Data      `json:"data"`
	CanSubmit     bool             `json:"can_submit"`
}

type stepResultResponse struct {
	Data          formio.Data `json:"data"`
	Changed       formio.Data `json:"changed"`
	NotApplicable []string    `json:"steps_not_applicable,omitempty"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	formID, err := id.ParseFormID(req.FormID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	start := service.StartRequest{
		FormID:               formID,
		Language:             req.Language,
		InitialDataReference: req.InitialDataReference,
		InitialData:          req.InitialData,
	}
	if req.Auth != nil {
		start.Auth = models.AuthInfo{Plugin: req.Auth.Plugin, Attribute: req.Auth.Attribute, Value: req.Auth.Value}
	}

	sub, err := h.submissions.Start(r.Context(), start)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submissionResponse{
		ID:        sub.ID.String(),
		FormID:    sub.FormID.String(),
		Language:  sub.Language,
		CreatedOn: sub.CreatedOn,
	})
}

func (h *Handler) handleGetStep(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.submissions.GetStep(r.Context(), submissionID, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResponse{
		Slug:          view.Slug,
		Configuration: view.Configuration,
		Data:          view.Data,
		CanSubmit:     view.CanSubmit,
	})
}

func (h *Handler) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req stepRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.submissions.SubmitStep(r.Context(), submissionID, chi.URLParam(r, "slug"), service.StepInput{
		Data: formio.Data(req.Data),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stepResultResponse{
		Data:          result.Data,
		Changed:       result.Changed,
		NotApplicable: result.NotApplicable,
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.submissions.Complete(r.Context(), submissionID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
