package httptransport

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"time"

	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=handlers_registrations.go -destination=mocks/registrations_mock.go -package=mocks RegistrationService,EventScheduler

// RegistrationService is the operator view on the registration chain.
type RegistrationService interface {
	Status(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
	Retry(ctx context.Context, submissionID id.SubmissionID) error
}

// EventScheduler restarts the registration chain for an external event.
type EventScheduler interface {
	ScheduleEvent(ctx context.Context, submissionID id.SubmissionID, event registrations.Event) error
}

type registrationResponse struct {
	SubmissionID             string         `json:"submission_id"`
	Status                   string         `json:"status"`
	Attempts                 int            `json:"attempts"`
	PreRegistrationCompleted bool           `json:"pre_registration_completed"`
	PublicReference          string         `json:"public_reference,omitempty"`
	LastRegisterDate         *time.Time     `json:"last_register_date,omitempty"`
	Result                   map[string]any `json:"result,omitempty"`
}

func toRegistrationResponse(sub *models.Submission) registrationResponse {
	result := maps.Clone(sub.RegistrationResult)
	// Tracebacks stay in the logs and the database.
	delete(result, models.ResultTraceback)
	delete(result, models.ResultConfirmationEmailTraceback)
	if len(result) == 0 {
		result = nil
	}
	return registrationResponse{
		SubmissionID:             sub.ID.String(),
		Status:                   string(sub.RegistrationStatus),
		Attempts:                 sub.RegistrationAttempts,
		PreRegistrationCompleted: sub.PreRegistrationCompleted,
		PublicReference:          sub.PublicRegistrationReference,
		LastRegisterDate:         sub.LastRegisterDate,
		Result:                   result,
	}
}

func (h *Handler) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sub, err := h.registrations.Status(r.Context(), submissionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(sub))
}

// handleRetry runs the retry synchronously so the operator sees the outcome.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.registrations.Retry(ctx, submissionID); err != nil {
		if errors.Is(err, registrations.ErrRegistrationFailed) {
			h.logger.WarnContext(ctx, "manual registration retry failed",
				"submission_id", submissionID.String(),
				"error", err,
			)
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "registration failed")
		}
		h.writeError(w, r, err)
		return
	}
	sub, err := h.registrations.Status(ctx, submissionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(sub))
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event := registrations.Event(chi.URLParam(r, "event"))
	if event != registrations.EventOnPaymentComplete && event != registrations.EventOnCosignComplete {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "unsupported event: "+string(event)))
		return
	}
	if err := h.events.ScheduleEvent(r.Context(), submissionID, event); err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to schedule registration"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
