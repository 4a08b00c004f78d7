package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewise/care-coordinator/internal/assistant"
	"github.com/carewise/care-coordinator/internal/booking"
	"github.com/carewise/care-coordinator/internal/form"
	"github.com/carewise/care-coordinator/internal/patient"
	redisclient "github.com/carewise/care-coordinator/internal/redis"
)

func startSessionHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		view, err := coord.StartSession(r.Context(), patientID)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func draftHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		view, err := coord.Snapshot(sessionID)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func slotsHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		slots, err := coord.SlotsFor(sessionID)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
	}
}

func selectProviderHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		var req SelectProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := coord.SelectProvider(r.Context(), sessionID, req.Name)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func selectDateHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		var req SelectDateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := coord.SelectDate(r.Context(), sessionID, req.Date)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func applyBatchHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		var req BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if len(req.Updates) == 0 {
			writeError(w, http.StatusBadRequest, "empty_batch", "updates must not be empty")
			return
		}

		res, err := coord.ApplyBatch(r.Context(), sessionID, req.toBatch())
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// assistantReplyHandler accepts a raw assistant reply, extracts any embedded
// FORM_UPDATE payload, and applies it to the session draft.
func assistantReplyHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		var req AssistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		batch, clean, found := assistant.ExtractFormUpdate(req.Text)
		resp := AssistantResponse{Reply: clean}
		if found {
			res, err := coord.ApplyBatch(r.Context(), sessionID, batch)
			if err != nil {
				handleCoordinatorError(w, err)
				return
			}
			resp.Applied = &res
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func submitHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}

		conf, err := coord.Submit(r.Context(), sessionID)
		if err != nil {
			handleCoordinatorError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, SubmitResponse{
			AppointmentID: conf.AppointmentID.String(),
			Duplicate:     conf.Duplicate,
		})
	}
}

func endSessionHandler(coord *booking.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionIDParam(w, r)
		if !ok {
			return
		}
		coord.EndSession(sessionID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleCoordinatorError(w http.ResponseWriter, err error) {
	var missing *form.MissingFieldsError
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, redisclient.ErrSessionBusy):
		writeError(w, http.StatusConflict, "session_busy", "a batch is already being applied, please retry")
	case errors.Is(err, booking.ErrDateRejected):
		writeError(w, http.StatusUnprocessableEntity, "date_unavailable", err.Error())
	case errors.As(err, &missing):
		writeError(w, http.StatusUnprocessableEntity, "missing_fields", err.Error())
	case errors.Is(err, form.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, booking.ErrSubmissionRejected):
		writeError(w, http.StatusConflict, "submission_rejected", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
