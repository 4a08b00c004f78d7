package api

import (
	"github.com/carewise/care-coordinator/internal/form"
)

type StartSessionRequest struct {
	PatientID string `json:"patient_id"`
}

type SelectProviderRequest struct {
	Name string `json:"name"`
}

type SelectDateRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// BatchRequest carries one atomic update batch. Updates is a list, not a
// map: the order the assistant proposed the fields in is significant.
type BatchRequest struct {
	Updates []BatchUpdate `json:"updates"`
}

type BatchUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (r BatchRequest) toBatch() form.Batch {
	batch := make(form.Batch, len(r.Updates))
	for i, u := range r.Updates {
		batch[i] = form.Update{Field: form.Field(u.Field), Value: u.Value}
	}
	return batch
}

// AssistantRequest carries a raw assistant reply whose embedded FORM_UPDATE
// payload, if any, should be applied to the draft.
type AssistantRequest struct {
	Text string `json:"text"`
}

type AssistantResponse struct {
	Reply   string            `json:"reply"`
	Applied *form.ApplyResult `json:"applied,omitempty"`
}

type SubmitResponse struct {
	AppointmentID string `json:"appointment_id"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
