// Package booking owns the controller core: per-session drafts, the
// synchronization entry points, and the hand-off to the booking store.
package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrSubmissionRejected = errors.New("booking submission rejected")

// Request is a validated draft handed to the booking store. Fingerprint is a
// content hash of the session and draft; submitting the same fingerprint
// twice must not create a second appointment.
type Request struct {
	SessionID       uuid.UUID
	PatientID       uuid.UUID
	Fingerprint     string
	Fields          map[string]string
	DurationMinutes int
}

// Confirmation reports the booked appointment. Duplicate is set when the
// fingerprint had already been submitted and the existing appointment is
// returned instead of a new one.
type Confirmation struct {
	AppointmentID uuid.UUID
	Duplicate     bool
}

// Submitter is the external booking collaborator. Implementations must be
// idempotent per fingerprint; the core never retries on its own.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Confirmation, error)
}
