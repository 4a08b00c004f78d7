// Package patient is the patient-record collaborator: identity fields plus
// appointment history, fetched from the directory store.
package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/care-coordinator/internal/visit"
)

var ErrPatientNotFound = errors.New("patient not found")

type Patient struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	DOB       time.Time
	PCP       string
	EHRID     string
	History   []visit.HistoryEntry
}

// Directory hands out patient records. Implementations: PgDirectory for the
// Postgres store, CachedDirectory to put a read-through cache in front of it.
type Directory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}
