package booking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/care-coordinator/internal/form"
	"github.com/carewise/care-coordinator/internal/patient"
	redisclient "github.com/carewise/care-coordinator/internal/redis"
	"github.com/carewise/care-coordinator/internal/schedule"
	"github.com/carewise/care-coordinator/internal/visit"
)

// Coordinator is the surface the UI layer and the assistant channel talk to.
// Every draft mutation funnels through here, serialized per session by the
// guard: a batch arriving while another is mid-flight is rejected with
// redisclient.ErrSessionBusy and the caller retries. Mutations never
// interleave.
type Coordinator struct {
	catalog   *schedule.Catalog
	directory patient.Directory
	submitter Submitter
	guard     redisclient.Guard

	durations  visit.DurationTable
	interval   int
	validator  form.Validator
	sessionTTL time.Duration
	now        func() time.Time

	sessions *sessionStore
}

type CoordinatorConfig struct {
	Catalog   *schedule.Catalog
	Directory patient.Directory
	Submitter Submitter
	Guard     redisclient.Guard

	Durations       visit.DurationTable
	IntervalMinutes int
	RequiredFields  []form.Field
	SessionTTL      time.Duration
	Now             func() time.Time
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.Durations == nil {
		cfg.Durations = visit.DefaultDurations()
	}
	return &Coordinator{
		catalog:    cfg.Catalog,
		directory:  cfg.Directory,
		submitter:  cfg.Submitter,
		guard:      cfg.Guard,
		durations:  cfg.Durations,
		interval:   cfg.IntervalMinutes,
		validator:  form.NewValidator(cfg.RequiredFields),
		sessionTTL: cfg.SessionTTL,
		now:        cfg.Now,
		sessions:   newSessionStore(),
	}
}

// SessionView is a read-only snapshot handed to rendering layers.
type SessionView struct {
	SessionID       uuid.UUID         `json:"session_id"`
	PatientID       uuid.UUID         `json:"patient_id"`
	Draft           map[string]string `json:"draft"`
	Slots           []string          `json:"slots"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
}

// StartSession loads a patient and opens a fresh draft pre-filled with the
// patient's identity fields. Any previous session keeps running until it goes
// idle; a new patient load always means a new draft.
func (c *Coordinator) StartSession(ctx context.Context, patientID uuid.UUID) (*SessionView, error) {
	p, err := c.directory.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	sync := form.NewSynchronizer(c.catalog, p.History, c.durations, c.interval, c.now)
	sync.ApplyBatch(form.Batch{
		{Field: form.FieldFirstName, Value: p.FirstName},
		{Field: form.FieldLastName, Value: p.LastName},
		{Field: form.FieldDOB, Value: p.DOB.Format("2006-01-02")},
	})

	sess := &Session{
		ID:         uuid.New(),
		PatientID:  p.ID,
		Sync:       sync,
		lastActive: c.now(),
	}
	c.sessions.put(sess)

	return c.view(sess), nil
}

// ApplyBatch applies one atomic assistant batch to a session's draft.
func (c *Coordinator) ApplyBatch(ctx context.Context, sessionID uuid.UUID, batch form.Batch) (form.ApplyResult, error) {
	var res form.ApplyResult
	err := c.withSession(ctx, sessionID, func(sess *Session) error {
		res = sess.Sync.ApplyBatch(batch)
		return nil
	})
	return res, err
}

// SelectProvider handles a direct user provider selection. It runs through
// the same batch path, so dependent rules fire exactly as they would for an
// assistant update.
func (c *Coordinator) SelectProvider(ctx context.Context, sessionID uuid.UUID, name string) (form.ApplyResult, error) {
	return c.ApplyBatch(ctx, sessionID, form.Batch{{Field: form.FieldDoctor, Value: name}})
}

// ErrDateRejected reports a direct date selection the schedule does not
// allow.
var ErrDateRejected = errors.New("appointment date rejected")

// SelectDate handles a direct user date selection. An out-of-schedule date
// surfaces as an error immediately, not at submission.
func (c *Coordinator) SelectDate(ctx context.Context, sessionID uuid.UUID, date string) (form.ApplyResult, error) {
	res, err := c.ApplyBatch(ctx, sessionID, form.Batch{{Field: form.FieldDate, Value: date}})
	if err != nil {
		return res, err
	}
	for _, u := range res.Unmatched {
		if u.Field == form.FieldDate {
			return res, fmt.Errorf("%w: %q (%s)", ErrDateRejected, u.Value, u.Reason)
		}
	}
	return res, nil
}

// Snapshot returns the current session view.
func (c *Coordinator) Snapshot(sessionID uuid.UUID) (*SessionView, error) {
	sess, err := c.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	return c.view(sess), nil
}

// SlotsFor returns the bookable times for the session's current
// provider/date selection, empty until both are chosen.
func (c *Coordinator) SlotsFor(sessionID uuid.UUID) ([]string, error) {
	view, err := c.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return view.Slots, nil
}

// Submit validates the draft and hands it to the booking store. On success
// the draft is cleared; a failed validation leaves it intact for correction.
func (c *Coordinator) Submit(ctx context.Context, sessionID uuid.UUID) (*Confirmation, error) {
	var conf *Confirmation
	err := c.withSession(ctx, sessionID, func(sess *Session) error {
		if err := c.validator.Validate(sess.Sync.Draft(), c.now()); err != nil {
			return err
		}

		fields := sess.Sync.Snapshot()
		req := Request{
			SessionID:       sess.ID,
			PatientID:       sess.PatientID,
			Fingerprint:     fingerprint(sess.ID, fields),
			Fields:          fields,
			DurationMinutes: sess.Sync.SuggestedDuration(),
		}

		got, err := c.submitter.Submit(ctx, req)
		if err != nil {
			return err
		}
		conf = got

		if got.Duplicate {
			log.Printf("session %s resubmitted an already-booked draft, returning appointment %s", sess.ID, got.AppointmentID)
		}
		sess.Sync.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// EndSession discards a session and its draft.
func (c *Coordinator) EndSession(sessionID uuid.UUID) {
	c.sessions.delete(sessionID)
}

// RunJanitor evicts idle sessions on a fixed interval until the context is
// cancelled. Run it as a goroutine next to the HTTP server.
func (c *Coordinator) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.sessions.evictIdle(c.now(), c.sessionTTL); n > 0 {
				log.Printf("evicted %d idle booking sessions", n)
			}
		}
	}
}

func (c *Coordinator) withSession(ctx context.Context, sessionID uuid.UUID, fn func(*Session) error) error {
	sess, err := c.sessions.get(sessionID)
	if err != nil {
		return err
	}
	return c.guard.WithSession(ctx, sessionID, func(ctx context.Context) error {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		defer c.sessions.touch(sessionID, c.now())
		return fn(sess)
	})
}

func (c *Coordinator) view(sess *Session) *SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	slots := sess.Sync.Slots()
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return &SessionView{
		SessionID:       sess.ID,
		PatientID:       sess.PatientID,
		Draft:           sess.Sync.Snapshot(),
		Slots:           out,
		DurationMinutes: sess.Sync.SuggestedDuration(),
	}
}

// fingerprint hashes the session and draft content. Field order is fixed by
// the schema, so the same draft always produces the same fingerprint.
func fingerprint(sessionID uuid.UUID, fields map[string]string) string {
	h := sha256.New()
	h.Write([]byte(sessionID.String()))
	for _, f := range form.AllFields {
		h.Write([]byte{0})
		h.Write([]byte(fields[string(f)]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
