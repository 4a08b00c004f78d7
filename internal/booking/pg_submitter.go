package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSubmitter books appointments into Postgres. The fingerprint column
// carries a unique constraint, which is what makes Submit idempotent.
type PgSubmitter struct {
	pool *pgxpool.Pool
}

func NewPgSubmitter(pool *pgxpool.Pool) *PgSubmitter {
	return &PgSubmitter{pool: pool}
}

func (s *PgSubmitter) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	const insert = `
		INSERT INTO booked_appointments
			(id, session_id, patient_id, fingerprint, doctor, appointment_type,
			 location, appointment_date, appointment_time, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING id`

	id := uuid.New()
	var bookedID uuid.UUID
	err := s.pool.QueryRow(ctx, insert,
		id,
		req.SessionID,
		req.PatientID,
		req.Fingerprint,
		req.Fields["doctor"],
		req.Fields["appointment-type"],
		req.Fields["appointment-location"],
		req.Fields["appointment-date"],
		req.Fields["appointment-time"],
		req.DurationMinutes,
		time.Now(),
	).Scan(&bookedID)

	if err == nil {
		return &Confirmation{AppointmentID: bookedID}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert booked appointment: %w", err)
	}

	// Conflict: this exact draft was already submitted. Return the existing
	// appointment rather than booking a duplicate.
	const lookup = `SELECT id FROM booked_appointments WHERE fingerprint = $1`
	if err := s.pool.QueryRow(ctx, lookup, req.Fingerprint).Scan(&bookedID); err != nil {
		return nil, fmt.Errorf("load existing appointment: %w", err)
	}
	return &Confirmation{AppointmentID: bookedID, Duplicate: true}, nil
}
