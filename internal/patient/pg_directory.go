package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewise/care-coordinator/internal/visit"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	const q = `
		SELECT id, first_name, last_name, dob, pcp, ehr_id
		FROM patients
		WHERE id = $1`

	var p Patient
	err := d.pool.QueryRow(ctx, q, id).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.DOB,
		&p.PCP,
		&p.EHRID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	history, err := d.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	p.History = history

	return &p, nil
}

func (d *PgDirectory) loadHistory(ctx context.Context, id uuid.UUID) ([]visit.HistoryEntry, error) {
	const q = `
		SELECT visit_date, provider, status
		FROM appointment_history
		WHERE patient_id = $1
		ORDER BY visit_date`

	rows, err := d.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment history: %w", err)
	}
	defer rows.Close()

	var history []visit.HistoryEntry
	for rows.Next() {
		var e visit.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Provider, &e.Status); err != nil {
			return nil, fmt.Errorf("scan appointment history: %w", err)
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointment history: %w", err)
	}
	return history, nil
}
