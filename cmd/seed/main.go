package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewise/care-coordinator/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := createSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	providerNames, err := seedProviders(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedSamplePatient(context.Background(), pool); err != nil {
		log.Fatalf("seed sample patient: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 200, providerNames); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			family_name TEXT NOT NULL,
			specialty TEXT NOT NULL,
			sort_order INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_segments (
			id UUID PRIMARY KEY,
			provider_id UUID NOT NULL REFERENCES providers(id),
			days INT[] NOT NULL,
			start_minute INT NOT NULL,
			end_minute INT NOT NULL,
			location TEXT NOT NULL,
			position INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS patients (
			id UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			dob DATE NOT NULL,
			pcp TEXT NOT NULL DEFAULT '',
			ehr_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS appointment_history (
			id UUID PRIMARY KEY,
			patient_id UUID NOT NULL REFERENCES patients(id),
			visit_date DATE NOT NULL,
			provider TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS booked_appointments (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			patient_id UUID NOT NULL,
			fingerprint TEXT NOT NULL UNIQUE,
			doctor TEXT NOT NULL,
			appointment_type TEXT NOT NULL,
			location TEXT NOT NULL,
			appointment_date DATE NOT NULL,
			appointment_time TEXT NOT NULL,
			duration_minutes INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type segmentSpec struct {
	days     []int
	start    int
	end      int
	location string
}

// seedProviders loads the demo hospital roster: Dr. House with a split
// schedule across two locations, Dr. Grey with regular office hours.
func seedProviders(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	providers := []struct {
		name       string
		familyName string
		specialty  string
		segments   []segmentSpec
	}{
		{
			name: "House, Gregory", familyName: "House", specialty: "Orthopedics",
			segments: []segmentSpec{
				{days: []int{1, 3}, start: 8 * 60, end: 12 * 60, location: "PPTH Orthopedics"},
				{days: []int{2, 4}, start: 13 * 60, end: 17 * 60, location: "Jefferson Hospital"},
			},
		},
		{
			name: "Grey, Meredith", familyName: "Grey", specialty: "Primary Care",
			segments: []segmentSpec{
				{days: []int{1, 2, 3, 4, 5}, start: 9 * 60, end: 17 * 60, location: "Jefferson Hospital"},
			},
		},
	}

	log.Printf("seeding %d providers", len(providers))

	names := make([]string, 0, len(providers))
	for i, p := range providers {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO providers (id, name, family_name, specialty, sort_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING`,
			id, p.name, p.familyName, p.specialty, i)
		if err != nil {
			return nil, err
		}

		for pos, seg := range p.segments {
			_, err := pool.Exec(ctx, `
				INSERT INTO schedule_segments (id, provider_id, days, start_minute, end_minute, location, position)
				SELECT $1, id, $3, $4, $5, $6, $7 FROM providers WHERE name = $2`,
				uuid.New(), p.name, seg.days, seg.start, seg.end, seg.location, pos)
			if err != nil {
				return nil, err
			}
		}
		names = append(names, p.name)
	}
	return names, nil
}

// seedSamplePatient inserts the demo patient used throughout manual testing.
func seedSamplePatient(ctx context.Context, pool *pgxpool.Pool) error {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	_, err := pool.Exec(ctx, `
		INSERT INTO patients (id, first_name, last_name, dob, pcp, ehr_id)
		VALUES ($1, 'John', 'Doe', '1975-01-01', 'Dr. Meredith Grey', '1234abcd')
		ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return err
	}

	history := []struct {
		date     string
		provider string
		status   string
	}{
		{"2018-03-05", "Dr. Meredith Grey", "completed"},
		{"2024-08-12", "Dr. Gregory House", "completed"},
		{"2024-09-17", "Dr. Meredith Grey", "noshow"},
		{"2024-11-25", "Dr. Meredith Grey", "cancelled"},
	}
	for _, h := range history {
		_, err := pool.Exec(ctx, `
			INSERT INTO appointment_history (id, patient_id, visit_date, provider, status)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), id, h.date, h.provider, h.status)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, providerNames []string) error {
	log.Printf("seeding %d patients", count)

	statuses := []string{"completed", "completed", "completed", "noshow", "cancelled"}

	for i := 0; i < count; i++ {
		id := uuid.New()
		dob := gofakeit.DateRange(
			time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
		)

		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, dob, pcp, ehr_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id,
			gofakeit.FirstName(),
			gofakeit.LastName(),
			dob,
			"Dr. "+gofakeit.LastName(),
			gofakeit.LetterN(8),
		)
		if err != nil {
			return err
		}

		visits := gofakeit.Number(0, 4)
		for v := 0; v < visits; v++ {
			visitDate := gofakeit.DateRange(
				time.Now().AddDate(-8, 0, 0),
				time.Now().AddDate(0, -1, 0),
			)
			provider := providerNames[gofakeit.Number(0, len(providerNames)-1)]
			status := statuses[gofakeit.Number(0, len(statuses)-1)]

			_, err := pool.Exec(ctx, `
				INSERT INTO appointment_history (id, patient_id, visit_date, provider, status)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), id, visitDate, provider, status)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
