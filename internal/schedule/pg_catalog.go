package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadCatalog reads providers and their schedule segments from Postgres and
// builds the immutable in-memory catalog. Called once at startup; lookups
// after that never touch the database.
func LoadCatalog(ctx context.Context, pool *pgxpool.Pool) (*Catalog, error) {
	const providerQuery = `
		SELECT id, name, family_name, specialty
		FROM providers
		ORDER BY sort_order, name`

	rows, err := pool.Query(ctx, providerQuery)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	defer rows.Close()

	type providerRow struct {
		id       uuid.UUID
		provider Provider
	}

	var providers []providerRow
	for rows.Next() {
		var pr providerRow
		if err := rows.Scan(&pr.id, &pr.provider.Name, &pr.provider.FamilyName, &pr.provider.Specialty); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}

	entries := make([]Entry, 0, len(providers))
	for _, pr := range providers {
		segments, err := loadSegments(ctx, pool, pr.id)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", pr.provider.Name, err)
		}
		avail, err := NewSplit(segments)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", pr.provider.Name, err)
		}
		entries = append(entries, Entry{Provider: pr.provider, Availability: avail})
	}

	return NewCatalog(entries), nil
}

func loadSegments(ctx context.Context, pool *pgxpool.Pool, providerID uuid.UUID) ([]Segment, error) {
	const segmentQuery = `
		SELECT days, start_minute, end_minute, location
		FROM schedule_segments
		WHERE provider_id = $1
		ORDER BY position`

	rows, err := pool.Query(ctx, segmentQuery, providerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var seg Segment
		var days []int32
		if err := rows.Scan(&days, &seg.Start, &seg.End, &seg.Location); err != nil {
			return nil, fmt.Errorf("scan schedule segment: %w", err)
		}
		seg.Days = make([]time.Weekday, len(days))
		for i, d := range days {
			seg.Days[i] = time.Weekday(d)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule segments: %w", err)
	}
	return segments, nil
}
