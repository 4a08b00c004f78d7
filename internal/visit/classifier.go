// Package visit decides whether an appointment is NEW or ESTABLISHED from a
// patient's history with the provider.
package visit

import (
	"strings"
	"time"

	"github.com/carewise/care-coordinator/internal/schedule"
)

type Type string

const (
	TypeNew         Type = "NEW"
	TypeEstablished Type = "ESTABLISHED"
)

const StatusCompleted = "completed"

// EstablishedWindowYears is how far back a completed visit still counts as
// having seen the provider.
const EstablishedWindowYears = 5

// HistoryEntry is one prior appointment from the patient record. Provider is
// free text as charted ("Dr. Gregory House", "House, Gregory MD").
type HistoryEntry struct {
	Date     time.Time
	Provider string
	Status   string
}

// DurationTable maps a visit type to its appointment length in minutes.
type DurationTable map[Type]int

// DefaultDurations returns the hospital defaults: established visits are
// short follow-ups, new visits get a full intake block.
func DefaultDurations() DurationTable {
	return DurationTable{TypeNew: 30, TypeEstablished: 15}
}

// Minutes returns the configured duration for a visit type, falling back to
// the defaults when the table has no entry.
func (t DurationTable) Minutes(v Type) int {
	if m, ok := t[v]; ok {
		return m
	}
	return DefaultDurations()[v]
}

// Classify returns ESTABLISHED when the history holds a completed visit with
// the provider within the established window of asOf, otherwise NEW. Provider
// identity matches on the family name as a case-insensitive substring, so
// "Dr. Gregory House" and "House, Gregory MD" both match family name "House".
// Empty history always classifies NEW. Pure: same inputs, same answer.
func Classify(provider schedule.Provider, history []HistoryEntry, asOf time.Time) Type {
	family := strings.ToLower(provider.FamilyName)
	if family == "" {
		return TypeNew
	}

	cutoff := asOf.AddDate(-EstablishedWindowYears, 0, 0)

	for _, entry := range history {
		if entry.Status != StatusCompleted {
			continue
		}
		if !strings.Contains(strings.ToLower(entry.Provider), family) {
			continue
		}
		if entry.Date.Before(cutoff) || entry.Date.After(asOf) {
			continue
		}
		return TypeEstablished
	}
	return TypeNew
}
