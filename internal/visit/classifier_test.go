package visit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carewise/care-coordinator/internal/schedule"
)

var house = schedule.Provider{Name: "House, Gregory", FamilyName: "House", Specialty: "Orthopedics"}

func TestClassifyRecentVisitIsEstablished(t *testing.T) {
	asOf := time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local)
	history := []HistoryEntry{
		{Date: asOf.AddDate(-4, 0, 0), Provider: "Dr. Gregory House", Status: StatusCompleted},
	}

	assert.Equal(t, TypeEstablished, Classify(house, history, asOf))
}

func TestClassifyOldVisitIsNew(t *testing.T) {
	asOf := time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local)
	history := []HistoryEntry{
		{Date: asOf.AddDate(-6, 0, 0), Provider: "Dr. Gregory House", Status: StatusCompleted},
	}

	assert.Equal(t, TypeNew, Classify(house, history, asOf))
}

func TestClassifyNoHistoryIsNew(t *testing.T) {
	asOf := time.Now()
	assert.Equal(t, TypeNew, Classify(house, nil, asOf))
}

func TestClassifyOtherProviderDoesNotCount(t *testing.T) {
	asOf := time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local)
	history := []HistoryEntry{
		{Date: asOf.AddDate(-1, 0, 0), Provider: "Dr. Meredith Grey", Status: StatusCompleted},
	}

	assert.Equal(t, TypeNew, Classify(house, history, asOf))
}

func TestClassifyIgnoresNoShowsAndCancellations(t *testing.T) {
	asOf := time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local)
	history := []HistoryEntry{
		{Date: asOf.AddDate(0, -3, 0), Provider: "Dr. Gregory House", Status: "noshow"},
		{Date: asOf.AddDate(0, -1, 0), Provider: "Dr. Gregory House", Status: "cancelled"},
	}

	assert.Equal(t, TypeNew, Classify(house, history, asOf))
}

func TestClassifyMatchesChartedNameVariants(t *testing.T) {
	asOf := time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local)
	history := []HistoryEntry{
		{Date: asOf.AddDate(-2, 0, 0), Provider: "house, gregory md", Status: StatusCompleted},
	}

	assert.Equal(t, TypeEstablished, Classify(house, history, asOf))
}

func TestDurationTable(t *testing.T) {
	table := DefaultDurations()
	assert.Equal(t, 15, table.Minutes(TypeEstablished))
	assert.Equal(t, 30, table.Minutes(TypeNew))

	custom := DurationTable{TypeEstablished: 20}
	assert.Equal(t, 20, custom.Minutes(TypeEstablished))
	assert.Equal(t, 30, custom.Minutes(TypeNew))
}
