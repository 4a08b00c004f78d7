package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise/care-coordinator/internal/schedule"
	"github.com/carewise/care-coordinator/internal/visit"
)

// 2026-08-26 is a Wednesday.
var testNow = time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

func testCatalog(t *testing.T) *schedule.Catalog {
	t.Helper()

	house, err := schedule.NewSplit([]schedule.Segment{
		{Days: []time.Weekday{time.Monday, time.Wednesday}, Start: 8 * 60, End: 12 * 60, Location: "PPTH Orthopedics"},
		{Days: []time.Weekday{time.Tuesday, time.Thursday}, Start: 13 * 60, End: 17 * 60, Location: "Jefferson Hospital"},
	})
	require.NoError(t, err)

	grey, err := schedule.NewSimple(schedule.Segment{
		Days:     []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Start:    9 * 60,
		End:      17 * 60,
		Location: "Jefferson Hospital",
	})
	require.NoError(t, err)

	return schedule.NewCatalog([]schedule.Entry{
		{Provider: schedule.Provider{Name: "House, Gregory", FamilyName: "House", Specialty: "Orthopedics"}, Availability: house},
		{Provider: schedule.Provider{Name: "Grey, Meredith", FamilyName: "Grey", Specialty: "Primary Care"}, Availability: grey},
	})
}

func newTestSync(t *testing.T, history []visit.HistoryEntry) *Synchronizer {
	t.Helper()
	return NewSynchronizer(testCatalog(t), history, visit.DefaultDurations(), 30, func() time.Time { return testNow })
}

func TestExplicitLocationSurvivesProviderRules(t *testing.T) {
	s := newTestSync(t, nil)

	res := s.ApplyBatch(Batch{
		{Field: FieldDoctor, Value: "House, Gregory"},
		{Field: FieldLocation, Value: "Jefferson Hospital"},
	})

	assert.Empty(t, res.Unmatched)
	assert.Equal(t, "Jefferson Hospital", s.Get(FieldLocation))
	// Date restrictions still reflect the combined day-set of the split schedule.
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}, s.AllowedDays())
}

func TestUnknownProviderClearsInferredFields(t *testing.T) {
	history := []visit.HistoryEntry{
		{Date: testNow.AddDate(-2, 0, 0), Provider: "Dr. Meredith Grey", Status: visit.StatusCompleted},
	}
	s := newTestSync(t, history)

	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Grey, Meredith"}})
	require.Equal(t, string(visit.TypeEstablished), s.Get(FieldType))
	require.Equal(t, "Jefferson Hospital", s.Get(FieldLocation))

	// A doctor nobody in the catalog matches: the raw value is kept and
	// flagged, and the previous provider's inferences go with them.
	res := s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Dr. Stephen Strange"}})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, FieldDoctor, res.Unmatched[0].Field)
	assert.Equal(t, "Dr. Stephen Strange", s.Get(FieldDoctor))
	assert.Empty(t, s.Get(FieldType))
	assert.Empty(t, s.Get(FieldLocation))
	assert.Empty(t, s.AllowedDays())
}

func TestProviderSelectionInfersTypeAndLocation(t *testing.T) {
	history := []visit.HistoryEntry{
		{Date: testNow.AddDate(-2, 0, 0), Provider: "Dr. Meredith Grey", Status: visit.StatusCompleted},
	}
	s := newTestSync(t, history)

	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Grey, Meredith"}})

	assert.Equal(t, string(visit.TypeEstablished), s.Get(FieldType))
	assert.Equal(t, 15, s.SuggestedDuration())
	assert.Equal(t, "Jefferson Hospital", s.Get(FieldLocation))
}

func TestUnseenProviderClassifiesNew(t *testing.T) {
	s := newTestSync(t, nil)

	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	assert.Equal(t, string(visit.TypeNew), s.Get(FieldType))
	assert.Equal(t, 30, s.SuggestedDuration())
	// Split schedule: location is unknown until a date picks the segment.
	assert.Equal(t, "", s.Get(FieldLocation))
}

func TestDateSelectionFillsSplitScheduleLocation(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	// 2026-08-31 is a Monday: PPTH Orthopedics, 08:00-12:00.
	res := s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-08-31"}})

	assert.Empty(t, res.Unmatched)
	assert.Equal(t, "PPTH Orthopedics", s.Get(FieldLocation))

	slots := s.Slots()
	require.Len(t, slots, 8)
	assert.Equal(t, "08:00", slots[0].String())
	assert.Equal(t, "11:30", slots[7].String())
}

func TestOutOfScheduleDateRejectedAtSettingStep(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	// 2026-09-05 is a Saturday; House works Monday through Thursday.
	res := s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-09-05"}})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, FieldDate, res.Unmatched[0].Field)
	assert.Equal(t, ReasonUnavailableDay, res.Unmatched[0].Reason)
	assert.Equal(t, "", s.Get(FieldDate))
	assert.Empty(t, s.Slots())
}

func TestRejectedDateRevertsToPreviousSelection(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})
	s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-08-31"}})

	res := s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-09-05"}})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "2026-08-31", s.Get(FieldDate))
	assert.Len(t, s.Slots(), 8)
}

func TestExplicitTimeSurvivesSlotRegeneration(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	// Tuesday segment is 13:00-17:00 at Jefferson Hospital.
	res := s.ApplyBatch(Batch{
		{Field: FieldDate, Value: "2026-09-01"},
		{Field: FieldTime, Value: "14:00"},
	})

	assert.Empty(t, res.Unmatched)
	assert.Equal(t, "14:00", s.Get(FieldTime))
	assert.Equal(t, "Jefferson Hospital", s.Get(FieldLocation))
}

func TestExplicitTimeOutsideSlotsFlaggedUnmatched(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	res := s.ApplyBatch(Batch{
		{Field: FieldDate, Value: "2026-09-01"},
		{Field: FieldTime, Value: "08:00"}, // morning, but Tuesdays start at 13:00
	})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, FieldTime, res.Unmatched[0].Field)
	assert.Equal(t, ReasonNotASlot, res.Unmatched[0].Reason)
	// Raw value retained for visibility.
	assert.Equal(t, "08:00", s.Get(FieldTime))
}

func TestDateChangeResetsUnprotectedTime(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})
	s.ApplyBatch(Batch{
		{Field: FieldDate, Value: "2026-09-01"},
		{Field: FieldTime, Value: "14:00"},
	})

	s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-08-31"}})

	assert.Equal(t, "", s.Get(FieldTime))
}

func TestProviderSwitchClearsIncompatibleDate(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Grey, Meredith"}})
	s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-08-28"}}) // Friday

	res := s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "House, Gregory"}})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, FieldDate, res.Unmatched[0].Field)
	assert.Equal(t, "", s.Get(FieldDate))
	assert.Empty(t, s.Slots())
}

func TestUnknownFieldDoesNotAbortBatch(t *testing.T) {
	s := newTestSync(t, nil)

	res := s.ApplyBatch(Batch{
		{Field: "insurance-carrier", Value: "Acme Health"},
		{Field: FieldFirstName, Value: "John"},
	})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, ReasonUnknownField, res.Unmatched[0].Reason)
	assert.Equal(t, "John", s.Get(FieldFirstName))
}

func TestUnmatchedProviderKeepsRawValue(t *testing.T) {
	s := newTestSync(t, nil)

	res := s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Strange, Stephen"}})

	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, ReasonNoOptionMatch, res.Unmatched[0].Reason)
	assert.Equal(t, "Strange, Stephen", s.Get(FieldDoctor))
	assert.Empty(t, s.AllowedDays())
}

func TestFuzzyProviderAndLocationResolution(t *testing.T) {
	s := newTestSync(t, nil)

	res := s.ApplyBatch(Batch{
		{Field: FieldDoctor, Value: "Dr. House, Gregory MD"},
		{Field: FieldLocation, Value: "jefferson"},
	})

	assert.Empty(t, res.Unmatched)
	assert.Equal(t, "House, Gregory", s.Get(FieldDoctor))
	assert.Equal(t, "Jefferson Hospital", s.Get(FieldLocation))
}

func TestExplicitTypeNotOverwrittenByInference(t *testing.T) {
	history := []visit.HistoryEntry{
		{Date: testNow.AddDate(-1, 0, 0), Provider: "Dr. Meredith Grey", Status: visit.StatusCompleted},
	}
	s := newTestSync(t, history)

	s.ApplyBatch(Batch{
		{Field: FieldDoctor, Value: "Grey, Meredith"},
		{Field: FieldType, Value: "NEW"},
	})

	// History says ESTABLISHED, but the batch set the type explicitly.
	assert.Equal(t, "NEW", s.Get(FieldType))
	assert.Equal(t, 30, s.SuggestedDuration())
}

func TestUpdatedListsRuleDrivenChanges(t *testing.T) {
	s := newTestSync(t, nil)

	res := s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Grey, Meredith"}})

	assert.ElementsMatch(t, []Field{FieldDoctor, FieldType, FieldLocation}, res.Updated)
}

func TestResetClearsDerivedState(t *testing.T) {
	s := newTestSync(t, nil)
	s.ApplyBatch(Batch{{Field: FieldDoctor, Value: "Grey, Meredith"}})
	s.ApplyBatch(Batch{{Field: FieldDate, Value: "2026-08-28"}})

	s.Reset()

	assert.Equal(t, "", s.Get(FieldDoctor))
	assert.Empty(t, s.Slots())
	assert.Empty(t, s.AllowedDays())
}
