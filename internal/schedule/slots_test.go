package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsThirtyMinuteInterval(t *testing.T) {
	seg := Segment{Start: 9 * 60, End: 11 * 60}

	got := Slots(seg, 30)
	require.Len(t, got, 4)
	assert.Equal(t, "09:00", got[0].String())
	assert.Equal(t, "10:30", got[3].String())
}

func TestSlotsUnevenWindowFloors(t *testing.T) {
	// 9:00-10:45 with a 30 minute step: last start strictly below the end.
	seg := Segment{Start: 9 * 60, End: 10*60 + 45}

	got := Slots(seg, 30)
	require.Len(t, got, 4)
	assert.Equal(t, TimeSlot(10*60+30), got[3])
}

func TestSlotsEmptyWindow(t *testing.T) {
	assert.Empty(t, Slots(Segment{Start: 10 * 60, End: 10 * 60}, 30))
	assert.Empty(t, Slots(Segment{Start: 11 * 60, End: 10 * 60}, 30))
}

func TestSlotsRestartable(t *testing.T) {
	seg := Segment{Start: 13 * 60, End: 17 * 60}

	first := Slots(seg, 30)
	second := Slots(seg, 30)
	assert.Equal(t, first, second)
}

func TestParseTimeSlot(t *testing.T) {
	s, err := ParseTimeSlot("14:30")
	require.NoError(t, err)
	assert.Equal(t, TimeSlot(14*60+30), s)

	for _, bad := range []string{"14", "25:00", "14:75", "2pm", ""} {
		_, err := ParseTimeSlot(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}
