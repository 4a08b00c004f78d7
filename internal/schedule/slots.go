package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSlot is a bookable start time expressed as a minute of the day.
type TimeSlot int

// String formats the slot as 24-hour "HH:MM".
func (s TimeSlot) String() string {
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}

// ParseTimeSlot parses 24-hour "HH:MM" into a minute-of-day slot.
func ParseTimeSlot(v string) (TimeSlot, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return TimeSlot(h*60 + m), nil
}

// Slots expands a segment's office hours into bookable start times, stepping
// by interval minutes while strictly below the segment end. An empty window
// (start >= end) yields an empty sequence. Two calls with the same segment
// produce identical sequences.
func Slots(seg Segment, interval int) []TimeSlot {
	if interval <= 0 {
		return nil
	}
	var out []TimeSlot
	for t := seg.Start; t < seg.End; t += interval {
		out = append(out, TimeSlot(t))
	}
	return out
}
