package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrProviderNotFound = errors.New("provider not found in availability catalog")
	ErrOverlappingDays  = errors.New("schedule segments share a weekday")
)

// Segment is one contiguous availability rule: the weekdays a provider works,
// the office hours as minute-of-day bounds, and where they see patients.
type Segment struct {
	Days     []time.Weekday
	Start    int // minute of day, inclusive
	End      int // minute of day, exclusive
	Location string
}

// Availability is either a single-segment schedule or a split schedule whose
// segments cover disjoint weekday sets. The aggregate working-day set and the
// per-day segment index are computed once at construction, never on lookup.
type Availability struct {
	segments []Segment
	days     []time.Weekday
	byDay    map[time.Weekday]int
}

// NewSimple builds a single-segment schedule.
func NewSimple(seg Segment) (Availability, error) {
	return NewSplit([]Segment{seg})
}

// NewSplit builds a schedule from ordered segments. Segments may not share a
// weekday: which segment applies to a given date must never be ambiguous.
func NewSplit(segments []Segment) (Availability, error) {
	if len(segments) == 0 {
		return Availability{}, errors.New("schedule needs at least one segment")
	}

	byDay := make(map[time.Weekday]int)
	var days []time.Weekday

	for i, seg := range segments {
		for _, d := range seg.Days {
			if _, dup := byDay[d]; dup {
				return Availability{}, fmt.Errorf("%w: %s", ErrOverlappingDays, d)
			}
			byDay[d] = i
			days = append(days, d)
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	return Availability{
		segments: append([]Segment(nil), segments...),
		days:     days,
		byDay:    byDay,
	}, nil
}

// Split reports whether the schedule has more than one segment.
func (a Availability) Split() bool { return len(a.segments) > 1 }

// Segments returns the ordered segments.
func (a Availability) Segments() []Segment {
	return append([]Segment(nil), a.segments...)
}

// WorkingDays returns the union of all segment day-sets, sorted.
func (a Availability) WorkingDays() []time.Weekday {
	return append([]time.Weekday(nil), a.days...)
}

// SegmentForDay returns the segment covering the weekday, if any.
func (a Availability) SegmentForDay(day time.Weekday) (Segment, bool) {
	i, ok := a.byDay[day]
	if !ok {
		return Segment{}, false
	}
	return a.segments[i], true
}

// Provider identifies a bookable clinician. Name is the canonical catalog
// form ("House, Gregory"); FamilyName is what appointment-history entries are
// matched against.
type Provider struct {
	Name       string
	FamilyName string
	Specialty  string
}

// Entry pairs a provider with its availability for catalog construction.
type Entry struct {
	Provider     Provider
	Availability Availability
}

// Catalog is the read-only availability registry. Immutable for the process
// lifetime; every lookup is pure.
type Catalog struct {
	entries []Entry
	byName  map[string]int
}

func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: append([]Entry(nil), entries...),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.byName[e.Provider.Name] = i
	}
	return c
}

// Providers returns all providers in catalog order.
func (c *Catalog) Providers() []Provider {
	out := make([]Provider, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Provider
	}
	return out
}

// Locations returns the distinct segment locations in catalog order.
func (c *Catalog) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.entries {
		for _, seg := range e.Availability.Segments() {
			if !seen[seg.Location] {
				seen[seg.Location] = true
				out = append(out, seg.Location)
			}
		}
	}
	return out
}

// Lookup returns the provider record for a canonical name.
func (c *Catalog) Lookup(name string) (Provider, error) {
	i, ok := c.byName[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return c.entries[i].Provider, nil
}

// SegmentsFor returns the ordered schedule segments for a provider.
func (c *Catalog) SegmentsFor(name string) ([]Segment, error) {
	i, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return c.entries[i].Availability.Segments(), nil
}

// WorkingDaysFor returns the union of segment day-sets for a provider.
func (c *Catalog) WorkingDaysFor(name string) ([]time.Weekday, error) {
	i, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return c.entries[i].Availability.WorkingDays(), nil
}

// SegmentForDay returns the segment that applies to the weekday, or ok=false
// when the provider does not work that day.
func (c *Catalog) SegmentForDay(name string, day time.Weekday) (Segment, bool, error) {
	i, ok := c.byName[name]
	if !ok {
		return Segment{}, false, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	seg, found := c.entries[i].Availability.SegmentForDay(day)
	return seg, found, nil
}
