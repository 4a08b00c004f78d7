package form

import (
	"time"

	"github.com/carewise/care-coordinator/internal/match"
	"github.com/carewise/care-coordinator/internal/schedule"
	"github.com/carewise/care-coordinator/internal/visit"
)

// Synchronizer is the single writer of a Draft. It applies update batches in
// two phases: phase 1 resolves and stores every batch field in order while
// collecting an intent record, phase 2 runs the implicated dependent rules
// exactly once each, provider rules before date rules. A field explicitly
// present in a batch is never overwritten by a rule another field triggered.
//
// The Synchronizer is not safe for concurrent use; the owning session
// serializes batches (see booking.Coordinator).
type Synchronizer struct {
	catalog   *schedule.Catalog
	history   []visit.HistoryEntry
	durations visit.DurationTable
	interval  int
	now       func() time.Time

	draft       *Draft
	slots       []schedule.TimeSlot
	allowedDays []time.Weekday
}

func NewSynchronizer(catalog *schedule.Catalog, history []visit.HistoryEntry, durations visit.DurationTable, intervalMinutes int, now func() time.Time) *Synchronizer {
	if now == nil {
		now = time.Now
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	return &Synchronizer{
		catalog:   catalog,
		history:   history,
		durations: durations,
		interval:  intervalMinutes,
		now:       now,
		draft:     NewDraft(),
	}
}

// Snapshot returns a read-only copy of the draft.
func (s *Synchronizer) Snapshot() map[string]string { return s.draft.Snapshot() }

// Get returns the current value of one field.
func (s *Synchronizer) Get(f Field) string { return s.draft.Get(f) }

// Slots returns the bookable times for the currently selected provider/date.
func (s *Synchronizer) Slots() []schedule.TimeSlot {
	return append([]schedule.TimeSlot(nil), s.slots...)
}

// AllowedDays returns the weekday restriction set by the current provider,
// nil when no constraints are known.
func (s *Synchronizer) AllowedDays() []time.Weekday {
	return append([]time.Weekday(nil), s.allowedDays...)
}

// SuggestedDuration returns the appointment length in minutes implied by the
// current appointment-type, 0 while the type is unset or unrecognized.
func (s *Synchronizer) SuggestedDuration() int {
	switch t := visit.Type(s.draft.Get(FieldType)); t {
	case visit.TypeNew, visit.TypeEstablished:
		return s.durations.Minutes(t)
	default:
		return 0
	}
}

// Draft exposes the draft for read-only use such as validation. Mutating
// methods are unexported, so callers outside this package cannot bypass the
// synchronizer.
func (s *Synchronizer) Draft() *Draft { return s.draft }

// Reset clears the draft and all derived state.
func (s *Synchronizer) Reset() {
	s.draft.clear()
	s.slots = nil
	s.allowedDays = nil
}

// intent is what phase 1 learned about a batch, consumed by phase 2.
type intent struct {
	providerChanged  bool
	dateChanged      bool
	explicitLocation bool
	explicitTime     bool
	explicitType     bool
	prevDate         string
}

// ApplyBatch applies one atomic batch of proposed updates.
func (s *Synchronizer) ApplyBatch(batch Batch) ApplyResult {
	before := s.draft.Snapshot()

	var res ApplyResult
	in := intent{prevDate: s.draft.Get(FieldDate)}

	// Phase 1: resolve and store, in batch order.
	for _, u := range batch {
		if !KnownField(u.Field) {
			res.Unmatched = append(res.Unmatched, Unmatched{Field: u.Field, Value: u.Value, Reason: ReasonUnknownField})
			continue
		}

		switch u.Field {
		case FieldDoctor:
			v := u.Value
			if opt, ok := match.Resolve(u.Value, s.providerOptions()); ok {
				v = opt.Value
			} else {
				res.Unmatched = append(res.Unmatched, Unmatched{Field: u.Field, Value: u.Value, Reason: ReasonNoOptionMatch})
			}
			if v != s.draft.Get(FieldDoctor) {
				s.draft.set(FieldDoctor, v)
				in.providerChanged = true
			}
		case FieldLocation:
			in.explicitLocation = true
			v := u.Value
			if opt, ok := match.Resolve(u.Value, match.Options(s.catalog.Locations()...)); ok {
				v = opt.Value
			} else {
				res.Unmatched = append(res.Unmatched, Unmatched{Field: u.Field, Value: u.Value, Reason: ReasonNoOptionMatch})
			}
			s.draft.set(FieldLocation, v)
		case FieldType:
			in.explicitType = true
			v := u.Value
			if opt, ok := match.Resolve(u.Value, match.Options(string(visit.TypeNew), string(visit.TypeEstablished))); ok {
				v = opt.Value
			} else {
				res.Unmatched = append(res.Unmatched, Unmatched{Field: u.Field, Value: u.Value, Reason: ReasonNoOptionMatch})
			}
			s.draft.set(FieldType, v)
		case FieldDate:
			if u.Value != s.draft.Get(FieldDate) {
				s.draft.set(FieldDate, u.Value)
				in.dateChanged = true
			}
		case FieldTime:
			// Validated against the slot list in phase 2, after any
			// regeneration the same batch triggers.
			in.explicitTime = true
			s.draft.set(FieldTime, u.Value)
		default:
			s.draft.set(u.Field, u.Value)
		}
	}

	// Phase 2: dependent rules, provider rules first, each at most once.
	runDateRule := in.dateChanged
	if in.providerChanged {
		s.applyProviderRules(in)
		if s.draft.Get(FieldDate) != "" {
			// A new provider changes the segment a date maps to.
			runDateRule = true
		}
	}
	if runDateRule {
		s.applyDateRule(&res, in)
	}
	if in.explicitTime {
		s.resolveExplicitTime(&res)
	}

	after := s.draft.Snapshot()
	for _, f := range AllFields {
		if before[string(f)] != after[string(f)] {
			res.Updated = append(res.Updated, f)
		}
	}
	return res
}

func (s *Synchronizer) providerOptions() []match.Option {
	providers := s.catalog.Providers()
	opts := make([]match.Option, len(providers))
	for i, p := range providers {
		opts[i] = match.Option{Value: p.Name, Label: p.FamilyName}
	}
	return opts
}

// applyProviderRules handles type inference, location inference and the
// date-restriction setup for a newly selected provider. An unknown provider
// degrades to "no constraints known" rather than failing the batch.
func (s *Synchronizer) applyProviderRules(in intent) {
	name := s.draft.Get(FieldDoctor)

	prov, err := s.catalog.Lookup(name)
	if err != nil {
		// The previous provider's inferences no longer hold; explicit values
		// from this batch stay.
		if !in.explicitType {
			s.draft.set(FieldType, "")
		}
		if !in.explicitLocation {
			s.draft.set(FieldLocation, "")
		}
		s.allowedDays = nil
		return
	}

	if !in.explicitType {
		t := visit.Classify(prov, s.history, s.now())
		s.draft.set(FieldType, string(t))
	}

	segments, err := s.catalog.SegmentsFor(name)
	if err == nil && !in.explicitLocation {
		if len(segments) == 1 {
			s.draft.set(FieldLocation, segments[0].Location)
		} else {
			// Split schedule: the location depends on the chosen date and is
			// filled in by the date rule.
			s.draft.set(FieldLocation, "")
		}
	}

	days, err := s.catalog.WorkingDaysFor(name)
	if err != nil {
		s.allowedDays = nil
		return
	}
	s.allowedDays = days
}

// applyDateRule validates the current date against the provider's working
// days and regenerates the slot list. An out-of-schedule date proposed by the
// batch is rejected here, at the date-setting step, and the previous date is
// restored when it is still valid. A pre-existing date invalidated by a
// provider change is cleared.
func (s *Synchronizer) applyDateRule(res *ApplyResult, in intent) {
	raw := s.draft.Get(FieldDate)
	if raw == "" {
		s.clearSlots(in)
		return
	}

	day, reason := s.checkDate(raw)
	if reason == "" {
		s.regenerateSlots(day, in)
		return
	}

	res.Unmatched = append(res.Unmatched, Unmatched{Field: FieldDate, Value: raw, Reason: reason})

	if in.dateChanged && in.prevDate != "" {
		if prev, prevReason := s.checkDate(in.prevDate); prevReason == "" {
			s.draft.set(FieldDate, in.prevDate)
			s.regenerateSlots(prev, in)
			return
		}
	}
	s.draft.set(FieldDate, "")
	s.clearSlots(in)
}

// checkDate parses a date and checks it against the provider's working days.
// A non-empty reason means the date must be rejected.
func (s *Synchronizer) checkDate(raw string) (time.Time, string) {
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, ReasonInvalidDate
	}
	if len(s.allowedDays) > 0 && !containsDay(s.allowedDays, day.Weekday()) {
		return time.Time{}, ReasonUnavailableDay
	}
	return day, ""
}

func (s *Synchronizer) regenerateSlots(day time.Time, in intent) {
	doctor := s.draft.Get(FieldDoctor)
	seg, ok, err := s.catalog.SegmentForDay(doctor, day.Weekday())
	if err != nil || !ok {
		// Unknown provider: no slot constraints known.
		s.slots = nil
		if !in.explicitTime {
			s.draft.set(FieldTime, "")
		}
		return
	}

	s.slots = schedule.Slots(seg, s.interval)
	if !in.explicitLocation {
		s.draft.set(FieldLocation, seg.Location)
	}
	if !in.explicitTime {
		// Regeneration resets the selection; an explicitly requested time is
		// restored by resolveExplicitTime instead.
		s.draft.set(FieldTime, "")
	}
}

func (s *Synchronizer) clearSlots(in intent) {
	s.slots = nil
	if !in.explicitTime {
		s.draft.set(FieldTime, "")
	}
}

// resolveExplicitTime re-resolves a batch-requested time against the current
// slot list. With no slot context the raw value is kept as-is; with slots, an
// absent time is flagged unmatched and the raw value retained for visibility.
func (s *Synchronizer) resolveExplicitTime(res *ApplyResult) {
	raw := s.draft.Get(FieldTime)
	if raw == "" {
		return
	}

	candidate := raw
	if slot, err := schedule.ParseTimeSlot(raw); err == nil {
		candidate = slot.String()
	}

	if len(s.slots) == 0 {
		s.draft.set(FieldTime, candidate)
		return
	}

	opts := make([]match.Option, len(s.slots))
	for i, slot := range s.slots {
		opts[i] = match.Option{Value: slot.String()}
	}
	if opt, ok := match.Resolve(candidate, opts); ok {
		s.draft.set(FieldTime, opt.Value)
		return
	}
	res.Unmatched = append(res.Unmatched, Unmatched{Field: FieldTime, Value: raw, Reason: ReasonNotASlot})
}

func containsDay(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
