// Package form holds the in-progress appointment draft and the
// synchronization engine that keeps its dependent fields consistent.
package form

// Field names the slots of the appointment form. The values are the wire
// names of the assistant's FORM_UPDATE contract.
type Field string

const (
	FieldFirstName Field = "first-name"
	FieldLastName  Field = "last-name"
	FieldDOB       Field = "dob"
	FieldDoctor    Field = "doctor"
	FieldType      Field = "appointment-type"
	FieldLocation  Field = "appointment-location"
	FieldDate      Field = "appointment-date"
	FieldTime      Field = "appointment-time"
)

// AllFields lists the schema in form order.
var AllFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldDOB,
	FieldDoctor,
	FieldType,
	FieldLocation,
	FieldDate,
	FieldTime,
}

var knownFields = func() map[Field]bool {
	m := make(map[Field]bool, len(AllFields))
	for _, f := range AllFields {
		m[f] = true
	}
	return m
}()

// KnownField reports whether a field name is part of the form schema.
func KnownField(f Field) bool { return knownFields[f] }

// Draft is the mutable work-in-progress form state. All mutation goes through
// the Synchronizer; the rest of the system only sees read-only snapshots.
type Draft struct {
	values map[Field]string
}

func NewDraft() *Draft {
	return &Draft{values: make(map[Field]string, len(AllFields))}
}

// Get returns the current value of a field, "" when unset.
func (d *Draft) Get(f Field) string { return d.values[f] }

func (d *Draft) set(f Field, v string) { d.values[f] = v }

// Snapshot copies the draft into a plain map for rendering layers.
func (d *Draft) Snapshot() map[string]string {
	out := make(map[string]string, len(AllFields))
	for _, f := range AllFields {
		out[string(f)] = d.values[f]
	}
	return out
}

// clear empties every field, used after a successful submission or an
// explicit reset. Unexported: all mutation goes through the Synchronizer.
func (d *Draft) clear() {
	d.values = make(map[Field]string, len(AllFields))
}

// Update is one proposed field change.
type Update struct {
	Field Field
	Value string
}

// Batch is an ordered set of proposed updates applied as a single atomic
// unit. Order matters: later updates in the batch see the effect of earlier
// ones.
type Batch []Update

// Unmatched reasons reported by ApplyBatch.
const (
	ReasonUnknownField   = "unknown field"
	ReasonNoOptionMatch  = "no matching option"
	ReasonInvalidDate    = "invalid date, want YYYY-MM-DD"
	ReasonUnavailableDay = "provider not available on that day"
	ReasonNotASlot       = "time is not an available slot"
)

// Unmatched records a proposed value the engine could not resolve. The raw
// value may still have been stored for visibility, per Reason.
type Unmatched struct {
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ApplyResult reports what a batch changed. Updated lists every field whose
// stored value changed, whether directly from the batch or from a dependent
// rule the batch triggered.
type ApplyResult struct {
	Updated   []Field     `json:"updated"`
	Unmatched []Unmatched `json:"unmatched,omitempty"`
}
