package form

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPastDate reports a chosen date strictly before today at local midnight.
var ErrPastDate = errors.New("appointment date is in the past")

// MissingFieldsError lists required fields the draft has not filled yet.
type MissingFieldsError struct {
	Fields []Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return "missing required fields: " + strings.Join(names, ", ")
}

// Validator is the final gate before submission. Required is configuration
// driven; day-of-week availability is not re-checked here because the
// synchronizer already rejects out-of-schedule dates when they are set.
type Validator struct {
	Required []Field
}

// NewValidator requires the whole form schema by default.
func NewValidator(required []Field) Validator {
	if len(required) == 0 {
		required = AllFields
	}
	return Validator{Required: required}
}

// Validate checks completeness and temporal validity. The draft is left
// intact on failure so the caller can correct and retry.
func (v Validator) Validate(d *Draft, now time.Time) error {
	var missing []Field
	for _, f := range v.Required {
		if d.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	date, err := time.ParseInLocation("2006-01-02", d.Get(FieldDate), time.Local)
	if err != nil {
		return fmt.Errorf("parse appointment-date: %w", err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if date.Before(midnight) {
		return ErrPastDate
	}
	return nil
}
