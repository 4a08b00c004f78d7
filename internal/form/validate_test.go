package form

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledDraft(date string) *Draft {
	d := NewDraft()
	d.set(FieldFirstName, "John")
	d.set(FieldLastName, "Doe")
	d.set(FieldDOB, "1975-01-01")
	d.set(FieldDoctor, "Grey, Meredith")
	d.set(FieldType, "ESTABLISHED")
	d.set(FieldLocation, "Jefferson Hospital")
	d.set(FieldDate, date)
	d.set(FieldTime, "09:30")
	return d
}

func TestValidateCompleteDraft(t *testing.T) {
	v := NewValidator(nil)
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	assert.NoError(t, v.Validate(filledDraft("2026-08-28"), now))
}

func TestValidateSameDayIsAllowed(t *testing.T) {
	v := NewValidator(nil)
	now := time.Date(2026, 8, 26, 23, 30, 0, 0, time.Local)

	assert.NoError(t, v.Validate(filledDraft("2026-08-26"), now))
}

func TestValidatePastDateRejected(t *testing.T) {
	v := NewValidator(nil)
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	err := v.Validate(filledDraft("2026-08-25"), now)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestValidateMissingFields(t *testing.T) {
	v := NewValidator(nil)
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	d := filledDraft("2026-08-28")
	d.set(FieldTime, "")
	d.set(FieldLocation, "")

	err := v.Validate(d, now)
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []Field{FieldTime, FieldLocation}, missing.Fields)
}

func TestValidateConfiguredRequiredSet(t *testing.T) {
	v := NewValidator([]Field{FieldDoctor, FieldDate})
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	d := NewDraft()
	d.set(FieldDoctor, "Grey, Meredith")
	d.set(FieldDate, "2026-08-28")

	assert.NoError(t, v.Validate(d, now))
}

func TestValidateUnparseableDate(t *testing.T) {
	v := NewValidator([]Field{FieldDate})
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)

	d := NewDraft()
	d.set(FieldDate, "next tuesday")

	assert.Error(t, v.Validate(d, now))
}
