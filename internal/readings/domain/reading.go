package readings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationStatus is the review state of a submitted meter reading.
type ValidationStatus string

const (
	StatusPending        ValidationStatus = "pending"
	StatusValidated      ValidationStatus = "validated"
	StatusRejected       ValidationStatus = "rejected"
	StatusRequiresReview ValidationStatus = "requires_review"
)

// NormalizeStatus validates a status string.
func NormalizeStatus(value string) (ValidationStatus, bool) {
	switch ValidationStatus(value) {
	case StatusPending, StatusValidated, StatusRejected, StatusRequiresReview:
		return ValidationStatus(value), true
	default:
		return "", false
	}
}

var (
	// ErrNegativeValue indicates a reading below zero.
	ErrNegativeValue = errors.New("readings: negative value")
	// ErrNotPending indicates a status transition from a settled state.
	ErrNotPending = errors.New("readings: reading is not awaiting review")
	// ErrNotFound indicates the reading does not exist.
	ErrNotFound = errors.New("readings: reading not found")
	// ErrForbidden indicates the actor may not mutate the reading.
	ErrForbidden = errors.New("readings: mutation not permitted")
)

// MeterReading is a cumulative register value entered for a meter.
type MeterReading struct {
	ID               string
	TenantID         string
	MeterID          string
	Value            decimal.Decimal
	ReadAt           time.Time
	EnteredBy        string
	ValidationStatus ValidationStatus
	ReviewNote       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMeterReading builds a pending reading after basic value checks.
// When previous is non-nil and the new value regresses, the reading is
// flagged requires_review instead of being rejected outright; meters
// do get replaced and rolled over in the field.
func NewMeterReading(id, tenantID, meterID, enteredBy string, value decimal.Decimal, readAt time.Time, previous *MeterReading) (*MeterReading, error) {
	if value.IsNegative() {
		return nil, ErrNegativeValue
	}
	now := time.Now().UTC()
	reading := &MeterReading{
		ID:               id,
		TenantID:         tenantID,
		MeterID:          meterID,
		Value:            value,
		ReadAt:           readAt.UTC(),
		EnteredBy:        enteredBy,
		ValidationStatus: StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if previous != nil && value.LessThan(previous.Value) {
		reading.ValidationStatus = StatusRequiresReview
		reading.ReviewNote = "value below previous reading"
	}
	return reading, nil
}

// Reassess re-derives the regression flag after a value edit. Readings
// already validated or rejected keep their status.
func (r *MeterReading) Reassess(previous *MeterReading) {
	if r.ValidationStatus != StatusPending && r.ValidationStatus != StatusRequiresReview {
		return
	}
	if previous != nil && r.Value.LessThan(previous.Value) {
		r.ValidationStatus = StatusRequiresReview
		r.ReviewNote = "value below previous reading"
		return
	}
	r.ValidationStatus = StatusPending
	r.ReviewNote = ""
}

// Validate moves a pending or flagged reading to validated.
func (r *MeterReading) Validate() error {
	if r.ValidationStatus != StatusPending && r.ValidationStatus != StatusRequiresReview {
		return ErrNotPending
	}
	r.ValidationStatus = StatusValidated
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Reject moves a pending or flagged reading to rejected.
func (r *MeterReading) Reject(note string) error {
	if r.ValidationStatus != StatusPending && r.ValidationStatus != StatusRequiresReview {
		return ErrNotPending
	}
	r.ValidationStatus = StatusRejected
	r.ReviewNote = note
	r.UpdatedAt = time.Now().UTC()
	return nil
}
