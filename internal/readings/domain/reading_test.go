package readings

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewMeterReading_Monotonic(t *testing.T) {
	previous := &MeterReading{Value: decimal.NewFromInt(1000)}
	readAt := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	r, err := NewMeterReading("r-2", "tenant-a", "meter-1", "user-1", decimal.NewFromInt(1050), readAt, previous)
	if err != nil {
		t.Fatalf("new reading: %v", err)
	}
	if r.ValidationStatus != StatusPending {
		t.Fatalf("monotonic reading: got %q want pending", r.ValidationStatus)
	}
}

func TestNewMeterReading_RegressionFlagged(t *testing.T) {
	previous := &MeterReading{Value: decimal.NewFromInt(1000)}
	r, err := NewMeterReading("r-2", "tenant-a", "meter-1", "user-1", decimal.NewFromInt(900), time.Now(), previous)
	if err != nil {
		t.Fatalf("new reading: %v", err)
	}
	if r.ValidationStatus != StatusRequiresReview {
		t.Fatalf("regressed reading: got %q want requires_review", r.ValidationStatus)
	}
	if r.ReviewNote == "" {
		t.Fatal("regressed reading: empty review note")
	}
}

func TestNewMeterReading_NegativeRejected(t *testing.T) {
	_, err := NewMeterReading("r-1", "tenant-a", "meter-1", "user-1", decimal.NewFromInt(-5), time.Now(), nil)
	if !errors.Is(err, ErrNegativeValue) {
		t.Fatalf("expected ErrNegativeValue, got %v", err)
	}
}

func TestReadingTransitions(t *testing.T) {
	r := &MeterReading{ValidationStatus: StatusPending}
	if err := r.Validate(); err != nil {
		t.Fatalf("validate pending: %v", err)
	}
	if r.ValidationStatus != StatusValidated {
		t.Fatalf("got %q want validated", r.ValidationStatus)
	}
	if err := r.Validate(); !errors.Is(err, ErrNotPending) {
		t.Fatalf("validate validated: expected ErrNotPending, got %v", err)
	}

	r = &MeterReading{ValidationStatus: StatusRequiresReview}
	if err := r.Reject("meter rollover not confirmed"); err != nil {
		t.Fatalf("reject flagged: %v", err)
	}
	if r.ValidationStatus != StatusRejected {
		t.Fatalf("got %q want rejected", r.ValidationStatus)
	}
	if err := r.Reject("again"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("reject rejected: expected ErrNotPending, got %v", err)
	}
}
