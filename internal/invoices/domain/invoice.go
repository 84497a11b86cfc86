package invoices

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft  = "draft"
	StatusIssued = "issued"
	StatusPaid   = "paid"
	StatusVoided = "voided"
)

var (
	// ErrNotFound indicates the invoice does not exist for the tenant.
	ErrNotFound = errors.New("invoices: invoice not found")
	// ErrNotDraft indicates an issue attempt on a non-draft invoice.
	ErrNotDraft = errors.New("invoices: invoice is not a draft")
	// ErrNotIssued indicates a payment against an unissued invoice.
	ErrNotIssued = errors.New("invoices: invoice is not issued")
	// ErrAlreadyVoided indicates a void attempt on a voided invoice.
	ErrAlreadyVoided = errors.New("invoices: invoice already voided")
	// ErrActiveInvoiceExists indicates the period already has a live invoice.
	ErrActiveInvoiceExists = errors.New("invoices: active invoice exists for period")
	// ErrOverpayment indicates a payment exceeding the open balance.
	ErrOverpayment = errors.New("invoices: payment exceeds open balance")
	// ErrNonPositiveAmount indicates a zero or negative payment amount.
	ErrNonPositiveAmount = errors.New("invoices: payment amount must be positive")
	// ErrInsufficientReadings indicates the period holds fewer than two
	// validated readings, so no consumption interval can be formed.
	ErrInsufficientReadings = errors.New("invoices: not enough validated readings in period")
	// ErrInvalidPeriod indicates period end does not follow period start.
	ErrInvalidPeriod = errors.New("invoices: invalid billing period")
)

// Invoice bills a meter's consumption over a period. Regeneration after
// a void produces a new invoice with a bumped version; live invoices
// are never rewritten.
type Invoice struct {
	ID               string
	TenantID         string
	MeterID          string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Status           string
	Version          int
	TotalConsumption decimal.Decimal
	TotalAmount      decimal.Decimal
	AmountPaid       decimal.Decimal
	Currency         string
	VoidReason       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IssuedAt         time.Time
	PaidAt           time.Time
	VoidedAt         time.Time
}

// LineItem prices one interval between consecutive validated readings.
type LineItem struct {
	InvoiceID     string
	IntervalStart time.Time
	IntervalEnd   time.Time
	Consumption   decimal.Decimal
	Amount        decimal.Decimal
	Strategy      string
	CreatedAt     time.Time
}

// Issue moves a draft invoice to issued.
func (i *Invoice) Issue(at time.Time) error {
	if i.Status != StatusDraft {
		return fmt.Errorf("%w: %s", ErrNotDraft, i.Status)
	}
	i.Status = StatusIssued
	i.IssuedAt = at.UTC()
	i.UpdatedAt = at.UTC()
	return nil
}

// Void cancels a draft or issued invoice, recording why.
func (i *Invoice) Void(reason string, at time.Time) error {
	if i.Status == StatusVoided {
		return ErrAlreadyVoided
	}
	if i.Status == StatusPaid {
		return fmt.Errorf("%w: paid invoices cannot be voided", ErrAlreadyVoided)
	}
	i.Status = StatusVoided
	i.VoidReason = reason
	i.VoidedAt = at.UTC()
	i.UpdatedAt = at.UTC()
	return nil
}

// ApplyPayment records a payment against an issued invoice and flips it
// to paid when the balance reaches zero.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if i.Status != StatusIssued {
		return fmt.Errorf("%w: %s", ErrNotIssued, i.Status)
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	balance := i.TotalAmount.Sub(i.AmountPaid)
	if amount.GreaterThan(balance) {
		return fmt.Errorf("%w: balance %s, payment %s", ErrOverpayment, balance, amount)
	}
	i.AmountPaid = i.AmountPaid.Add(amount)
	i.UpdatedAt = at.UTC()
	if i.AmountPaid.Equal(i.TotalAmount) {
		i.Status = StatusPaid
		i.PaidAt = at.UTC()
	}
	return nil
}

// Balance is the open amount still owed.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// Live reports whether the invoice still occupies its billing period.
func (i *Invoice) Live() bool {
	return i.Status != StatusVoided
}
