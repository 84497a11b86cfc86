package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceIssued is emitted when a draft invoice becomes payable.
type InvoiceIssued struct {
	TenantID    string
	InvoiceID   string
	MeterID     string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalAmount decimal.Decimal
	Currency    string
	OccurredAt  time.Time
}

// InvoiceVoided is emitted when an invoice is cancelled.
type InvoiceVoided struct {
	TenantID   string
	InvoiceID  string
	MeterID    string
	Reason     string
	OccurredAt time.Time
}
