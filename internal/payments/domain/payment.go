package payments

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Method is how a payment was made.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodCash         Method = "cash"
	MethodDirectDebit  Method = "direct_debit"
)

var (
	// ErrInvalidMethod indicates an unknown payment method.
	ErrInvalidMethod = errors.New("payments: invalid payment method")
	// ErrNotFound indicates the payment does not exist.
	ErrNotFound = errors.New("payments: payment not found")
)

// NormalizeMethod validates a payment method string.
func NormalizeMethod(value string) (Method, bool) {
	switch Method(value) {
	case MethodBankTransfer, MethodCard, MethodCash, MethodDirectDebit:
		return Method(value), true
	default:
		return "", false
	}
}

// Payment records money received against an invoice.
type Payment struct {
	ID         string
	TenantID   string
	InvoiceID  string
	Amount     decimal.Decimal
	Method     Method
	Reference  string
	ReceivedAt time.Time
	CreatedAt  time.Time
}

// Repository persists payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*Payment, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Payment, error)
}
