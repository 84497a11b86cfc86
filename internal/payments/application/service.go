package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	invoices "utility-cloud/internal/invoices/domain"
	"utility-cloud/internal/observability/metrics"
	payments "utility-cloud/internal/payments/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// InvoiceCharger applies a payment to an invoice's open balance.
type InvoiceCharger interface {
	RecordPayment(ctx context.Context, tenantID, invoiceID string, amount decimal.Decimal) (*invoices.Invoice, error)
}

// Service handles payment use cases.
type Service struct {
	repo     payments.Repository
	invoices InvoiceCharger
	clock    Clock
}

// NewService constructs the payments application service.
func NewService(repo payments.Repository, charger InvoiceCharger, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("payments service: nil repository")
	}
	if charger == nil {
		return nil, errors.New("payments service: nil invoice charger")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, invoices: charger, clock: clock}, nil
}

// Record applies a payment to an invoice and stores the payment row.
// The invoice side enforces issuance and the overpayment bound.
func (s *Service) Record(ctx context.Context, tenantID, invoiceID string, amount decimal.Decimal, method, reference string) (*payments.Payment, *invoices.Invoice, error) {
	if s == nil {
		return nil, nil, errors.New("payments service: nil service")
	}
	if tenantID == "" || invoiceID == "" {
		return nil, nil, errors.New("payments service: tenant and invoice required")
	}
	normalized, ok := payments.NormalizeMethod(method)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", payments.ErrInvalidMethod, method)
	}

	invoice, err := s.invoices.RecordPayment(ctx, tenantID, invoiceID, amount)
	if err != nil {
		metrics.IncPaymentRecorded(metrics.ResultError)
		return nil, nil, err
	}

	now := s.clock.Now().UTC()
	payment := &payments.Payment{
		ID:         newPaymentID(),
		TenantID:   tenantID,
		InvoiceID:  invoiceID,
		Amount:     amount,
		Method:     normalized,
		Reference:  reference,
		ReceivedAt: now,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		metrics.IncPaymentRecorded(metrics.ResultError)
		return nil, nil, err
	}
	metrics.IncPaymentRecorded(metrics.ResultSuccess)
	return payment, invoice, nil
}

// ListByInvoice returns payments applied to one invoice.
func (s *Service) ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*payments.Payment, error) {
	if s == nil {
		return nil, errors.New("payments service: nil service")
	}
	return s.repo.ListByInvoice(ctx, tenantID, invoiceID)
}

// ListByTenant returns all payments of a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]*payments.Payment, error) {
	if s == nil {
		return nil, errors.New("payments service: nil service")
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

func newPaymentID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "pay-" + hex.EncodeToString(buf)
}
