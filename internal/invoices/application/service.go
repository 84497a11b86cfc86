package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	billing "utility-cloud/internal/billing/domain"
	"utility-cloud/internal/invoices/application/events"
	invoices "utility-cloud/internal/invoices/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ValidatedReading is one billable register value.
type ValidatedReading struct {
	ReadingID string
	Value     decimal.Decimal
	ReadAt    time.Time
}

// ReadingSource lists validated readings for a meter, ordered by read_at.
type ReadingSource interface {
	ListValidated(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]ValidatedReading, error)
}

// MeterTariffReader resolves the tariff a meter is billed under.
type MeterTariffReader interface {
	TariffIDForMeter(ctx context.Context, tenantID, meterID string) (string, error)
}

// TariffReader loads tariffs for pricing.
type TariffReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*billing.Tariff, error)
}

// InvoicePublisher emits invoice lifecycle events.
type InvoicePublisher interface {
	PublishInvoiceIssued(ctx context.Context, event events.InvoiceIssued) error
	PublishInvoiceVoided(ctx context.Context, event events.InvoiceVoided) error
}

// Service handles invoice generation and lifecycle use cases.
type Service struct {
	repo       invoices.Repository
	source     ReadingSource
	meters     MeterTariffReader
	tariffs    TariffReader
	dispatcher *billing.Dispatcher
	publisher  InvoicePublisher
	clock      Clock
}

// NewService constructs the invoices application service.
func NewService(
	repo invoices.Repository,
	source ReadingSource,
	meters MeterTariffReader,
	tariffs TariffReader,
	dispatcher *billing.Dispatcher,
	publisher InvoicePublisher,
	clock Clock,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("invoices service: nil repository")
	}
	if source == nil {
		return nil, errors.New("invoices service: nil reading source")
	}
	if meters == nil {
		return nil, errors.New("invoices service: nil meter reader")
	}
	if tariffs == nil {
		return nil, errors.New("invoices service: nil tariff reader")
	}
	if dispatcher == nil {
		dispatcher = billing.NewDefaultDispatcher()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		repo:       repo,
		source:     source,
		meters:     meters,
		tariffs:    tariffs,
		dispatcher: dispatcher,
		publisher:  publisher,
		clock:      clock,
	}, nil
}

// Generate builds a draft invoice for a meter's consumption over
// [periodStart, periodEnd). Each line prices the delta between two
// consecutive validated readings at the interval-end timestamp. An
// unbillable tariff aborts the whole run; nothing partial is stored.
func (s *Service) Generate(ctx context.Context, tenantID, meterID string, periodStart, periodEnd time.Time) (*invoices.Invoice, []invoices.LineItem, error) {
	if s == nil {
		return nil, nil, errors.New("invoices service: nil service")
	}
	if tenantID == "" || meterID == "" {
		return nil, nil, errors.New("invoices service: tenant and meter required")
	}
	if !periodEnd.After(periodStart) {
		return nil, nil, invoices.ErrInvalidPeriod
	}

	previous, err := s.repo.LatestForPeriod(ctx, tenantID, meterID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, err
	}
	version := 1
	if previous != nil {
		if previous.Live() {
			return nil, nil, fmt.Errorf("%w: %s v%d", invoices.ErrActiveInvoiceExists, previous.ID, previous.Version)
		}
		version = previous.Version + 1
	}

	list, err := s.source.ListValidated(ctx, tenantID, meterID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, err
	}
	if len(list) < 2 {
		return nil, nil, fmt.Errorf("%w: got %d", invoices.ErrInsufficientReadings, len(list))
	}

	tariffID, err := s.meters.TariffIDForMeter(ctx, tenantID, meterID)
	if err != nil {
		return nil, nil, err
	}
	tariff, err := s.tariffs.FindByID(ctx, tenantID, tariffID)
	if err != nil {
		return nil, nil, err
	}
	if tariff == nil {
		return nil, nil, fmt.Errorf("%w: %s", billing.ErrTariffNotFound, tariffID)
	}
	strategy, err := s.dispatcher.Resolve(tariff.Type)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now().UTC()
	invoice := &invoices.Invoice{
		ID:          newInvoiceID(),
		TenantID:    tenantID,
		MeterID:     meterID,
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
		Status:      invoices.StatusDraft,
		Version:     version,
		Currency:    tariff.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lines := make([]invoices.LineItem, 0, len(list)-1)
	totalConsumption := decimal.Zero
	totalAmount := decimal.Zero
	for i := 1; i < len(list); i++ {
		prev, curr := list[i-1], list[i]
		delta := curr.Value.Sub(prev.Value)
		if delta.IsNegative() {
			// Register rollover or meter swap validated by a manager;
			// the interval itself is not billable.
			delta = decimal.Zero
		}
		amount, err := strategy.Calculate(tariff, delta, curr.ReadAt)
		if err != nil {
			return nil, nil, err
		}
		amount = roundMoney(amount)
		lines = append(lines, invoices.LineItem{
			InvoiceID:     invoice.ID,
			IntervalStart: prev.ReadAt,
			IntervalEnd:   curr.ReadAt,
			Consumption:   delta,
			Amount:        amount,
			Strategy:      strategy.Name(),
			CreatedAt:     now,
		})
		totalConsumption = totalConsumption.Add(delta)
		totalAmount = totalAmount.Add(amount)
	}
	invoice.TotalConsumption = totalConsumption
	invoice.TotalAmount = totalAmount

	if err := s.repo.SaveWithLines(ctx, invoice, lines); err != nil {
		return nil, nil, err
	}
	return invoice, lines, nil
}

// Issue moves a draft invoice to issued and announces it.
func (s *Service) Issue(ctx context.Context, tenantID, id string) (*invoices.Invoice, error) {
	invoice, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if err := invoice.Issue(now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		err := s.publisher.PublishInvoiceIssued(ctx, events.InvoiceIssued{
			TenantID:    invoice.TenantID,
			InvoiceID:   invoice.ID,
			MeterID:     invoice.MeterID,
			PeriodStart: invoice.PeriodStart,
			PeriodEnd:   invoice.PeriodEnd,
			TotalAmount: invoice.TotalAmount,
			Currency:    invoice.Currency,
			OccurredAt:  now,
		})
		if err != nil {
			return nil, err
		}
	}
	return invoice, nil
}

// Void cancels an invoice, freeing the period for regeneration.
func (s *Service) Void(ctx context.Context, tenantID, id, reason string) (*invoices.Invoice, error) {
	invoice, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if err := invoice.Void(reason, now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		err := s.publisher.PublishInvoiceVoided(ctx, events.InvoiceVoided{
			TenantID:   invoice.TenantID,
			InvoiceID:  invoice.ID,
			MeterID:    invoice.MeterID,
			Reason:     reason,
			OccurredAt: now,
		})
		if err != nil {
			return nil, err
		}
	}
	return invoice, nil
}

// RecordPayment applies a payment against an issued invoice.
func (s *Service) RecordPayment(ctx context.Context, tenantID, id string, amount decimal.Decimal) (*invoices.Invoice, error) {
	invoice, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.ApplyPayment(amount, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Get fetches one invoice scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*invoices.Invoice, error) {
	return s.getOwned(ctx, tenantID, id)
}

// Lines returns the line items of an invoice.
func (s *Service) Lines(ctx context.Context, tenantID, id string) ([]invoices.LineItem, error) {
	if _, err := s.getOwned(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.repo.ListLines(ctx, tenantID, id)
}

// List returns the tenant's invoices, optionally filtered by meter.
func (s *Service) List(ctx context.Context, tenantID, meterID string) ([]*invoices.Invoice, error) {
	if s == nil {
		return nil, errors.New("invoices service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("invoices service: empty tenant id")
	}
	if meterID != "" {
		return s.repo.ListByMeter(ctx, tenantID, meterID)
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *Service) getOwned(ctx context.Context, tenantID, id string) (*invoices.Invoice, error) {
	if s == nil {
		return nil, errors.New("invoices service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("invoices service: empty tenant id")
	}
	invoice, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: %s", invoices.ErrNotFound, id)
	}
	return invoice, nil
}

// roundMoney rounds half away from zero to cent precision. Rounding
// happens once per line; strategies stay exact.
func roundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

func newInvoiceID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "inv-" + hex.EncodeToString(buf)
}
