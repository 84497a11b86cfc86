package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"utility-cloud/internal/observability/metrics"
	"utility-cloud/internal/readings/application/events"
	readings "utility-cloud/internal/readings/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MeterChecker verifies a meter belongs to the tenant.
type MeterChecker interface {
	EnsureMeterTenant(ctx context.Context, tenantID, meterID string) error
}

// ReviewPublisher emits reading review events.
type ReviewPublisher interface {
	PublishReadingValidated(ctx context.Context, event events.ReadingValidated) error
	PublishReadingRejected(ctx context.Context, event events.ReadingRejected) error
}

// Service handles meter reading use cases.
type Service struct {
	repo      readings.Repository
	meters    MeterChecker
	workflows WorkflowConfig
	publisher ReviewPublisher
	clock     Clock
}

// NewService constructs the readings application service.
func NewService(repo readings.Repository, meters MeterChecker, workflows WorkflowConfig, publisher ReviewPublisher, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("readings service: nil repository")
	}
	if err := workflows.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, meters: meters, workflows: workflows, publisher: publisher, clock: clock}, nil
}

// WorkflowFor exposes the workflow strategy active for a tenant.
func (s *Service) WorkflowFor(tenantID string) readings.WorkflowStrategy {
	return s.workflows.WorkflowFor(tenantID)
}

// Submit stores a new pending reading. A value below the meter's latest
// reading flags the newcomer for review instead of rejecting it.
func (s *Service) Submit(ctx context.Context, tenantID, meterID, enteredBy string, value decimal.Decimal, readAt time.Time) (*readings.MeterReading, error) {
	if s == nil {
		return nil, errors.New("readings service: nil service")
	}
	if tenantID == "" || meterID == "" {
		return nil, errors.New("readings service: tenant and meter required")
	}
	if s.meters != nil {
		if err := s.meters.EnsureMeterTenant(ctx, tenantID, meterID); err != nil {
			return nil, err
		}
	}
	if readAt.IsZero() {
		readAt = s.clock.Now()
	}

	previous, err := s.repo.LatestForMeter(ctx, tenantID, meterID)
	if err != nil {
		return nil, err
	}
	reading, err := readings.NewMeterReading(newReadingID(), tenantID, meterID, enteredBy, value, readAt, previous)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, reading); err != nil {
		return nil, err
	}
	metrics.IncReadingSubmitted(string(reading.ValidationStatus))
	return reading, nil
}

// Update rewrites a reading's value. Occupants are gated by the
// tenant's workflow strategy; elevated callers bypass it. The edited
// value goes through the same regression check as a fresh submission.
func (s *Service) Update(ctx context.Context, tenantID, id string, actor readings.Actor, elevated bool, value decimal.Decimal, readAt time.Time) (*readings.MeterReading, error) {
	reading, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !elevated {
		workflow := s.workflows.WorkflowFor(tenantID)
		if !workflow.CanTenantUpdate(actor, reading) {
			metrics.IncReadingMutationDenied()
			return nil, fmt.Errorf("%w: update under %s workflow", readings.ErrForbidden, workflow.Name())
		}
	}
	if value.IsNegative() {
		return nil, readings.ErrNegativeValue
	}
	reading.Value = value
	if !readAt.IsZero() {
		reading.ReadAt = readAt.UTC()
	}
	previous, err := s.repo.PreviousForMeter(ctx, tenantID, reading.MeterID, reading.ID)
	if err != nil {
		return nil, err
	}
	reading.Reassess(previous)
	reading.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, reading); err != nil {
		return nil, err
	}
	return reading, nil
}

// Delete removes a reading under the same gate as Update.
func (s *Service) Delete(ctx context.Context, tenantID, id string, actor readings.Actor, elevated bool) error {
	reading, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !elevated {
		workflow := s.workflows.WorkflowFor(tenantID)
		if !workflow.CanTenantDelete(actor, reading) {
			metrics.IncReadingMutationDenied()
			return fmt.Errorf("%w: delete under %s workflow", readings.ErrForbidden, workflow.Name())
		}
	}
	return s.repo.Delete(ctx, tenantID, id)
}

// Validate moves a reading to validated and announces it for billing.
func (s *Service) Validate(ctx context.Context, tenantID, id string) (*readings.MeterReading, error) {
	reading, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reading); err != nil {
		return nil, err
	}
	metrics.IncReadingReview(string(readings.StatusValidated))
	if s.publisher != nil {
		err := s.publisher.PublishReadingValidated(ctx, events.ReadingValidated{
			TenantID:   reading.TenantID,
			ReadingID:  reading.ID,
			MeterID:    reading.MeterID,
			Value:      reading.Value,
			ReadAt:     reading.ReadAt,
			OccurredAt: s.clock.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	}
	return reading, nil
}

// Reject moves a reading to rejected with a review note.
func (s *Service) Reject(ctx context.Context, tenantID, id, note string) (*readings.MeterReading, error) {
	reading, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := reading.Reject(note); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reading); err != nil {
		return nil, err
	}
	metrics.IncReadingReview(string(readings.StatusRejected))
	if s.publisher != nil {
		err := s.publisher.PublishReadingRejected(ctx, events.ReadingRejected{
			TenantID:   reading.TenantID,
			ReadingID:  reading.ID,
			MeterID:    reading.MeterID,
			Note:       note,
			OccurredAt: s.clock.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	}
	return reading, nil
}

// Get fetches one reading scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*readings.MeterReading, error) {
	return s.getOwned(ctx, tenantID, id)
}

// ListByMeter returns readings of a meter in [from, to).
func (s *Service) ListByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*readings.MeterReading, error) {
	if s == nil {
		return nil, errors.New("readings service: nil service")
	}
	if tenantID == "" || meterID == "" {
		return nil, errors.New("readings service: tenant and meter required")
	}
	return s.repo.ListByMeter(ctx, tenantID, meterID, from, to)
}

func (s *Service) getOwned(ctx context.Context, tenantID, id string) (*readings.MeterReading, error) {
	if s == nil {
		return nil, errors.New("readings service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("readings service: empty tenant id")
	}
	reading, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, fmt.Errorf("%w: %s", readings.ErrNotFound, id)
	}
	return reading, nil
}

func newReadingID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "rdg-" + hex.EncodeToString(buf)
}
