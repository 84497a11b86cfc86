package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	readingsapp "utility-cloud/internal/readings/application"
	"utility-cloud/internal/readings/application/events"
	readings "utility-cloud/internal/readings/domain"
)

type memReadingRepo struct {
	store map[string]*readings.MeterReading
}

func newMemReadingRepo() *memReadingRepo {
	return &memReadingRepo{store: make(map[string]*readings.MeterReading)}
}

func (r *memReadingRepo) Create(_ context.Context, reading *readings.MeterReading) error {
	copied := *reading
	r.store[reading.ID] = &copied
	return nil
}

func (r *memReadingRepo) Update(_ context.Context, reading *readings.MeterReading) error {
	if _, ok := r.store[reading.ID]; !ok {
		return readings.ErrNotFound
	}
	copied := *reading
	r.store[reading.ID] = &copied
	return nil
}

func (r *memReadingRepo) Delete(_ context.Context, tenantID, id string) error {
	reading, ok := r.store[id]
	if !ok || reading.TenantID != tenantID {
		return readings.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *memReadingRepo) FindByID(_ context.Context, tenantID, id string) (*readings.MeterReading, error) {
	reading, ok := r.store[id]
	if !ok || reading.TenantID != tenantID {
		return nil, nil
	}
	copied := *reading
	return &copied, nil
}

func (r *memReadingRepo) ListByMeter(_ context.Context, tenantID, meterID string, from, to time.Time) ([]*readings.MeterReading, error) {
	var result []*readings.MeterReading
	for _, reading := range r.store {
		if reading.TenantID == tenantID && reading.MeterID == meterID &&
			!reading.ReadAt.Before(from) && reading.ReadAt.Before(to) {
			copied := *reading
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memReadingRepo) ListValidatedByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*readings.MeterReading, error) {
	all, _ := r.ListByMeter(ctx, tenantID, meterID, from, to)
	var result []*readings.MeterReading
	for _, reading := range all {
		if reading.ValidationStatus == readings.StatusValidated {
			result = append(result, reading)
		}
	}
	return result, nil
}

func (r *memReadingRepo) PreviousForMeter(_ context.Context, tenantID, meterID, excludeID string) (*readings.MeterReading, error) {
	var latest *readings.MeterReading
	for _, reading := range r.store {
		if reading.TenantID != tenantID || reading.MeterID != meterID || reading.ID == excludeID {
			continue
		}
		if latest == nil || reading.ReadAt.After(latest.ReadAt) {
			copied := *reading
			latest = &copied
		}
	}
	return latest, nil
}

func (r *memReadingRepo) LatestForMeter(_ context.Context, tenantID, meterID string) (*readings.MeterReading, error) {
	var latest *readings.MeterReading
	for _, reading := range r.store {
		if reading.TenantID != tenantID || reading.MeterID != meterID {
			continue
		}
		if latest == nil || reading.ReadAt.After(latest.ReadAt) {
			copied := *reading
			latest = &copied
		}
	}
	return latest, nil
}

type eventRecorder struct {
	validated []events.ReadingValidated
	rejected  []events.ReadingRejected
}

func (r *eventRecorder) PublishReadingValidated(_ context.Context, event events.ReadingValidated) error {
	r.validated = append(r.validated, event)
	return nil
}

func (r *eventRecorder) PublishReadingRejected(_ context.Context, event events.ReadingRejected) error {
	r.rejected = append(r.rejected, event)
	return nil
}

type allowAllMeters struct{}

func (allowAllMeters) EnsureMeterTenant(context.Context, string, string) error { return nil }

func newReadingsService(t *testing.T, repo readings.Repository, cfg readingsapp.WorkflowConfig, publisher readingsapp.ReviewPublisher) *readingsapp.Service {
	t.Helper()
	svc, err := readingsapp.NewService(repo, allowAllMeters{}, cfg, publisher, nil)
	if err != nil {
		t.Fatalf("new readings service: %v", err)
	}
	return svc
}

func submit(t *testing.T, svc *readingsapp.Service, enteredBy string, value int64, readAt time.Time) *readings.MeterReading {
	t.Helper()
	reading, err := svc.Submit(context.Background(), "tenant-a", "meter-1", enteredBy, decimal.NewFromInt(value), readAt)
	if err != nil {
		t.Fatalf("submit reading: %v", err)
	}
	return reading
}

func TestSubmit_FlagsRegressionForReview(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{}, nil)
	base := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)

	first := submit(t, svc, "user-1", 1000, base)
	if first.ValidationStatus != readings.StatusPending {
		t.Fatalf("first reading status: got=%s want=%s", first.ValidationStatus, readings.StatusPending)
	}

	second := submit(t, svc, "user-1", 900, base.Add(24*time.Hour))
	if second.ValidationStatus != readings.StatusRequiresReview {
		t.Fatalf("regressed reading status: got=%s want=%s", second.ValidationStatus, readings.StatusRequiresReview)
	}
	if second.ReviewNote == "" {
		t.Fatal("regressed reading should carry a review note")
	}
}

func TestUpdate_PermissiveOwnerMayEditPending(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{Default: readings.WorkflowPermissive}, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	updated, err := svc.Update(context.Background(), "tenant-a", reading.ID,
		readings.Actor{ID: "user-1", TenantID: "tenant-a"}, false, decimal.NewFromInt(1010), time.Time{})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if !updated.Value.Equal(decimal.NewFromInt(1010)) {
		t.Fatalf("value not updated: %s", updated.Value)
	}
}

func TestUpdate_PermissiveStrangerDenied(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{Default: readings.WorkflowPermissive}, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	_, err := svc.Update(context.Background(), "tenant-a", reading.ID,
		readings.Actor{ID: "user-2", TenantID: "tenant-a"}, false, decimal.NewFromInt(1010), time.Time{})
	if !errors.Is(err, readings.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestUpdate_TruthButVerifyDeniesOwner(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{Default: readings.WorkflowTruthButVerify}, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	_, err := svc.Update(context.Background(), "tenant-a", reading.ID,
		readings.Actor{ID: "user-1", TenantID: "tenant-a"}, false, decimal.NewFromInt(1010), time.Time{})
	if !errors.Is(err, readings.ErrForbidden) {
		t.Fatalf("expected ErrForbidden under truth_but_verify, got %v", err)
	}
}

func TestUpdate_ElevatedCallerBypassesWorkflow(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{Default: readings.WorkflowTruthButVerify}, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	_, err := svc.Update(context.Background(), "tenant-a", reading.ID,
		readings.Actor{ID: "manager-1", TenantID: "tenant-a"}, true, decimal.NewFromInt(1010), time.Time{})
	if err != nil {
		t.Fatalf("elevated update: %v", err)
	}
}

func TestUpdate_ValueRegressionFlagsReview(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{Default: readings.WorkflowPermissive}, nil)
	base := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)

	submit(t, svc, "user-1", 1000, base)
	second := submit(t, svc, "user-1", 1100, base.Add(24*time.Hour))

	// Editing the value below the meter's prior reading must flag it,
	// the same way a fresh submission would be.
	updated, err := svc.Update(context.Background(), "tenant-a", second.ID,
		readings.Actor{ID: "user-1", TenantID: "tenant-a"}, false, decimal.NewFromInt(900), time.Time{})
	if err != nil {
		t.Fatalf("regressing update: %v", err)
	}
	if updated.ValidationStatus != readings.StatusRequiresReview {
		t.Fatalf("edited reading status: got=%s want=%s", updated.ValidationStatus, readings.StatusRequiresReview)
	}
	if updated.ReviewNote == "" {
		t.Fatal("edited reading should carry a review note")
	}

	// A manager raising it back above the prior reading clears the flag.
	updated, err = svc.Update(context.Background(), "tenant-a", second.ID,
		readings.Actor{ID: "manager-1", TenantID: "tenant-a"}, true, decimal.NewFromInt(1200), time.Time{})
	if err != nil {
		t.Fatalf("restoring update: %v", err)
	}
	if updated.ValidationStatus != readings.StatusPending {
		t.Fatalf("restored reading status: got=%s want=%s", updated.ValidationStatus, readings.StatusPending)
	}
	if updated.ReviewNote != "" {
		t.Fatalf("restored reading should drop the review note, got %q", updated.ReviewNote)
	}
}

func TestDelete_TenantOverrideWins(t *testing.T) {
	cfg := readingsapp.WorkflowConfig{
		Default: readings.WorkflowPermissive,
		Tenants: map[string]string{"tenant-a": readings.WorkflowTruthButVerify},
	}
	svc := newReadingsService(t, newMemReadingRepo(), cfg, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	err := svc.Delete(context.Background(), "tenant-a", reading.ID,
		readings.Actor{ID: "user-1", TenantID: "tenant-a"}, false)
	if !errors.Is(err, readings.ErrForbidden) {
		t.Fatalf("expected tenant override to lock deletion, got %v", err)
	}
}

func TestValidate_PublishesEvent(t *testing.T) {
	recorder := &eventRecorder{}
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{}, recorder)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	validated, err := svc.Validate(context.Background(), "tenant-a", reading.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.ValidationStatus != readings.StatusValidated {
		t.Fatalf("status mismatch: got=%s", validated.ValidationStatus)
	}
	if len(recorder.validated) != 1 {
		t.Fatalf("expected 1 ReadingValidated event, got %d", len(recorder.validated))
	}
	if recorder.validated[0].MeterID != "meter-1" || recorder.validated[0].TenantID != "tenant-a" {
		t.Fatalf("event metadata mismatch: %+v", recorder.validated[0])
	}
}

func TestValidate_RejectedReadingIsSettled(t *testing.T) {
	svc := newReadingsService(t, newMemReadingRepo(), readingsapp.WorkflowConfig{}, nil)
	reading := submit(t, svc, "user-1", 1000, time.Now().UTC())

	if _, err := svc.Reject(context.Background(), "tenant-a", reading.ID, "duplicate entry"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, err := svc.Validate(context.Background(), "tenant-a", reading.ID)
	if !errors.Is(err, readings.ErrNotPending) {
		t.Fatalf("expected ErrNotPending after reject, got %v", err)
	}
}

func TestNewService_RejectsUnknownWorkflowConfig(t *testing.T) {
	_, err := readingsapp.NewService(newMemReadingRepo(), nil, readingsapp.WorkflowConfig{Default: "prepaid"}, nil, nil)
	if !errors.Is(err, readings.ErrUnknownWorkflow) {
		t.Fatalf("expected ErrUnknownWorkflow, got %v", err)
	}
}
