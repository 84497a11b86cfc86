package readings

import (
	"errors"
	"fmt"
)

// Actor identifies the user attempting a reading mutation.
type Actor struct {
	ID       string
	TenantID string
}

// WorkflowStrategy gates tenant-initiated reading mutations. Decisions
// are pure functions of actor and reading; status transitions belong
// to the reading service, not to the strategy.
type WorkflowStrategy interface {
	CanTenantUpdate(actor Actor, reading *MeterReading) bool
	CanTenantDelete(actor Actor, reading *MeterReading) bool
	CanTenantApprove(actor Actor, reading *MeterReading) bool
	CanTenantReject(actor Actor, reading *MeterReading) bool
	Name() string
	Description() string
}

const (
	WorkflowPermissive     = "permissive"
	WorkflowTruthButVerify = "truth_but_verify"
)

// ErrUnknownWorkflow indicates an unmapped workflow name.
var ErrUnknownWorkflow = errors.New("readings: unknown workflow")

// WorkflowByName resolves a workflow strategy. An empty name selects
// the permissive default; an unmapped name is an error rather than a
// silent fallback.
func WorkflowByName(name string) (WorkflowStrategy, error) {
	switch name {
	case "", WorkflowPermissive:
		return PermissiveWorkflow{}, nil
	case WorkflowTruthButVerify:
		return TruthButVerifyWorkflow{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
}

// PermissiveWorkflow lets the submitter correct their own reading
// until review has acted on it.
type PermissiveWorkflow struct{}

func (PermissiveWorkflow) CanTenantUpdate(actor Actor, reading *MeterReading) bool {
	return ownsPending(actor, reading)
}

func (PermissiveWorkflow) CanTenantDelete(actor Actor, reading *MeterReading) bool {
	return ownsPending(actor, reading)
}

func (PermissiveWorkflow) CanTenantApprove(Actor, *MeterReading) bool { return false }

func (PermissiveWorkflow) CanTenantReject(Actor, *MeterReading) bool { return false }

func (PermissiveWorkflow) Name() string { return WorkflowPermissive }

func (PermissiveWorkflow) Description() string {
	return "Submitters may edit or delete their own readings while pending; review rights stay with managers."
}

// TruthButVerifyWorkflow locks a reading against its submitter the
// moment it is entered.
type TruthButVerifyWorkflow struct{}

func (TruthButVerifyWorkflow) CanTenantUpdate(Actor, *MeterReading) bool { return false }

func (TruthButVerifyWorkflow) CanTenantDelete(Actor, *MeterReading) bool { return false }

func (TruthButVerifyWorkflow) CanTenantApprove(Actor, *MeterReading) bool { return false }

func (TruthButVerifyWorkflow) CanTenantReject(Actor, *MeterReading) bool { return false }

func (TruthButVerifyWorkflow) Name() string { return WorkflowTruthButVerify }

func (TruthButVerifyWorkflow) Description() string {
	return "Submitted readings are immutable for the submitter; only managers may touch them."
}

func ownsPending(actor Actor, reading *MeterReading) bool {
	if reading == nil {
		return false
	}
	return actor.ID != "" && actor.ID == reading.EnteredBy && reading.ValidationStatus == StatusPending
}
