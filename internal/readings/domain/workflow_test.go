package readings

import (
	"errors"
	"testing"
)

func reading(enteredBy string, status ValidationStatus) *MeterReading {
	return &MeterReading{
		ID:               "reading-1",
		TenantID:         "tenant-a",
		MeterID:          "meter-1",
		EnteredBy:        enteredBy,
		ValidationStatus: status,
	}
}

func TestPermissive_OwnershipAndStatusGate(t *testing.T) {
	workflow := PermissiveWorkflow{}
	owner := Actor{ID: "user-1", TenantID: "tenant-a"}
	stranger := Actor{ID: "user-2", TenantID: "tenant-a"}

	statuses := []ValidationStatus{StatusPending, StatusValidated, StatusRejected, StatusRequiresReview}
	for _, status := range statuses {
		r := reading("user-1", status)
		wantAllowed := status == StatusPending

		if got := workflow.CanTenantUpdate(owner, r); got != wantAllowed {
			t.Fatalf("update owner/%s: got %v want %v", status, got, wantAllowed)
		}
		if got := workflow.CanTenantDelete(owner, r); got != wantAllowed {
			t.Fatalf("delete owner/%s: got %v want %v", status, got, wantAllowed)
		}
		if workflow.CanTenantUpdate(stranger, r) {
			t.Fatalf("update stranger/%s: allowed", status)
		}
		if workflow.CanTenantDelete(stranger, r) {
			t.Fatalf("delete stranger/%s: allowed", status)
		}
	}
}

func TestPermissive_NeverApprovesOrRejects(t *testing.T) {
	workflow := PermissiveWorkflow{}
	owner := Actor{ID: "user-1"}
	r := reading("user-1", StatusPending)
	if workflow.CanTenantApprove(owner, r) {
		t.Fatal("tenant self-approve allowed")
	}
	if workflow.CanTenantReject(owner, r) {
		t.Fatal("tenant self-reject allowed")
	}
}

func TestTruthButVerify_TotalLock(t *testing.T) {
	workflow := TruthButVerifyWorkflow{}
	actors := []Actor{{ID: "user-1"}, {ID: "user-2"}, {}}
	statuses := []ValidationStatus{StatusPending, StatusValidated, StatusRejected, StatusRequiresReview}

	for _, actor := range actors {
		for _, status := range statuses {
			r := reading("user-1", status)
			if workflow.CanTenantUpdate(actor, r) {
				t.Fatalf("update %q/%s: allowed", actor.ID, status)
			}
			if workflow.CanTenantDelete(actor, r) {
				t.Fatalf("delete %q/%s: allowed", actor.ID, status)
			}
			if workflow.CanTenantApprove(actor, r) {
				t.Fatalf("approve %q/%s: allowed", actor.ID, status)
			}
			if workflow.CanTenantReject(actor, r) {
				t.Fatalf("reject %q/%s: allowed", actor.ID, status)
			}
		}
	}
}

func TestWorkflowByName(t *testing.T) {
	w, err := WorkflowByName("")
	if err != nil {
		t.Fatalf("default workflow: %v", err)
	}
	if w.Name() != WorkflowPermissive {
		t.Fatalf("default workflow: got %q", w.Name())
	}

	w, err = WorkflowByName(WorkflowTruthButVerify)
	if err != nil {
		t.Fatalf("truth_but_verify: %v", err)
	}
	if w.Name() != WorkflowTruthButVerify {
		t.Fatalf("truth_but_verify: got %q", w.Name())
	}

	_, err = WorkflowByName("trust_everyone")
	if !errors.Is(err, ErrUnknownWorkflow) {
		t.Fatalf("expected ErrUnknownWorkflow, got %v", err)
	}
}

func TestWorkflowNilReadingDenied(t *testing.T) {
	if (PermissiveWorkflow{}).CanTenantUpdate(Actor{ID: "user-1"}, nil) {
		t.Fatal("nil reading update allowed")
	}
}
