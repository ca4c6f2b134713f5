package account

import (
	"testing"
)

func TestFlow_Lifecycle(t *testing.T) {
	f := newFlow(PurposeRegister)

	if f.State != StateStart {
		t.Errorf("new flow state = %v, want start", f.State)
	}
	if _, err := f.Pending(); err != ErrNoPendingVerification {
		t.Errorf("Pending on fresh flow = %v, want ErrNoPendingVerification", err)
	}
	if err := f.Complete(); err != ErrNoPendingVerification {
		t.Errorf("Complete on fresh flow = %v, want ErrNoPendingVerification", err)
	}

	ticket := f.Begin("u1", "")
	if f.State != StatePendingOTP {
		t.Errorf("state after Begin = %v, want pending_otp", f.State)
	}
	if ticket.UserID != "u1" || ticket.Purpose != PurposeRegister {
		t.Errorf("unexpected ticket: %+v", ticket)
	}
	if ticket.ID == "" {
		t.Error("ticket needs a correlation id")
	}

	got, err := f.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if got != ticket {
		t.Error("Pending should return the active ticket")
	}

	if err := f.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if f.State != StateCompleted {
		t.Errorf("state after Complete = %v, want completed", f.State)
	}
	if f.Ticket != nil {
		t.Error("ticket must be consumed on completion")
	}
	if _, err := f.Pending(); err != ErrNoPendingVerification {
		t.Error("completed flow has no pending ticket")
	}
}

func TestFlow_BeginReplacesTicket(t *testing.T) {
	f := newFlow(PurposeChangeEmail)

	first := f.Begin("u1", "old@x.com")
	second := f.Begin("u1", "new@x.com")

	if first.ID == second.ID {
		t.Error("a fresh initiate must issue a new ticket")
	}

	got, err := f.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if got.TargetEmail != "new@x.com" {
		t.Errorf("TargetEmail = %q, the replaced ticket leaked through", got.TargetEmail)
	}
}

func TestFlow_Reset(t *testing.T) {
	f := newFlow(PurposeForgotPassword)
	f.Begin("u1", "")
	f.Reset()

	if f.State != StateStart {
		t.Errorf("state after Reset = %v, want start", f.State)
	}
	if f.Ticket != nil {
		t.Error("Reset must discard the ticket")
	}
}

func TestState_String(t *testing.T) {
	if StateStart.String() != "start" || StatePendingOTP.String() != "pending_otp" || StateCompleted.String() != "completed" {
		t.Error("unexpected state names")
	}
}
