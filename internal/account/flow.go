package account

import (
	"errors"

	"github.com/oklog/ulid/v2"
)

// Purpose identifies which multi-step verification a ticket belongs to
type Purpose string

const (
	PurposeRegister       Purpose = "register"
	PurposeForgotPassword Purpose = "forgot_password"
	PurposeChangeEmail    Purpose = "change_email"
)

// State is the position of a flow between its initiating and completing calls
type State int

const (
	StateStart State = iota
	StatePendingOTP
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePendingOTP:
		return "pending_otp"
	case StateCompleted:
		return "completed"
	default:
		return "start"
	}
}

// ErrNoPendingVerification is returned when a completion or resend step is
// attempted but no initiating call has succeeded in this flow
var ErrNoPendingVerification = errors.New("no verification is pending; start the flow first")

// ErrFlowBusy is returned when an initiating call is attempted while another
// one for the same purpose is still in flight
var ErrFlowBusy = errors.New("a request for this flow is already in progress")

// Ticket is the ephemeral correlation state linking an initiating call to its
// completion step. Tickets live in memory only and never survive a restart.
type Ticket struct {
	ID          string // correlation id for logs
	UserID      string
	Purpose     Purpose
	TargetEmail string // set for change_email only
}

// Flow is the per-purpose verification state machine:
// Start -> PendingOTP -> Completed, with resend self-looping on PendingOTP.
type Flow struct {
	Purpose Purpose
	State   State
	Ticket  *Ticket
}

func newFlow(p Purpose) *Flow {
	return &Flow{Purpose: p, State: StateStart}
}

// Begin moves the flow to PendingOTP with a fresh ticket. A prior unconsumed
// ticket for the same purpose is replaced.
func (f *Flow) Begin(userID, targetEmail string) *Ticket {
	t := &Ticket{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Purpose:     f.Purpose,
		TargetEmail: targetEmail,
	}
	f.State = StatePendingOTP
	f.Ticket = t
	return t
}

// Pending returns the active ticket, or ErrNoPendingVerification when no OTP
// step is awaiting completion
func (f *Flow) Pending() (*Ticket, error) {
	if f.State != StatePendingOTP || f.Ticket == nil {
		return nil, ErrNoPendingVerification
	}
	return f.Ticket, nil
}

// Complete consumes the ticket and finishes the flow
func (f *Flow) Complete() error {
	if f.State != StatePendingOTP {
		return ErrNoPendingVerification
	}
	f.State = StateCompleted
	f.Ticket = nil
	return nil
}

// Reset abandons the flow and discards any ticket
func (f *Flow) Reset() {
	f.State = StateStart
	f.Ticket = nil
}
