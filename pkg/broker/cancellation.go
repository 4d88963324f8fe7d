package broker

import (
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
)

type CancellationState int

const (
	CancellationStateCreated CancellationState = iota
	CancellationStateSubmitted
	CancellationStateCancelled
	CancellationStateNoOp
)

func (s CancellationState) String() string {
	switch s {
	case CancellationStateCreated:
		return "created"
	case CancellationStateSubmitted:
		return "submitted"
	case CancellationStateCancelled:
		return "cancelled"
	case CancellationStateNoOp:
		return "no-op"
	default:
		return "unknown"
	}
}

// Cancellation tracks one cancellation request from submission to the
// market's verdict. Cancelled and NoOp are terminal.
type Cancellation struct {
	orderID        int64
	submissionTime time.Time
	state          CancellationState
}

func NewCancellation(orderID int64, submissionTime time.Time) *Cancellation {
	return &Cancellation{
		orderID:        orderID,
		submissionTime: submissionTime,
		state:          CancellationStateCreated,
	}
}

func (c *Cancellation) OrderID() int64            { return c.orderID }
func (c *Cancellation) SubmissionTime() time.Time { return c.submissionTime }
func (c *Cancellation) State() CancellationState  { return c.state }

func (c *Cancellation) ToSubmitted() bool {
	if c.state == CancellationStateCreated {
		c.state = CancellationStateSubmitted
		return true
	}
	return false
}

func (c *Cancellation) ToCancelled() bool {
	if c.state == CancellationStateSubmitted {
		c.state = CancellationStateCancelled
		return true
	}
	return false
}

func (c *Cancellation) ToNoOp() bool {
	if c.state == CancellationStateSubmitted {
		c.state = CancellationStateNoOp
		return true
	}
	return false
}

func (c *Cancellation) Submission() common.CancellationSubmission {
	return common.CancellationSubmission{OrderID: c.orderID}
}

type CancellationSnapshot struct {
	OrderID        int64
	SubmissionTime time.Time
	State          CancellationState
}

func (c *Cancellation) Snapshot() CancellationSnapshot {
	return CancellationSnapshot{
		OrderID:        c.orderID,
		SubmissionTime: c.submissionTime,
		State:          c.state,
	}
}
