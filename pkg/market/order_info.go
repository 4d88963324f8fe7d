package market

import (
	"fmt"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// OrderInfo is the market-side mirror of an order: the submission projected
// onto an arrival time and a remaining quantity. Owned and mutated only by
// the Market.
type OrderInfo struct {
	OrderID      int64
	ArrivalTime  time.Time
	Side         common.OrderSide
	RemainingQty int64
	Type         common.OrderType
	Symbol       string
	Limit        fixed.Point
}

func NewOrderInfo(submission common.OrderSubmission, arrivalTime time.Time) (*OrderInfo, error) {
	if submission.Qty <= 0 {
		return nil, fmt.Errorf("order info with non-positive quantity (%d)", submission.Qty)
	}
	if submission.Type == common.OrderTypeLimit && submission.Limit.IsZero() {
		return nil, fmt.Errorf("order info with limit type but no limit price")
	}
	if !submission.Limit.IsZero() && submission.Limit.Lte(fixed.Zero) {
		return nil, fmt.Errorf("order info with non-positive limit (%s)", submission.Limit)
	}
	return &OrderInfo{
		OrderID:      submission.OrderID,
		ArrivalTime:  arrivalTime,
		Side:         submission.Side,
		RemainingQty: submission.Qty,
		Type:         submission.Type,
		Symbol:       submission.Symbol,
		Limit:        submission.Limit,
	}, nil
}

func (o *OrderInfo) ReduceQuantity(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("reduce quantity with non-positive qty (%d)", qty)
	}
	if qty > o.RemainingQty {
		return fmt.Errorf("reduce quantity beyond remaining (%d > %d)", qty, o.RemainingQty)
	}
	o.RemainingQty -= qty
	return nil
}
