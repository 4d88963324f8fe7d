package broker

import (
	"fmt"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type OrderState int

const (
	OrderStateCreated OrderState = iota
	OrderStateSubmitted
	OrderStateLive
	OrderStatePartiallyFilled
	OrderStateFilled
	OrderStateCancelPending
	OrderStateCancelled
)

func (s OrderState) String() string {
	switch s {
	case OrderStateCreated:
		return "created"
	case OrderStateSubmitted:
		return "submitted"
	case OrderStateLive:
		return "live"
	case OrderStatePartiallyFilled:
		return "partially-filled"
	case OrderStateFilled:
		return "filled"
	case OrderStateCancelPending:
		return "cancel-pending"
	case OrderStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is the broker-side lifecycle of a single order request. Transition
// methods attempt one specific edge and report success; an attempt from the
// wrong source state is a no-op returning false, and it is the caller's job
// to decide whether that failure is fatal.
type Order struct {
	orderID   int64
	side      common.OrderSide
	orderType common.OrderType
	qty       int64
	symbol    string
	limit     fixed.Point
	state     OrderState
	fills     []common.Fill
}

func NewOrder(request common.OrderRequest, orderID int64) *Order {
	return &Order{
		orderID:   orderID,
		side:      request.Side,
		orderType: request.Type,
		qty:       request.Qty,
		symbol:    request.Symbol,
		limit:     request.Limit,
		state:     OrderStateCreated,
	}
}

func (o *Order) ID() int64              { return o.orderID }
func (o *Order) Side() common.OrderSide { return o.side }
func (o *Order) Type() common.OrderType { return o.orderType }
func (o *Order) Qty() int64             { return o.qty }
func (o *Order) Symbol() string         { return o.symbol }
func (o *Order) Limit() fixed.Point     { return o.limit }
func (o *Order) State() OrderState      { return o.state }

// RemainingQuantity is the requested quantity not yet filled or voided.
func (o *Order) RemainingQuantity() int64 {
	remaining := o.qty
	for _, fill := range o.fills {
		remaining -= fill.Qty
	}
	return remaining
}

// AverageFillPrice is the fill-quantity-weighted mean fill price. The second
// return is false until at least one fill exists.
func (o *Order) AverageFillPrice() (fixed.Point, bool) {
	filledQty := o.qty - o.RemainingQuantity()
	if filledQty == 0 {
		return fixed.Point{}, false
	}
	total := fixed.Zero
	for _, fill := range o.fills {
		total = total.Add(fill.Value())
	}
	return total.DivInt64(filledQty), true
}

// AddFill appends a fill and advances the state machine. Valid only from
// live, partially-filled or cancel-pending; a fill beyond the remaining
// quantity breaks the order invariant and is rejected.
func (o *Order) AddFill(fill common.Fill) error {
	switch o.state {
	case OrderStateLive, OrderStatePartiallyFilled, OrderStateCancelPending:
	default:
		return fmt.Errorf("add fill in invalid order state (%s)", o.state)
	}

	if fill.Qty > o.RemainingQuantity() {
		return fmt.Errorf("fill qty %d exceeds remaining %d", fill.Qty, o.RemainingQuantity())
	}

	o.fills = append(o.fills, fill)

	if o.RemainingQuantity() == 0 {
		o.ToFilled()
	} else {
		o.ToPartiallyFilled()
	}
	return nil
}

func (o *Order) ToSubmitted() bool {
	if o.state == OrderStateCreated {
		o.state = OrderStateSubmitted
		return true
	}
	return false
}

func (o *Order) ToLive() bool {
	if o.state == OrderStateSubmitted {
		o.state = OrderStateLive
		return true
	}
	return false
}

func (o *Order) ToPartiallyFilled() bool {
	if o.state == OrderStateLive {
		o.state = OrderStatePartiallyFilled
		return true
	}
	return false
}

func (o *Order) ToFilled() bool {
	switch o.state {
	case OrderStateLive, OrderStatePartiallyFilled, OrderStateCancelPending:
		o.state = OrderStateFilled
		return true
	}
	return false
}

func (o *Order) ToCancelPending() bool {
	switch o.state {
	case OrderStateLive, OrderStatePartiallyFilled:
		o.state = OrderStateCancelPending
		return true
	}
	return false
}

func (o *Order) ToCancelled() bool {
	if o.state == OrderStateCancelPending {
		o.state = OrderStateCancelled
		return true
	}
	return false
}

// Submission projects the order into the immutable value carried to the
// market.
func (o *Order) Submission() common.OrderSubmission {
	return common.OrderSubmission{
		OrderID: o.orderID,
		Side:    o.side,
		Qty:     o.qty,
		Symbol:  o.symbol,
		Type:    o.orderType,
		Limit:   o.limit,
	}
}

// OrderSnapshot is the read-only projection exposed to strategies.
type OrderSnapshot struct {
	OrderID          int64
	Side             common.OrderSide
	Type             common.OrderType
	Qty              int64
	Symbol           string
	Limit            fixed.Point
	State            OrderState
	Fills            []common.Fill
	RemainingQty     int64
	AverageFillPrice fixed.Point
	HasFills         bool
}

func (o *Order) Snapshot() OrderSnapshot {
	fills := make([]common.Fill, len(o.fills))
	copy(fills, o.fills)

	avg, hasFills := o.AverageFillPrice()
	return OrderSnapshot{
		OrderID:          o.orderID,
		Side:             o.side,
		Type:             o.orderType,
		Qty:              o.qty,
		Symbol:           o.symbol,
		Limit:            o.limit,
		State:            o.state,
		Fills:            fills,
		RemainingQty:     o.RemainingQuantity(),
		AverageFillPrice: avg,
		HasFills:         hasFills,
	}
}
