package common

import (
	"fmt"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// OrderSubmission carries a broker-assigned order id across the latency
// boundary into the market. It is immutable; the market projects it into its
// own mutable OrderInfo on arrival.
type OrderSubmission struct {
	OrderID int64       `json:"order_id"`
	Side    OrderSide   `json:"side"`
	Qty     int64       `json:"qty"`
	Symbol  string      `json:"symbol"`
	Type    OrderType   `json:"type"`
	Limit   fixed.Point `json:"limit,omitempty"`
}

func NewOrderSubmission(orderID int64, side OrderSide, qty int64, symbol string, orderType OrderType, limit fixed.Point) (OrderSubmission, error) {
	if err := validateOrderParams(qty, orderType, limit); err != nil {
		return OrderSubmission{}, fmt.Errorf("order submission: %w", err)
	}
	return OrderSubmission{
		OrderID: orderID,
		Side:    side,
		Qty:     qty,
		Symbol:  symbol,
		Type:    orderType,
		Limit:   limit,
	}, nil
}

// CancellationSubmission carries a cancellation across the latency boundary.
type CancellationSubmission struct {
	OrderID int64 `json:"order_id"`
}

// CancellationOutcome is the market's verdict on a cancellation.
type CancellationOutcome int

const (
	// OutcomeCancelled means remaining quantity was nonzero and is now void.
	OutcomeCancelled CancellationOutcome = iota
	// OutcomeNoOp means the order had already fully filled when the
	// cancellation reached the market.
	OutcomeNoOp
)

func (o CancellationOutcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoOp:
		return "no-op"
	default:
		return "unknown"
	}
}

// CancellationResult is produced by the market and consumed by the broker.
type CancellationResult struct {
	OrderID int64               `json:"order_id"`
	Time    time.Time           `json:"ts"`
	Outcome CancellationOutcome `json:"outcome"`
}
