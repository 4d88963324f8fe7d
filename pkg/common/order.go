package common

import (
	"fmt"

	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type OrderSide int
type OrderType int

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// OrderRequest is a strategy-produced, constructor-validated request to place
// an order. A zero Limit means "no limit attached".
type OrderRequest struct {
	Side   OrderSide   `json:"side"`
	Type   OrderType   `json:"type"`
	Qty    int64       `json:"qty"`
	Symbol string      `json:"symbol"`
	Limit  fixed.Point `json:"limit,omitempty"`
}

func NewOrderRequest(side OrderSide, orderType OrderType, qty int64, symbol string, limit fixed.Point) (OrderRequest, error) {
	if err := validateOrderParams(qty, orderType, limit); err != nil {
		return OrderRequest{}, fmt.Errorf("order request: %w", err)
	}
	return OrderRequest{
		Side:   side,
		Type:   orderType,
		Qty:    qty,
		Symbol: symbol,
		Limit:  limit,
	}, nil
}

// CancellationRequest asks the broker to cancel a previously requested order.
type CancellationRequest struct {
	OrderID int64 `json:"order_id"`
}

func validateOrderParams(qty int64, orderType OrderType, limit fixed.Point) error {
	if qty <= 0 {
		return fmt.Errorf("non-positive quantity (%d)", qty)
	}
	if orderType == OrderTypeLimit && limit.IsZero() {
		return fmt.Errorf("limit type without a limit price")
	}
	if orderType == OrderTypeMarket && !limit.IsZero() {
		return fmt.Errorf("market type with a limit price (%s)", limit)
	}
	if !limit.IsZero() && limit.Lte(fixed.Zero) {
		return fmt.Errorf("non-positive limit (%s)", limit)
	}
	return nil
}
