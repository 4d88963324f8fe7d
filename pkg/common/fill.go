package common

import (
	"fmt"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/utility"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// Fill is an executed (partial or full) quantity of an order at a price and
// time. Qty is always strictly positive; a zero fill is a construction error,
// not a valid no-op.
type Fill struct {
	OrderID int64       `json:"order_id"`
	Qty     int64       `json:"qty"`
	Symbol  string      `json:"symbol"`
	Side    OrderSide   `json:"side"`
	Price   fixed.Point `json:"price"`
	Time    time.Time   `json:"ts"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
}

func NewFill(orderID, qty int64, symbol string, side OrderSide, price fixed.Point, ts time.Time) (Fill, error) {
	if qty <= 0 {
		return Fill{}, fmt.Errorf("fill with non-positive qty (%d)", qty)
	}
	return Fill{
		OrderID: orderID,
		Qty:     qty,
		Symbol:  symbol,
		Side:    side,
		Price:   price,
		Time:    ts,
	}, nil
}

// Value is the cash amount the fill moves, qty times price.
func (f Fill) Value() fixed.Point {
	return f.Price.MulInt64(f.Qty)
}
