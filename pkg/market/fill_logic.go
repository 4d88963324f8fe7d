package market

// FillLogic decides how much of an order's remaining quantity fills on a
// single evaluation. Implementations must return a non-negative quantity not
// exceeding the remaining quantity.
type FillLogic interface {
	CalculateFillQty(info *OrderInfo) int64
}

// CappedFill fills up to a fixed number of units per evaluation.
type CappedFill struct {
	maxFill int64
}

func NewCappedFill(maxFill int64) CappedFill {
	return CappedFill{maxFill: maxFill}
}

func (c CappedFill) CalculateFillQty(info *OrderInfo) int64 {
	return min(c.maxFill, info.RemainingQty)
}
