package broker

import (
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// FeeModel computes the cash fee charged for a fill.
type FeeModel interface {
	CalculateFee(fill common.Fill) fixed.Point
}

// PerShareFee charges a flat fee per filled unit.
type PerShareFee struct {
	perShare fixed.Point
}

func NewPerShareFee(perShare fixed.Point) PerShareFee {
	return PerShareFee{perShare: perShare}
}

func (f PerShareFee) CalculateFee(fill common.Fill) fixed.Point {
	return f.perShare.MulInt64(fill.Qty)
}
