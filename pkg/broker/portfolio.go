package broker

import (
	"fmt"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type position struct {
	qty         int64
	averageCost fixed.Point
}

// Portfolio is the per-symbol position/cost ledger plus the process-wide
// cash account. Cash never goes negative and no sell may exceed the held
// position; violations indicate corrupted upstream state and are fatal.
type Portfolio struct {
	cash        fixed.Point
	realizedPnL fixed.Point
	positions   map[string]*position
}

func NewPortfolio(cash fixed.Point) *Portfolio {
	return &Portfolio{
		cash:        cash,
		realizedPnL: fixed.Zero,
		positions:   make(map[string]*position),
	}
}

func (p *Portfolio) Cash() fixed.Point        { return p.cash }
func (p *Portfolio) RealizedPnL() fixed.Point { return p.realizedPnL }

func (p *Portfolio) Position(symbol string) int64 {
	if pos, ok := p.positions[symbol]; ok {
		return pos.qty
	}
	return 0
}

func (p *Portfolio) AverageCost(symbol string) fixed.Point {
	if pos, ok := p.positions[symbol]; ok {
		return pos.averageCost
	}
	return fixed.Zero
}

// AddFill applies a fill to cash and the symbol's position. Buys re-weight
// the average cost; sells realize (price - average cost) * qty and reset the
// cost basis to zero when the position returns to exactly zero, so the next
// entry starts fresh.
func (p *Portfolio) AddFill(fill common.Fill) error {
	tradeValue := fill.Value()

	switch fill.Side {
	case common.OrderSideBuy:
		if p.cash.Lt(tradeValue) {
			return fmt.Errorf("buy of %s exceeds available cash %s", tradeValue, p.cash)
		}

		pos, ok := p.positions[fill.Symbol]
		if !ok {
			pos = &position{averageCost: fixed.Zero}
			p.positions[fill.Symbol] = pos
		}

		newQty := pos.qty + fill.Qty
		pos.averageCost = pos.averageCost.MulInt64(pos.qty).Add(tradeValue).DivInt64(newQty)
		pos.qty = newQty
		p.cash = p.cash.Sub(tradeValue)

	case common.OrderSideSell:
		pos, ok := p.positions[fill.Symbol]
		if !ok || pos.qty < fill.Qty {
			return fmt.Errorf("sell of %d exceeds current position %d", fill.Qty, p.Position(fill.Symbol))
		}

		p.realizedPnL = p.realizedPnL.Add(fill.Price.Sub(pos.averageCost).MulInt64(fill.Qty))
		p.cash = p.cash.Add(tradeValue)
		pos.qty -= fill.Qty

		if pos.qty == 0 {
			pos.averageCost = fixed.Zero
		}

	default:
		return fmt.Errorf("fill with unknown side (%d)", fill.Side)
	}
	return nil
}

// ApplyFee debits a non-negative fee from cash. A negative fee is a
// validation error at the boundary; an unaffordable fee is fatal.
func (p *Portfolio) ApplyFee(fee fixed.Point) error {
	if fee.Lt(fixed.Zero) {
		return fmt.Errorf("negative fee (%s)", fee)
	}
	if p.cash.Lt(fee) {
		return fmt.Errorf("fee of %s exceeds available cash %s", fee, p.cash)
	}
	p.cash = p.cash.Sub(fee)
	return nil
}

type PositionSnapshot struct {
	Qty         int64
	AverageCost fixed.Point
}

type PortfolioSnapshot struct {
	Cash        fixed.Point
	RealizedPnL fixed.Point
	Positions   map[string]PositionSnapshot
}

func (p *Portfolio) Snapshot() PortfolioSnapshot {
	positions := make(map[string]PositionSnapshot, len(p.positions))
	for symbol, pos := range p.positions {
		positions[symbol] = PositionSnapshot{Qty: pos.qty, AverageCost: pos.averageCost}
	}
	return PortfolioSnapshot{
		Cash:        p.cash,
		RealizedPnL: p.realizedPnL,
		Positions:   positions,
	}
}
