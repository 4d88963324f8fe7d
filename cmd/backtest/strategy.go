package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/broker"
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/market"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// MeanReversion goes long when the close z-score drops below the negative
// threshold and unwinds when it crosses back over zero. At most one working
// order at a time; a working order left unfilled for a full window is
// cancelled.
type MeanReversion struct {
	logger *zap.Logger

	symbol    string
	threshold fixed.Point
	orderQty  int64

	closes *fixed.RingBuffer
	seen   int

	workingOrderID int64
	hasWorking     bool
	workingSince   time.Time
	staleAfter     time.Duration
}

func NewMeanReversion(logger *zap.Logger, symbol string, window int, threshold fixed.Point, orderQty int64, staleAfter time.Duration) *MeanReversion {
	return &MeanReversion{
		logger:     logger,
		symbol:     symbol,
		threshold:  threshold,
		orderQty:   orderQty,
		closes:     fixed.NewRingBuffer(window),
		staleAfter: staleAfter,
	}
}

func (m *MeanReversion) Run(ts time.Time, marketView *market.MarketSnapshot, brokerView *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error) {

	if cancellations := m.checkWorkingOrder(ts, brokerView); cancellations != nil {
		return nil, cancellations, nil
	}

	series, ok := marketView.Series(m.symbol)
	if !ok {
		return nil, nil, nil
	}
	bar, ok := series.MostRecentBar(ts)
	if !ok {
		return nil, nil, nil
	}

	if m.seen < series.Len() {
		m.closes.Add(bar.Close)
		m.seen = series.Len()
	}
	if !m.closes.IsFull() {
		return nil, nil, nil
	}

	stdDev := m.closes.SampleStdDev()
	if stdDev.IsZero() {
		return nil, nil, nil
	}
	z := bar.Close.Sub(m.closes.Mean()).Div(stdDev)

	position := brokerView.Portfolio.Positions[m.symbol].Qty

	if position == 0 && !m.hasWorking && z.Lte(m.threshold.Neg()) {
		request, err := common.NewOrderRequest(common.OrderSideBuy, common.OrderTypeLimit, m.orderQty, m.symbol, bar.Close)
		if err != nil {
			return nil, nil, err
		}
		m.logger.Debug("entering long",
			zap.String("symbol", m.symbol),
			zap.String("z_score", z.String()),
			zap.String("limit", bar.Close.String()))
		m.hasWorking = true
		m.workingOrderID = int64(len(brokerView.Orders))
		m.workingSince = ts
		return []common.OrderRequest{request}, nil, nil
	}

	if position > 0 && !m.hasWorking && z.Gte(fixed.Zero) {
		request, err := common.NewOrderRequest(common.OrderSideSell, common.OrderTypeMarket, position, m.symbol, fixed.Point{})
		if err != nil {
			return nil, nil, err
		}
		m.logger.Debug("unwinding long",
			zap.String("symbol", m.symbol),
			zap.String("z_score", z.String()),
			zap.Int64("qty", position))
		m.hasWorking = true
		m.workingOrderID = int64(len(brokerView.Orders))
		m.workingSince = ts
		return []common.OrderRequest{request}, nil, nil
	}

	return nil, nil, nil
}

func (m *MeanReversion) checkWorkingOrder(ts time.Time, brokerView *broker.BrokerSnapshot) []common.CancellationRequest {
	if !m.hasWorking {
		return nil
	}

	order, ok := brokerView.Orders[m.workingOrderID]
	if !ok {
		return nil
	}

	switch order.State {
	case broker.OrderStateFilled, broker.OrderStateCancelled:
		m.hasWorking = false
		return nil
	}

	if _, pending := brokerView.Cancellations[m.workingOrderID]; pending {
		return nil
	}

	if ts.Sub(m.workingSince) >= m.staleAfter {
		m.logger.Debug("cancelling stale order",
			zap.Int64("order_id", m.workingOrderID),
			zap.Stringer("state", order.State))
		return []common.CancellationRequest{{OrderID: m.workingOrderID}}
	}
	return nil
}
