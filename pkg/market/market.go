package market

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility"
)

const componentName = "market"

// Market owns the per-symbol bar series, the market-side order state and the
// cancelled-id set. It matches live orders against bar opens and produces
// fill and cancellation-result events bound for the broker.
type Market struct {
	logger *zap.Logger

	series    map[string]*Series
	fillLogic FillLogic
	latency   time.Duration

	orderInfos map[int64]*OrderInfo
	cancelled  map[int64]struct{}
}

func NewMarket(logger *zap.Logger, series map[string]*Series, fillLogic FillLogic, latency time.Duration) *Market {
	return &Market{
		logger:     logger,
		series:     series,
		fillLogic:  fillLogic,
		latency:    latency,
		orderInfos: make(map[int64]*OrderInfo),
		cancelled:  make(map[int64]struct{}),
	}
}

// HandleOrderArrival stores the submission as an OrderInfo and attempts one
// immediate fill, unless the order was cancelled before it arrived.
func (m *Market) HandleOrderArrival(ts time.Time, submission common.OrderSubmission) ([]common.Event, error) {
	info, err := NewOrderInfo(submission, ts)
	if err != nil {
		return nil, fmt.Errorf("order arrival: %w", err)
	}
	m.orderInfos[info.OrderID] = info

	if _, ok := m.series[info.Symbol]; !ok {
		m.logger.Warn("no bar series for symbol, order will never fill",
			zap.String("symbol", info.Symbol),
			zap.Int64("order_id", info.OrderID))
	}

	if _, ok := m.cancelled[info.OrderID]; ok {
		return nil, nil
	}

	fill, ok, err := m.calculateFill(info, ts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if err := info.ReduceQuantity(fill.Qty); err != nil {
		return nil, fmt.Errorf("order arrival fill: %w", err)
	}

	return []common.Event{
		common.FillArrivesAtBrokerEvent{TS: ts.Add(m.latency), Fill: fill},
	}, nil
}

// HandleMarketUpdate re-evaluates every tracked order against the new tick.
// This is how resting limit orders eventually execute. Order ids are visited
// in ascending order so a replay of the same inputs fills identically.
func (m *Market) HandleMarketUpdate(ts time.Time) ([]common.Event, error) {
	ids := make([]int64, 0, len(m.orderInfos))
	for id := range m.orderInfos {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var events []common.Event
	for _, id := range ids {
		info := m.orderInfos[id]

		if !info.ArrivalTime.Before(ts) {
			continue
		}
		if _, ok := m.cancelled[id]; ok {
			continue
		}

		fill, ok, err := m.calculateFill(info, ts)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := info.ReduceQuantity(fill.Qty); err != nil {
			return nil, fmt.Errorf("market update fill: %w", err)
		}

		events = append(events, common.FillArrivesAtBrokerEvent{TS: ts.Add(m.latency), Fill: fill})
	}
	return events, nil
}

// HandleCancellationArrival adds the order id to the cancelled set and
// reports the outcome. An order the market has never seen cancels too; its
// id stays excluded from fills even if the order arrives afterwards.
func (m *Market) HandleCancellationArrival(ts time.Time, submission common.CancellationSubmission) ([]common.Event, error) {
	orderID := submission.OrderID
	m.cancelled[orderID] = struct{}{}

	outcome := common.OutcomeNoOp
	if info, ok := m.orderInfos[orderID]; !ok || info.RemainingQty > 0 {
		outcome = common.OutcomeCancelled
	}

	result := common.CancellationResult{OrderID: orderID, Time: ts, Outcome: outcome}
	return []common.Event{
		common.CancellationArrivesAtBrokerEvent{TS: ts.Add(m.latency), Result: result},
	}, nil
}

// Snapshot projects the market onto a lookahead-free view at the cutoff.
func (m *Market) Snapshot(cutoff time.Time) *MarketSnapshot {
	series := make(map[string]*SeriesSnapshot, len(m.series))
	for symbol, s := range m.series {
		series[symbol] = s.Snapshot(cutoff)
	}
	return &MarketSnapshot{series: series}
}

// OrderInfo returns a copy of the market-side state for an order id.
func (m *Market) OrderInfo(orderID int64) (OrderInfo, bool) {
	info, ok := m.orderInfos[orderID]
	if !ok {
		return OrderInfo{}, false
	}
	return *info, true
}

func (m *Market) IsCancelled(orderID int64) bool {
	_, ok := m.cancelled[orderID]
	return ok
}

func (m *Market) CancelledCount() int {
	return len(m.cancelled)
}

func (m *Market) calculateFill(info *OrderInfo, ts time.Time) (common.Fill, bool, error) {
	fillQty := m.fillLogic.CalculateFillQty(info)
	if fillQty < 0 {
		return common.Fill{}, false, fmt.Errorf("fill logic returned negative quantity (%d) for order %d", fillQty, info.OrderID)
	}
	if fillQty == 0 {
		return common.Fill{}, false, nil
	}

	series, ok := m.series[info.Symbol]
	if !ok {
		return common.Fill{}, false, nil
	}
	bar, ok := series.CurrentBar(ts)
	if !ok {
		return common.Fill{}, false, nil
	}

	price := bar.Open
	if info.Type == common.OrderTypeLimit {
		if info.Side == common.OrderSideBuy && price.Gt(info.Limit) {
			return common.Fill{}, false, nil
		}
		if info.Side == common.OrderSideSell && price.Lt(info.Limit) {
			return common.Fill{}, false, nil
		}
	}

	fill, err := common.NewFill(info.OrderID, fillQty, info.Symbol, info.Side, price, ts)
	if err != nil {
		return common.Fill{}, false, err
	}
	fill.Source = componentName
	fill.ExecutionID = utility.GetExecutionID()
	fill.TraceID = utility.CreateTraceID()
	return fill, true, nil
}
