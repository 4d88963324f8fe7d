package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/broker"
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/market"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

var simStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// minuteBars builds n one-minute bars with open price equal to the bar index.
func minuteBars(n int, openAt func(i int) fixed.Point) []common.Bar {
	bars := make([]common.Bar, n)
	for i := range bars {
		open := openAt(i)
		bars[i] = common.Bar{
			Symbol:    "EURUSD",
			StartTime: simStart.Add(time.Duration(i) * time.Minute),
			EndTime:   simStart.Add(time.Duration(i+1) * time.Minute),
			Open:      open,
			High:      open.Add(fixed.One),
			Low:       open,
			Close:     open.Add(fixed.One),
			Volume:    100,
			Trades:    10,
			VWAP:      open,
		}
	}
	return bars
}

func indexOpen(i int) fixed.Point { return fixed.FromInt64(int64(i), 0) }

// scriptedStrategy replays a fixed schedule of requests keyed by timestamp.
type scriptedStrategy struct {
	orders        map[time.Time][]common.OrderRequest
	cancellations map[time.Time][]common.CancellationRequest
}

func (s *scriptedStrategy) Run(ts time.Time, _ *market.MarketSnapshot, _ *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error) {
	return s.orders[ts], s.cancellations[ts], nil
}

func mustOrderRequest(t *testing.T, side common.OrderSide, orderType common.OrderType, qty int64, limit fixed.Point) common.OrderRequest {
	t.Helper()
	request, err := common.NewOrderRequest(side, orderType, qty, "EURUSD", limit)
	require.NoError(t, err)
	return request
}

func newEngineFixture(t *testing.T, bars []common.Bar, cash int64, maxFill int64, strategy Strategy) (*Engine, *broker.Broker, *market.Market) {
	t.Helper()

	series, err := market.NewSeries(bars)
	require.NoError(t, err)

	mkt := market.NewMarket(zap.NewNop(),
		map[string]*market.Series{"EURUSD": series},
		market.NewCappedFill(maxFill),
		2*time.Minute)
	brk := broker.NewBroker(zap.NewNop(),
		fixed.FromInt64(cash, 0),
		broker.NewPerShareFee(fixed.Two),
		2*time.Minute)

	engine := NewEngine(zap.NewNop(), mkt, brk, strategy)
	return engine, brk, mkt
}

func TestEngine_MarketThenCancelScenario(t *testing.T) {
	strategy := &scriptedStrategy{
		orders: map[time.Time][]common.OrderRequest{
			simStart: {
				mustOrderRequest(t, common.OrderSideBuy, common.OrderTypeMarket, 5, fixed.Point{}),
				mustOrderRequest(t, common.OrderSideBuy, common.OrderTypeMarket, 10, fixed.Point{}),
			},
		},
		cancellations: map[time.Time][]common.CancellationRequest{
			simStart.Add(5 * time.Minute): {{OrderID: 1}},
		},
	}

	engine, brk, mkt := newEngineFixture(t, minuteBars(10, indexOpen), 100, 5, strategy)

	for i := 0; i < 10; i++ {
		require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Duration(i) * time.Minute)}))
	}

	require.NoError(t, engine.Run(context.Background()))

	// Both orders arrive at t=2min and fill 5 shares each at the open of
	// bar 2. Cash: 100 - 5*2 - 5*2 - 10*2 fees = 60.
	assert.True(t, brk.Portfolio().Cash().Eq(fixed.FromInt64(60, 0)), "cash = %s", brk.Portfolio().Cash())
	assert.Equal(t, int64(10), brk.Portfolio().Position("EURUSD"))

	first, ok := brk.Order(0)
	require.True(t, ok)
	assert.Equal(t, broker.OrderStateFilled, first.State)
	assert.Equal(t, int64(0), first.RemainingQty)

	second, ok := brk.Order(1)
	require.True(t, ok)
	assert.Equal(t, broker.OrderStateCancelled, second.State)
	assert.Equal(t, int64(5), second.RemainingQty)

	assert.True(t, mkt.IsCancelled(1))
	assert.Equal(t, 0, engine.QueueLen())
}

func TestEngine_LimitOrderWaitsForPrice(t *testing.T) {
	// Opens descend from 10; a buy limit of 5 cannot fill until bar 5.
	descending := func(i int) fixed.Point { return fixed.FromInt64(int64(10-i), 0) }

	strategy := &scriptedStrategy{
		orders: map[time.Time][]common.OrderRequest{
			simStart: {
				mustOrderRequest(t, common.OrderSideBuy, common.OrderTypeLimit, 5, fixed.FromInt64(5, 0)),
			},
		},
	}

	engine, brk, _ := newEngineFixture(t, minuteBars(10, descending), 1000, 10, strategy)

	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart}))
	for i := 0; i < 10; i++ {
		require.NoError(t, engine.InsertEvent(common.UpdateMarketDataEvent{TS: simStart.Add(time.Duration(i) * time.Minute)}))
	}

	require.NoError(t, engine.Run(context.Background()))

	order, ok := brk.Order(0)
	require.True(t, ok)
	assert.Equal(t, broker.OrderStateFilled, order.State)

	// The first admissible evaluation is the t=5min update (open 5).
	require.True(t, order.HasFills)
	assert.True(t, order.AverageFillPrice.Eq(fixed.FromInt64(5, 0)), "fill price = %s", order.AverageFillPrice)

	// 1000 - 5*5 - 5*2 fees = 965.
	assert.True(t, brk.Portfolio().Cash().Eq(fixed.FromInt64(965, 0)), "cash = %s", brk.Portfolio().Cash())
}

func TestEngine_RejectsEventBehindClock(t *testing.T) {
	strategy := &scriptedStrategy{}
	engine, _, _ := newEngineFixture(t, minuteBars(2, indexOpen), 100, 5, strategy)

	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Minute)}))
	require.NoError(t, engine.Run(context.Background()))

	err := engine.InsertEvent(common.RunStrategyEvent{TS: simStart})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "behind simulation clock")

	// At the clock is fine.
	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Minute)}))
}

func TestEngine_AbortsOnQueueClockRegression(t *testing.T) {
	strategy := &scriptedStrategy{}
	engine, _, _ := newEngineFixture(t, minuteBars(2, indexOpen), 100, 5, strategy)

	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Minute)}))
	require.NoError(t, engine.Run(context.Background()))

	// Slip an event past the insert guard to simulate queue corruption.
	engine.queue.push(common.RunStrategyEvent{TS: simStart})

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "behind simulation clock")
}

func TestEngine_StrategyErrorAbortsRun(t *testing.T) {
	strategy := &scriptedStrategy{
		cancellations: map[time.Time][]common.CancellationRequest{
			// Cancelling an order that never existed is a fatal broker error.
			simStart: {{OrderID: 42}},
		},
	}
	engine, _, _ := newEngineFixture(t, minuteBars(2, indexOpen), 100, 5, strategy)

	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart}))
	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown order")
}

func TestEngine_ContextCancellationStopsRun(t *testing.T) {
	strategy := &scriptedStrategy{}
	engine, _, _ := newEngineFixture(t, minuteBars(2, indexOpen), 100, 5, strategy)

	require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, engine.QueueLen(), "pending events stay queued")
}

func TestEngine_StrategySnapshotsHaveNoLookahead(t *testing.T) {
	var observed []int

	strategy := StrategyFunc(func(ts time.Time, marketView *market.MarketSnapshot, _ *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error) {
		series, ok := marketView.Series("EURUSD")
		if ok {
			observed = append(observed, series.Len())
		}
		return nil, nil, nil
	})

	engine, _, _ := newEngineFixture(t, minuteBars(5, indexOpen), 100, 5, strategy)
	for i := 0; i < 5; i++ {
		require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, engine.Run(context.Background()))

	// At bar i's start, exactly i bars are fully complete.
	assert.Equal(t, []int{0, 1, 2, 3, 4}, observed)
}

func TestEngine_AuditCountsActivity(t *testing.T) {
	strategy := &scriptedStrategy{
		orders: map[time.Time][]common.OrderRequest{
			simStart: {mustOrderRequest(t, common.OrderSideBuy, common.OrderTypeMarket, 5, fixed.Point{})},
		},
	}

	series, err := market.NewSeries(minuteBars(10, indexOpen))
	require.NoError(t, err)
	mkt := market.NewMarket(zap.NewNop(), map[string]*market.Series{"EURUSD": series}, market.NewCappedFill(5), 2*time.Minute)
	brk := broker.NewBroker(zap.NewNop(), fixed.FromInt64(100, 0), broker.NewPerShareFee(fixed.Two), 2*time.Minute)

	audit := NewAudit(time.Minute)
	engine := NewEngine(zap.NewNop(), mkt, brk, strategy, WithAudit(audit))

	for i := 0; i < 10; i++ {
		require.NoError(t, engine.InsertEvent(common.RunStrategyEvent{TS: simStart.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, engine.Run(context.Background()))

	report := audit.GenerateReport()
	assert.Equal(t, 1, report.TotalOrders)
	assert.Equal(t, 1, report.TotalFills)
	assert.Equal(t, 0, report.TotalCancellations)
	assert.True(t, report.InitialEquity.Eq(fixed.FromInt64(100, 0)))
}
