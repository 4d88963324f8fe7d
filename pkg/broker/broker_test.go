package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

var brokerStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestBroker(cash int64) *Broker {
	return NewBroker(zap.NewNop(), fixed.FromInt64(cash, 0), NewPerShareFee(fixed.One), 2*time.Minute)
}

func TestBroker_HandleRequestsAssignsSequentialIds(t *testing.T) {
	b := newTestBroker(1000)

	events, err := b.HandleRequests(brokerStart,
		[]common.OrderRequest{marketBuy(5), marketBuy(3)}, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0].(common.OrderArrivesAtMarketEvent)
	second := events[1].(common.OrderArrivesAtMarketEvent)
	assert.Equal(t, int64(0), first.Submission.OrderID)
	assert.Equal(t, int64(1), second.Submission.OrderID)
	assert.Equal(t, brokerStart.Add(2*time.Minute), first.TS)
	assert.Equal(t, 2, b.OrderCount())

	order, ok := b.Order(0)
	require.True(t, ok)
	assert.Equal(t, OrderStateSubmitted, order.State)
}

func TestBroker_CancellationRequestValidation(t *testing.T) {
	b := newTestBroker(1000)

	_, err := b.HandleRequests(brokerStart, nil, []common.CancellationRequest{{OrderID: 9}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown order")

	_, err = b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.HandleOrderArrival(0))

	events, err := b.HandleRequests(brokerStart.Add(time.Minute), nil, []common.CancellationRequest{{OrderID: 0}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	cancelEvent := events[0].(common.CancellationArrivesAtMarketEvent)
	assert.Equal(t, int64(0), cancelEvent.Submission.OrderID)

	order, _ := b.Order(0)
	assert.Equal(t, OrderStateCancelPending, order.State)

	_, err = b.HandleRequests(brokerStart.Add(2*time.Minute), nil, []common.CancellationRequest{{OrderID: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate cancellation")
}

func TestBroker_CancellationBeforeOrderIsLive(t *testing.T) {
	b := newTestBroker(1000)

	_, err := b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)

	// Cancel while the order is still submitted; the order cannot enter
	// cancel-pending but the cancellation still goes out.
	events, err := b.HandleRequests(brokerStart, nil, []common.CancellationRequest{{OrderID: 0}})
	require.NoError(t, err)
	require.Len(t, events, 1)

	order, _ := b.Order(0)
	assert.Equal(t, OrderStateSubmitted, order.State)

	// Market reports cancelled; the cancellation resolves, the order stays
	// out of cancel-pending but is excluded from fills market-side.
	require.NoError(t, b.HandleCancellationResult(common.CancellationResult{
		OrderID: 0, Time: brokerStart.Add(2 * time.Minute), Outcome: common.OutcomeCancelled,
	}))
	snapshot := b.Snapshot()
	assert.Equal(t, CancellationStateCancelled, snapshot.Cancellations[0].State)
}

func TestBroker_HandleOrderArrival(t *testing.T) {
	b := newTestBroker(1000)

	require.Error(t, b.HandleOrderArrival(5))

	_, err := b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)

	require.NoError(t, b.HandleOrderArrival(0))
	order, _ := b.Order(0)
	assert.Equal(t, OrderStateLive, order.State)
}

func TestBroker_HandleFill(t *testing.T) {
	b := newTestBroker(100)

	_, err := b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(10)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.HandleOrderArrival(0))

	fill, err := common.NewFill(0, 4, "EURUSD", common.OrderSideBuy, fixed.Two, brokerStart.Add(2*time.Minute))
	require.NoError(t, err)
	require.NoError(t, b.HandleFill(fill))

	// Cash: 100 - 4*2 - 4*1 fee = 88.
	assert.True(t, b.Portfolio().Cash().Eq(fixed.FromInt64(88, 0)), "cash = %s", b.Portfolio().Cash())
	assert.Equal(t, int64(4), b.Portfolio().Position("EURUSD"))

	order, _ := b.Order(0)
	assert.Equal(t, OrderStatePartiallyFilled, order.State)
	assert.Equal(t, int64(6), order.RemainingQty)
}

func TestBroker_HandleFillValidation(t *testing.T) {
	b := newTestBroker(100)

	fill, err := common.NewFill(3, 1, "EURUSD", common.OrderSideBuy, fixed.One, brokerStart)
	require.NoError(t, err)
	require.Error(t, b.HandleFill(fill), "unknown order")

	_, err = b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(10)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.HandleOrderArrival(0))

	wrongSide, err := common.NewFill(0, 1, "EURUSD", common.OrderSideSell, fixed.One, brokerStart)
	require.NoError(t, err)
	err = b.HandleFill(wrongSide)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagrees with order side")
}

func TestBroker_HandleCancellationResult(t *testing.T) {
	b := newTestBroker(1000)

	err := b.HandleCancellationResult(common.CancellationResult{OrderID: 4, Outcome: common.OutcomeCancelled})
	require.Error(t, err)

	_, err = b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)

	err = b.HandleCancellationResult(common.CancellationResult{OrderID: 0, Outcome: common.OutcomeCancelled})
	require.Error(t, err, "no in-flight cancellation")

	require.NoError(t, b.HandleOrderArrival(0))
	_, err = b.HandleRequests(brokerStart.Add(time.Minute), nil, []common.CancellationRequest{{OrderID: 0}})
	require.NoError(t, err)

	require.NoError(t, b.HandleCancellationResult(common.CancellationResult{
		OrderID: 0, Time: brokerStart.Add(3 * time.Minute), Outcome: common.OutcomeCancelled,
	}))

	order, _ := b.Order(0)
	assert.Equal(t, OrderStateCancelled, order.State)

	// A second result for the same cancellation is fatal.
	err = b.HandleCancellationResult(common.CancellationResult{OrderID: 0, Outcome: common.OutcomeCancelled})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolved twice")
}

func TestBroker_NoOpCancellationLeavesOrderFilled(t *testing.T) {
	b := newTestBroker(1000)

	_, err := b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.HandleOrderArrival(0))

	fill, err := common.NewFill(0, 5, "EURUSD", common.OrderSideBuy, fixed.One, brokerStart.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, b.HandleFill(fill))

	_, err = b.HandleRequests(brokerStart.Add(2*time.Minute), nil, []common.CancellationRequest{{OrderID: 0}})
	require.NoError(t, err)

	require.NoError(t, b.HandleCancellationResult(common.CancellationResult{
		OrderID: 0, Time: brokerStart.Add(4 * time.Minute), Outcome: common.OutcomeNoOp,
	}))

	order, _ := b.Order(0)
	assert.Equal(t, OrderStateFilled, order.State)
	snapshot := b.Snapshot()
	assert.Equal(t, CancellationStateNoOp, snapshot.Cancellations[0].State)
}

func TestBroker_Snapshot(t *testing.T) {
	b := newTestBroker(1000)

	_, err := b.HandleRequests(brokerStart, []common.OrderRequest{marketBuy(5)}, nil)
	require.NoError(t, err)

	snapshot := b.Snapshot()
	assert.Len(t, snapshot.Orders, 1)
	assert.Empty(t, snapshot.Cancellations)
	assert.True(t, snapshot.Portfolio.Cash.Eq(fixed.FromInt64(1000, 0)))
}
