package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
)

var queueStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEventQueue_OrdersByTimestamp(t *testing.T) {
	q := newEventQueue()

	q.push(common.RunStrategyEvent{TS: queueStart.Add(2 * time.Minute)})
	q.push(common.RunStrategyEvent{TS: queueStart})
	q.push(common.RunStrategyEvent{TS: queueStart.Add(time.Minute)})

	var times []time.Time
	for {
		ev, ok := q.pop()
		if !ok {
			break
		}
		times = append(times, ev.Time())
	}

	require.Len(t, times, 3)
	assert.True(t, times[0].Equal(queueStart))
	assert.True(t, times[1].Equal(queueStart.Add(time.Minute)))
	assert.True(t, times[2].Equal(queueStart.Add(2*time.Minute)))
}

func TestEventQueue_SameTimestampOrdersByKind(t *testing.T) {
	q := newEventQueue()

	// Push in reverse precedence order.
	q.push(common.RunStrategyEvent{TS: queueStart})
	q.push(common.FillArrivesAtBrokerEvent{TS: queueStart})
	q.push(common.CancellationArrivesAtBrokerEvent{TS: queueStart})
	q.push(common.OrderArrivesAtMarketEvent{TS: queueStart})
	q.push(common.UpdateMarketDataEvent{TS: queueStart})
	q.push(common.CancellationArrivesAtMarketEvent{TS: queueStart})

	want := []common.EventKind{
		common.EventCancellationArrivesAtMarket,
		common.EventUpdateMarketData,
		common.EventOrderArrivesAtMarket,
		common.EventCancellationArrivesAtBroker,
		common.EventFillArrivesAtBroker,
		common.EventRunStrategy,
	}

	for i, kind := range want {
		ev, ok := q.pop()
		require.True(t, ok, "missing event %d", i)
		assert.Equal(t, kind, ev.Kind())
	}
}

func TestEventQueue_SameKeyPreservesInsertionOrder(t *testing.T) {
	q := newEventQueue()

	for i := int64(0); i < 5; i++ {
		q.push(common.OrderArrivesAtMarketEvent{
			TS:         queueStart,
			Submission: common.OrderSubmission{OrderID: i},
		})
	}

	for i := int64(0); i < 5; i++ {
		ev, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, i, ev.(common.OrderArrivesAtMarketEvent).Submission.OrderID)
	}
}

func TestEventQueue_PopEmpty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.pop()
	assert.False(t, ok)
	_, ok = q.peek()
	assert.False(t, ok)
}
