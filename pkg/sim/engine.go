package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/broker"
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/market"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

type EngineOption func(*Engine)

// WithAudit attaches an audit that records account snapshots and activity
// counters as the simulation runs.
func WithAudit(audit *Audit) EngineOption {
	return func(e *Engine) {
		e.audit = audit
	}
}

// Engine drains a deterministic event queue and dispatches each event to the
// market, the broker, or the strategy. The simulation clock only moves
// forward; inserting an event behind the clock is an error.
type Engine struct {
	logger *zap.Logger

	queue    *eventQueue
	market   *market.Market
	broker   *broker.Broker
	strategy Strategy
	audit    *Audit

	clock    time.Time
	clockSet bool

	// Statistics
	runTime        time.Duration
	dispatchCounts [common.EventRunStrategy + 1]uint64
}

func NewEngine(logger *zap.Logger, mkt *market.Market, brk *broker.Broker, strategy Strategy, options ...EngineOption) *Engine {
	e := &Engine{
		logger:   logger,
		queue:    newEventQueue(),
		market:   mkt,
		broker:   brk,
		strategy: strategy,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// InsertEvent schedules an event. Events at or after the current clock are
// accepted; anything earlier would rewrite history.
func (e *Engine) InsertEvent(ev common.Event) error {
	if e.clockSet && ev.Time().Before(e.clock) {
		return fmt.Errorf("event %s at %s is behind simulation clock %s",
			ev.Kind(), ev.Time().Format(time.RFC3339Nano), e.clock.Format(time.RFC3339Nano))
	}
	e.queue.push(ev)
	return nil
}

// Clock returns the timestamp of the last dispatched event.
func (e *Engine) Clock() time.Time {
	return e.clock
}

func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run drains the queue to exhaustion. The first dispatch error aborts the
// run; the queue keeps whatever was still pending.
func (e *Engine) Run(ctx context.Context) error {

	start := time.Now()
	defer func() {
		e.runTime += time.Since(start)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, ok := e.queue.pop()
		if !ok {
			return nil
		}

		// The insert guard should make this impossible; a popped event
		// behind the clock means the queue ordering is corrupted.
		if e.clockSet && ev.Time().Before(e.clock) {
			return fmt.Errorf("queue yielded event %s at %s behind simulation clock %s",
				ev.Kind(), ev.Time().Format(time.RFC3339Nano), e.clock.Format(time.RFC3339Nano))
		}

		e.clock = ev.Time()
		e.clockSet = true
		e.dispatchCounts[ev.Kind()]++

		if err := e.dispatch(ev); err != nil {
			return fmt.Errorf("dispatch %s at %s: %w", ev.Kind(), ev.Time().Format(time.RFC3339Nano), err)
		}
	}
}

func (e *Engine) PrintStatistics() {
	total := uint64(0)
	fields := make([]zap.Field, 0, len(e.dispatchCounts)+3)
	fields = append(fields, zap.Duration("run_time", e.runTime))
	for kind, count := range e.dispatchCounts {
		total += count
		fields = append(fields, zap.Uint64(common.EventKind(kind).String(), count))
	}
	fields = append(fields,
		zap.Uint64("dispatch_count", total),
		zap.Float64("throughput", float64(total)/e.runTime.Seconds()))
	e.logger.Info("engine statistics", fields...)
}

func (e *Engine) dispatch(ev common.Event) error {
	switch event := ev.(type) {
	case common.CancellationArrivesAtMarketEvent:
		events, err := e.market.HandleCancellationArrival(event.TS, event.Submission)
		if err != nil {
			return err
		}
		return e.insertAll(events)
	case common.UpdateMarketDataEvent:
		events, err := e.market.HandleMarketUpdate(event.TS)
		if err != nil {
			return err
		}
		return e.insertAll(events)
	case common.OrderArrivesAtMarketEvent:
		events, err := e.market.HandleOrderArrival(event.TS, event.Submission)
		if err != nil {
			return err
		}
		if err := e.broker.HandleOrderArrival(event.Submission.OrderID); err != nil {
			return err
		}
		return e.insertAll(events)
	case common.CancellationArrivesAtBrokerEvent:
		if e.audit != nil {
			e.audit.AddCancellation()
		}
		return e.broker.HandleCancellationResult(event.Result)
	case common.FillArrivesAtBrokerEvent:
		if e.audit != nil {
			e.audit.AddFill()
		}
		return e.broker.HandleFill(event.Fill)
	case common.RunStrategyEvent:
		return e.runStrategy(event.TS)
	default:
		return fmt.Errorf("unsupported event kind: %v", ev.Kind())
	}
}

func (e *Engine) runStrategy(ts time.Time) error {
	marketView := e.market.Snapshot(ts)
	brokerView := e.broker.Snapshot()

	orderRequests, cancellationRequests, err := e.strategy.Run(ts, marketView, brokerView)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	events, err := e.broker.HandleRequests(ts, orderRequests, cancellationRequests)
	if err != nil {
		return err
	}

	if e.audit != nil {
		for range orderRequests {
			e.audit.AddOrder()
		}
		cash := brokerView.Portfolio.Cash
		e.audit.AddAccountSnapshot(cash, markToMarket(ts, marketView, brokerView), ts)
	}

	return e.insertAll(events)
}

func (e *Engine) insertAll(events []common.Event) error {
	for _, ev := range events {
		if err := e.InsertEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// markToMarket values open positions at the most recent observable bar
// close. Positions without any observable bar contribute their cost basis.
func markToMarket(ts time.Time, marketView *market.MarketSnapshot, brokerView *broker.BrokerSnapshot) fixed.Point {
	equity := brokerView.Portfolio.Cash
	for symbol, position := range brokerView.Portfolio.Positions {
		if position.Qty == 0 {
			continue
		}
		price := position.AverageCost
		if series, ok := marketView.Series(symbol); ok {
			if bar, ok := series.MostRecentBar(ts); ok {
				price = bar.Close
			}
		}
		equity = equity.Add(price.MulInt64(position.Qty))
	}
	return equity
}
