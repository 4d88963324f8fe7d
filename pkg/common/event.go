package common

import (
	"time"
)

// EventKind tags the event variants. Declaration order doubles as the causal
// precedence among events sharing a timestamp: cancellations reach the market
// before prices move, prices move before new orders arrive, broker-bound
// results land before the strategy observes them.
type EventKind uint8

const (
	EventCancellationArrivesAtMarket EventKind = iota
	EventUpdateMarketData
	EventOrderArrivesAtMarket
	EventCancellationArrivesAtBroker
	EventFillArrivesAtBroker
	EventRunStrategy
)

func (k EventKind) String() string {
	switch k {
	case EventCancellationArrivesAtMarket:
		return "cancellation-arrives-at-market"
	case EventUpdateMarketData:
		return "update-market-data"
	case EventOrderArrivesAtMarket:
		return "order-arrives-at-market"
	case EventCancellationArrivesAtBroker:
		return "cancellation-arrives-at-broker"
	case EventFillArrivesAtBroker:
		return "fill-arrives-at-broker"
	case EventRunStrategy:
		return "run-strategy"
	default:
		return "unknown"
	}
}

// Event is the closed set of payloads moving through the engine queue. Each
// variant carries only the fields relevant to its kind; the engine dispatches
// on the concrete type, never through a runtime cast.
type Event interface {
	Kind() EventKind
	Time() time.Time
}

type RunStrategyEvent struct {
	TS time.Time
}

func (e RunStrategyEvent) Kind() EventKind { return EventRunStrategy }
func (e RunStrategyEvent) Time() time.Time { return e.TS }

type UpdateMarketDataEvent struct {
	TS time.Time
}

func (e UpdateMarketDataEvent) Kind() EventKind { return EventUpdateMarketData }
func (e UpdateMarketDataEvent) Time() time.Time { return e.TS }

type OrderArrivesAtMarketEvent struct {
	TS         time.Time
	Submission OrderSubmission
}

func (e OrderArrivesAtMarketEvent) Kind() EventKind { return EventOrderArrivesAtMarket }
func (e OrderArrivesAtMarketEvent) Time() time.Time { return e.TS }

type CancellationArrivesAtMarketEvent struct {
	TS         time.Time
	Submission CancellationSubmission
}

func (e CancellationArrivesAtMarketEvent) Kind() EventKind { return EventCancellationArrivesAtMarket }
func (e CancellationArrivesAtMarketEvent) Time() time.Time { return e.TS }

type FillArrivesAtBrokerEvent struct {
	TS   time.Time
	Fill Fill
}

func (e FillArrivesAtBrokerEvent) Kind() EventKind { return EventFillArrivesAtBroker }
func (e FillArrivesAtBrokerEvent) Time() time.Time { return e.TS }

type CancellationArrivesAtBrokerEvent struct {
	TS     time.Time
	Result CancellationResult
}

func (e CancellationArrivesAtBrokerEvent) Kind() EventKind { return EventCancellationArrivesAtBroker }
func (e CancellationArrivesAtBrokerEvent) Time() time.Time { return e.TS }
