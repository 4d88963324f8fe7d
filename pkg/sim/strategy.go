package sim

import (
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/broker"
	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/market"
)

// Strategy is invoked on every run-strategy event with read-only views of
// the market and broker as of the current simulation time. Requests it
// returns are routed through the broker on the same timestamp.
type Strategy interface {
	Run(ts time.Time, marketView *market.MarketSnapshot, brokerView *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(ts time.Time, marketView *market.MarketSnapshot, brokerView *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error)

func (f StrategyFunc) Run(ts time.Time, marketView *market.MarketSnapshot, brokerView *broker.BrokerSnapshot) ([]common.OrderRequest, []common.CancellationRequest, error) {
	return f(ts, marketView, brokerView)
}
