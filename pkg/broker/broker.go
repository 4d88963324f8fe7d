package broker

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
	"github.com/SiloFlight/Strat-Sim/pkg/utility/fixed"
)

// Broker exclusively owns the orders, cancellations and the portfolio. It
// turns strategy requests into latency-delayed market-bound events and
// applies fills, fees and cancellation results coming back.
type Broker struct {
	logger *zap.Logger

	feeModel FeeModel
	latency  time.Duration

	orders        map[int64]*Order
	cancellations map[int64]*Cancellation
	portfolio     *Portfolio

	nextOrderID int64
}

func NewBroker(logger *zap.Logger, initialCash fixed.Point, feeModel FeeModel, latency time.Duration) *Broker {
	return &Broker{
		logger:        logger,
		feeModel:      feeModel,
		latency:       latency,
		orders:        make(map[int64]*Order),
		cancellations: make(map[int64]*Cancellation),
		portfolio:     NewPortfolio(initialCash),
	}
}

// HandleRequests turns strategy requests into market-bound events stamped
// ts + latency. A cancellation referencing an unknown order, or an order
// that already has a cancellation on record, is rejected.
func (b *Broker) HandleRequests(ts time.Time, orderRequests []common.OrderRequest, cancellationRequests []common.CancellationRequest) ([]common.Event, error) {
	var events []common.Event

	for _, request := range orderRequests {
		order := NewOrder(request, b.generateOrderID())
		b.orders[order.ID()] = order

		if !order.ToSubmitted() {
			return nil, fmt.Errorf("order %d: transition to submitted failed from %s", order.ID(), order.State())
		}

		b.logger.Debug("order submitted",
			zap.Int64("order_id", order.ID()),
			zap.Stringer("side", order.Side()),
			zap.Stringer("type", order.Type()),
			zap.Int64("qty", order.Qty()),
			zap.String("symbol", order.Symbol()))

		events = append(events, common.OrderArrivesAtMarketEvent{
			TS:         ts.Add(b.latency),
			Submission: order.Submission(),
		})
	}

	for _, request := range cancellationRequests {
		order, ok := b.orders[request.OrderID]
		if !ok {
			return nil, fmt.Errorf("cancellation request for unknown order %d", request.OrderID)
		}
		if _, ok := b.cancellations[request.OrderID]; ok {
			return nil, fmt.Errorf("duplicate cancellation request for order %d", request.OrderID)
		}

		cancellation := NewCancellation(request.OrderID, ts)
		b.cancellations[request.OrderID] = cancellation

		if !cancellation.ToSubmitted() {
			return nil, fmt.Errorf("cancellation for order %d: transition to submitted failed", request.OrderID)
		}
		if !order.ToCancelPending() {
			// A cancellation may race the order's own lifecycle; the market
			// resolves the outcome either way.
			b.logger.Debug("order not in a cancellable state",
				zap.Int64("order_id", order.ID()),
				zap.Stringer("state", order.State()))
		}

		events = append(events, common.CancellationArrivesAtMarketEvent{
			TS:         ts.Add(b.latency),
			Submission: cancellation.Submission(),
		})
	}

	return events, nil
}

// HandleOrderArrival marks the order live once its submission has reached
// the market.
func (b *Broker) HandleOrderArrival(orderID int64) error {
	order, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("arrival of unknown order %d", orderID)
	}
	if !order.ToLive() {
		b.logger.Debug("order arrival without live transition",
			zap.Int64("order_id", orderID),
			zap.Stringer("state", order.State()))
	}
	return nil
}

// HandleFill applies a market fill to the order, the portfolio, and then
// charges the fee model's fee.
func (b *Broker) HandleFill(fill common.Fill) error {
	order, ok := b.orders[fill.OrderID]
	if !ok {
		return fmt.Errorf("fill for unknown order %d", fill.OrderID)
	}
	if fill.Side != order.Side() {
		return fmt.Errorf("order %d: fill side %s disagrees with order side %s", fill.OrderID, fill.Side, order.Side())
	}

	if err := order.AddFill(fill); err != nil {
		return fmt.Errorf("order %d: %w", fill.OrderID, err)
	}
	if err := b.portfolio.AddFill(fill); err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	if err := b.portfolio.ApplyFee(b.feeModel.CalculateFee(fill)); err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	return nil
}

// HandleCancellationResult mirrors the market's verdict onto the
// cancellation and, when the order was actually cancelled, the order.
func (b *Broker) HandleCancellationResult(result common.CancellationResult) error {
	order, ok := b.orders[result.OrderID]
	if !ok {
		return fmt.Errorf("cancellation result for unknown order %d", result.OrderID)
	}
	cancellation, ok := b.cancellations[result.OrderID]
	if !ok {
		return fmt.Errorf("cancellation result for order %d without an in-flight cancellation", result.OrderID)
	}

	switch result.Outcome {
	case common.OutcomeCancelled:
		if !cancellation.ToCancelled() {
			return fmt.Errorf("cancellation for order %d resolved twice", result.OrderID)
		}
		if !order.ToCancelled() {
			// Cancel-before-arrival leaves the order outside cancel-pending;
			// the market still excludes it from fills.
			b.logger.Debug("cancelled order was not cancel-pending",
				zap.Int64("order_id", result.OrderID),
				zap.Stringer("state", order.State()))
		}
	case common.OutcomeNoOp:
		if !cancellation.ToNoOp() {
			return fmt.Errorf("cancellation for order %d resolved twice", result.OrderID)
		}
	default:
		return fmt.Errorf("cancellation result for order %d with unknown outcome (%d)", result.OrderID, result.Outcome)
	}
	return nil
}

// Portfolio exposes the ledger for end-of-run reporting.
func (b *Broker) Portfolio() *Portfolio {
	return b.portfolio
}

func (b *Broker) OrderCount() int {
	return len(b.orders)
}

// Order returns the read-only projection of one order.
func (b *Broker) Order(orderID int64) (OrderSnapshot, bool) {
	order, ok := b.orders[orderID]
	if !ok {
		return OrderSnapshot{}, false
	}
	return order.Snapshot(), true
}

// Snapshot projects the broker state for strategy observation.
func (b *Broker) Snapshot() *BrokerSnapshot {
	orders := make(map[int64]OrderSnapshot, len(b.orders))
	for id, order := range b.orders {
		orders[id] = order.Snapshot()
	}
	cancellations := make(map[int64]CancellationSnapshot, len(b.cancellations))
	for id, cancellation := range b.cancellations {
		cancellations[id] = cancellation.Snapshot()
	}
	return &BrokerSnapshot{
		Portfolio:     b.portfolio.Snapshot(),
		Orders:        orders,
		Cancellations: cancellations,
	}
}

func (b *Broker) generateOrderID() int64 {
	orderID := b.nextOrderID
	b.nextOrderID++
	return orderID
}

// BrokerSnapshot is the read-only broker view handed to strategies.
type BrokerSnapshot struct {
	Portfolio     PortfolioSnapshot
	Orders        map[int64]OrderSnapshot
	Cancellations map[int64]CancellationSnapshot
}
