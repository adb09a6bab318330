// Package broker handles order admission, the pending queue and per-bar
// matching against an execution model.
package broker

import (
	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/execution"
)

// Broker is the order-routing contract the simulator drives.
type Broker interface {
	// Submit admits an order. Returns false on rejection (duplicate id
	// or invalid parameters); rejected orders get status REJECTED.
	Submit(order *domain.Order) bool

	// ProcessBar matches pending orders on the bar's symbol and returns
	// the fills produced, in order submission order.
	ProcessBar(bar domain.Bar) []domain.Fill

	// Order returns the order by id, nil when unknown.
	Order(id string) *domain.Order

	// Pending lists pending orders, optionally filtered by symbol
	// (empty string = all). Insertion order.
	Pending(symbol string) []*domain.Order

	// Cancel removes a pending order. Returns false when the order is
	// not pending (unknown, filled, or already cancelled).
	Cancel(id string) bool

	// Fills returns a copy of the fill history.
	Fills() []domain.Fill
}

// Simulated executes orders against an execution model with no latency.
// Pending orders are matched in insertion order so runs are
// deterministic.
type Simulated struct {
	model   execution.Model
	orders  map[string]*domain.Order
	pending []*domain.Order
	fills   []domain.Fill
}

// NewSimulated creates a broker backed by the given execution model.
func NewSimulated(model execution.Model) *Simulated {
	return &Simulated{
		model:  model,
		orders: make(map[string]*domain.Order),
	}
}

func (b *Simulated) Submit(order *domain.Order) bool {
	if _, exists := b.orders[order.ID]; exists {
		return false
	}
	if !validate(order) {
		order.Status = domain.StatusRejected
		return false
	}

	order.Status = domain.StatusPending
	b.orders[order.ID] = order
	b.pending = append(b.pending, order)
	return true
}

func (b *Simulated) ProcessBar(bar domain.Bar) []domain.Fill {
	var fills []domain.Fill
	remaining := b.pending[:0]

	for _, order := range b.pending {
		if order.Symbol != bar.Symbol {
			remaining = append(remaining, order)
			continue
		}

		fill, ok := b.model.Execute(bar, order)
		if !ok {
			remaining = append(remaining, order)
			continue
		}

		fills = append(fills, fill)
		b.fills = append(b.fills, fill)
		if fill.Qty < order.Qty {
			order.Status = domain.StatusPartial
		} else {
			order.Status = domain.StatusFilled
		}
	}

	b.pending = remaining
	return fills
}

func (b *Simulated) Order(id string) *domain.Order {
	return b.orders[id]
}

func (b *Simulated) Pending(symbol string) []*domain.Order {
	var out []*domain.Order
	for _, order := range b.pending {
		if symbol == "" || order.Symbol == symbol {
			out = append(out, order)
		}
	}
	return out
}

func (b *Simulated) Cancel(id string) bool {
	for i, order := range b.pending {
		if order.ID == id {
			order.Status = domain.StatusCancelled
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Simulated) Fills() []domain.Fill {
	out := make([]domain.Fill, len(b.fills))
	copy(out, b.fills)
	return out
}

func validate(order *domain.Order) bool {
	if order.Qty <= 0 {
		return false
	}
	if order.Type == domain.OrderLimit && order.LimitPrice <= 0 {
		return false
	}
	if order.LimitPrice < 0 {
		return false
	}
	return true
}
