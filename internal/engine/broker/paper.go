package broker

import (
	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/execution"
)

// Paper is a broker that delays matching by a fixed number of bars,
// approximating order-routing latency. The delay counter decrements
// once per processed bar whose symbol matches the order; matching is
// attempted once it reaches zero.
type Paper struct {
	model   execution.Model
	delay   int
	orders  map[string]*domain.Order
	pending []*delayedOrder
	fills   []domain.Fill
}

type delayedOrder struct {
	order         *domain.Order
	barsRemaining int
}

// NewPaper creates a paper broker with the given delay in bars.
// Negative delays are clamped to 0.
func NewPaper(model execution.Model, delayBars int) *Paper {
	if delayBars < 0 {
		delayBars = 0
	}
	return &Paper{
		model:  model,
		delay:  delayBars,
		orders: make(map[string]*domain.Order),
	}
}

func (b *Paper) Submit(order *domain.Order) bool {
	if _, exists := b.orders[order.ID]; exists {
		return false
	}
	if !validate(order) {
		order.Status = domain.StatusRejected
		return false
	}

	order.Status = domain.StatusPending
	b.orders[order.ID] = order
	b.pending = append(b.pending, &delayedOrder{order: order, barsRemaining: b.delay})
	return true
}

func (b *Paper) ProcessBar(bar domain.Bar) []domain.Fill {
	var fills []domain.Fill
	remaining := b.pending[:0]

	for _, d := range b.pending {
		if d.order.Symbol != bar.Symbol {
			remaining = append(remaining, d)
			continue
		}

		d.barsRemaining--
		if d.barsRemaining > 0 {
			remaining = append(remaining, d)
			continue
		}

		fill, ok := b.model.Execute(bar, d.order)
		if !ok {
			remaining = append(remaining, d)
			continue
		}

		fills = append(fills, fill)
		b.fills = append(b.fills, fill)
		if fill.Qty < d.order.Qty {
			d.order.Status = domain.StatusPartial
		} else {
			d.order.Status = domain.StatusFilled
		}
	}

	b.pending = remaining
	return fills
}

func (b *Paper) Order(id string) *domain.Order {
	return b.orders[id]
}

func (b *Paper) Pending(symbol string) []*domain.Order {
	var out []*domain.Order
	for _, d := range b.pending {
		if symbol == "" || d.order.Symbol == symbol {
			out = append(out, d.order)
		}
	}
	return out
}

func (b *Paper) Cancel(id string) bool {
	for i, d := range b.pending {
		if d.order.ID == id {
			d.order.Status = domain.StatusCancelled
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Paper) Fills() []domain.Fill {
	out := make([]domain.Fill, len(b.fills))
	copy(out, b.fills)
	return out
}
