// Package strategy defines the trading strategy contract and the
// built-in strategies.
//
// Strategies are deterministic: all run state reaches them through the
// State argument, never through globals or wall time.
package strategy

import (
	"github.com/alejandrodnm/barsim/internal/domain"
)

// State is the per-bar view a strategy receives. Portfolio is shared
// engine state and must be treated as read-only.
type State struct {
	Portfolio     *domain.Portfolio
	CurrentPrices map[string]float64
	NewOrderID    func() string
}

// Strategy is implemented by every tradable strategy.
type Strategy interface {
	// Name is the registry identifier.
	Name() string

	// OnStart runs once before the first bar.
	OnStart(universe []string, params map[string]any) error

	// OnBar receives each bar in feed order and returns the orders to
	// submit, possibly none.
	OnBar(bar domain.Bar, state *State) ([]*domain.Order, error)

	// OnEnd runs once after the last bar.
	OnEnd(state *State) error
}

// window is a bounded rolling buffer of closes.
type window struct {
	vals []float64
	size int
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) push(v float64) {
	w.vals = append(w.vals, v)
	if len(w.vals) > w.size {
		w.vals = w.vals[1:]
	}
}

func (w *window) full() bool {
	return len(w.vals) == w.size
}

func (w *window) mean() float64 {
	sum := 0.0
	for _, v := range w.vals {
		sum += v
	}
	return sum / float64(len(w.vals))
}
