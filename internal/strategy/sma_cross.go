package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// SmaCross trades simple moving average crossovers: a bullish cross
// (fast above slow) buys, a bearish cross sells any long. Shorts are
// covered on the bullish side by buying their size plus the position
// size.
type SmaCross struct {
	fast         int
	slow         int
	positionSize float64

	buffers map[string]*smaBuffers
	prev    map[string]int // -1 bearish, 0 neutral, 1 bullish
}

type smaBuffers struct {
	fast *window
	slow *window
}

// NewSmaCross requires 2 <= fast < slow and a positive position size.
func NewSmaCross(fast, slow int, positionSize float64) (*SmaCross, error) {
	if fast >= slow {
		return nil, fmt.Errorf("strategy.NewSmaCross: fast period (%d) must be < slow period (%d)", fast, slow)
	}
	if fast < 2 {
		return nil, fmt.Errorf("strategy.NewSmaCross: periods must be >= 2")
	}
	if positionSize <= 0 {
		return nil, fmt.Errorf("strategy.NewSmaCross: position size must be positive: %.8g", positionSize)
	}
	return &SmaCross{
		fast:         fast,
		slow:         slow,
		positionSize: positionSize,
	}, nil
}

func (s *SmaCross) Name() string { return "sma_cross" }

func (s *SmaCross) OnStart(universe []string, params map[string]any) error {
	s.buffers = make(map[string]*smaBuffers, len(universe))
	s.prev = make(map[string]int, len(universe))
	for _, symbol := range universe {
		s.buffers[symbol] = &smaBuffers{
			fast: newWindow(s.fast),
			slow: newWindow(s.slow),
		}
		s.prev[symbol] = 0
	}
	return nil
}

func (s *SmaCross) OnBar(bar domain.Bar, state *State) ([]*domain.Order, error) {
	buf, ok := s.buffers[bar.Symbol]
	if !ok {
		return nil, nil
	}

	buf.fast.push(bar.Close)
	buf.slow.push(bar.Close)
	if !buf.slow.full() {
		return nil, nil
	}

	signal := -1
	if buf.fast.mean() > buf.slow.mean() {
		signal = 1
	}

	prev := s.prev[bar.Symbol]
	s.prev[bar.Symbol] = signal
	if prev == signal {
		return nil, nil
	}

	currentQty := state.Portfolio.Position(bar.Symbol).Qty

	switch {
	case signal == 1 && currentQty <= 0:
		qty := math.Abs(currentQty) + s.positionSize
		order, err := domain.NewOrder(state.NewOrderID(), bar.TS, bar.Symbol, domain.SideBuy, qty, domain.OrderMarket, 0)
		if err != nil {
			return nil, fmt.Errorf("strategy.SmaCross.OnBar: %w", err)
		}
		return []*domain.Order{order}, nil

	case signal == -1 && currentQty > 0:
		order, err := domain.NewOrder(state.NewOrderID(), bar.TS, bar.Symbol, domain.SideSell, currentQty, domain.OrderMarket, 0)
		if err != nil {
			return nil, fmt.Errorf("strategy.SmaCross.OnBar: %w", err)
		}
		return []*domain.Order{order}, nil
	}

	return nil, nil
}

func (s *SmaCross) OnEnd(state *State) error {
	s.buffers = nil
	s.prev = nil
	return nil
}
