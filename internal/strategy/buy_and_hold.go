package strategy

import (
	"fmt"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// BuyAndHold buys each universe symbol once on its first bar and holds.
// Baseline for strategy comparison.
type BuyAndHold struct {
	positionSize float64
	entered      map[string]bool
}

// NewBuyAndHold requires a positive position size.
func NewBuyAndHold(positionSize float64) (*BuyAndHold, error) {
	if positionSize <= 0 {
		return nil, fmt.Errorf("strategy.NewBuyAndHold: position size must be positive: %.8g", positionSize)
	}
	return &BuyAndHold{positionSize: positionSize}, nil
}

func (s *BuyAndHold) Name() string { return "buy_and_hold" }

func (s *BuyAndHold) OnStart(universe []string, params map[string]any) error {
	s.entered = make(map[string]bool, len(universe))
	for _, symbol := range universe {
		s.entered[symbol] = false
	}
	return nil
}

func (s *BuyAndHold) OnBar(bar domain.Bar, state *State) ([]*domain.Order, error) {
	entered, inUniverse := s.entered[bar.Symbol]
	if !inUniverse || entered {
		return nil, nil
	}

	s.entered[bar.Symbol] = true
	order, err := domain.NewOrder(state.NewOrderID(), bar.TS, bar.Symbol, domain.SideBuy, s.positionSize, domain.OrderMarket, 0)
	if err != nil {
		return nil, fmt.Errorf("strategy.BuyAndHold.OnBar: %w", err)
	}
	return []*domain.Order{order}, nil
}

func (s *BuyAndHold) OnEnd(state *State) error {
	s.entered = nil
	return nil
}
