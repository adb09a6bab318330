// Package execution simulates order fills: slippage models, fee models
// and the resolution of market/limit orders against OHLCV bars.
package execution

import (
	"fmt"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// SlippageModel adjusts a base price for market impact. Implementations
// must never return a negative price.
type SlippageModel interface {
	Apply(bar domain.Bar, order *domain.Order, basePrice float64) float64
}

// FixedBpsSlippage applies a constant basis-point penalty: buys execute
// higher, sells lower.
type FixedBpsSlippage struct {
	bps float64
}

// NewFixedBpsSlippage requires bps >= 0 (5 bps = 0.05%).
func NewFixedBpsSlippage(bps float64) (*FixedBpsSlippage, error) {
	if bps < 0 {
		return nil, fmt.Errorf("execution.NewFixedBpsSlippage: bps must be non-negative: %.8g", bps)
	}
	return &FixedBpsSlippage{bps: bps}, nil
}

func (s *FixedBpsSlippage) Apply(_ domain.Bar, order *domain.Order, basePrice float64) float64 {
	factor := s.bps / 10_000
	if order.Side == domain.SideBuy {
		return basePrice * (1 + factor)
	}
	return basePrice * (1 - factor)
}

// VolumeBasedSlippage grows with order size relative to bar volume:
// total bps = base + (qty/volume)·100·impact.
type VolumeBasedSlippage struct {
	baseBps      float64
	volumeImpact float64
}

// NewVolumeBasedSlippage requires both parameters >= 0. volumeImpact is
// additional bps per 1% of bar volume consumed.
func NewVolumeBasedSlippage(baseBps, volumeImpact float64) (*VolumeBasedSlippage, error) {
	if baseBps < 0 || volumeImpact < 0 {
		return nil, fmt.Errorf("execution.NewVolumeBasedSlippage: parameters must be non-negative")
	}
	return &VolumeBasedSlippage{baseBps: baseBps, volumeImpact: volumeImpact}, nil
}

func (s *VolumeBasedSlippage) Apply(bar domain.Bar, order *domain.Order, basePrice float64) float64 {
	volumeFraction := 0.0
	if bar.Volume > 0 {
		volumeFraction = order.Qty / bar.Volume
	}
	totalBps := s.baseBps + volumeFraction*100*s.volumeImpact
	factor := totalBps / 10_000

	if order.Side == domain.SideBuy {
		return basePrice * (1 + factor)
	}
	return basePrice * (1 - factor)
}

// NoSlippage returns the base price unchanged.
type NoSlippage struct{}

func (NoSlippage) Apply(_ domain.Bar, _ *domain.Order, basePrice float64) float64 {
	return basePrice
}
