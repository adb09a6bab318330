package execution

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// FeeModel computes the transaction cost of a fill in quote currency.
// Results are always >= 0.
type FeeModel interface {
	Compute(symbol string, qty, price float64, side domain.Side) float64
}

// PercentageFee charges a fixed percentage of notional.
type PercentageFee struct {
	pct float64
}

// NewPercentageFee requires pct >= 0 (0.1 = 0.1%).
func NewPercentageFee(pct float64) (*PercentageFee, error) {
	if pct < 0 {
		return nil, fmt.Errorf("execution.NewPercentageFee: percentage must be non-negative: %.8g", pct)
	}
	return &PercentageFee{pct: pct}, nil
}

func (f *PercentageFee) Compute(_ string, qty, price float64, _ domain.Side) float64 {
	return qty * price * f.pct / 100
}

// FeeTier maps a notional threshold to a fee percentage.
type FeeTier struct {
	Threshold float64
	Pct       float64
}

// TieredFee picks the rate of the highest tier whose threshold the
// notional reaches.
type TieredFee struct {
	tiers []FeeTier
}

// NewTieredFee sorts the tiers ascending by threshold; an empty list is
// rejected.
func NewTieredFee(tiers []FeeTier) (*TieredFee, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("execution.NewTieredFee: tiers cannot be empty")
	}
	sorted := make([]FeeTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })
	return &TieredFee{tiers: sorted}, nil
}

func (f *TieredFee) Compute(_ string, qty, price float64, _ domain.Side) float64 {
	notional := qty * price

	pct := f.tiers[0].Pct
	for _, tier := range f.tiers {
		if notional >= tier.Threshold {
			pct = tier.Pct
		} else {
			break
		}
	}
	return notional * pct / 100
}

// NoFees charges nothing.
type NoFees struct{}

func (NoFees) Compute(_ string, _, _ float64, _ domain.Side) float64 {
	return 0
}
