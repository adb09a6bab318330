package execution

import (
	"github.com/alejandrodnm/barsim/internal/domain"
)

// Model resolves an order against a bar, producing at most one fill.
// ok is false when the order is unfillable on this bar.
type Model interface {
	Execute(bar domain.Bar, order *domain.Order) (fill domain.Fill, ok bool)
}

// Simulated is the standard execution model: base price from the bar,
// slippage on top, fee on the slipped price, full quantity always.
type Simulated struct {
	slippage SlippageModel
	fees     FeeModel
}

// NewSimulated combines a slippage and a fee model.
func NewSimulated(slippage SlippageModel, fees FeeModel) *Simulated {
	return &Simulated{slippage: slippage, fees: fees}
}

func (m *Simulated) Execute(bar domain.Bar, order *domain.Order) (domain.Fill, bool) {
	if order.Symbol != bar.Symbol {
		return domain.Fill{}, false
	}

	basePrice, ok := basePrice(bar, order)
	if !ok {
		return domain.Fill{}, false
	}

	price := m.slippage.Apply(bar, order, basePrice)
	fee := m.fees.Compute(order.Symbol, order.Qty, price, order.Side)

	fill, err := domain.NewFill(order.ID, bar.TS, order.Symbol, order.Side, order.Qty, price, fee)
	if err != nil {
		return domain.Fill{}, false
	}
	return fill, true
}

// basePrice determines the pre-slippage price, or ok=false when the
// order cannot trade on this bar. Market orders trade at the close;
// limit orders trade at the limit price iff the bar range reached it.
func basePrice(bar domain.Bar, order *domain.Order) (float64, bool) {
	switch order.Type {
	case domain.OrderMarket:
		return bar.Close, true
	case domain.OrderLimit:
		if order.Side == domain.SideBuy && bar.Low <= order.LimitPrice {
			return order.LimitPrice, true
		}
		if order.Side == domain.SideSell && bar.High >= order.LimitPrice {
			return order.LimitPrice, true
		}
	}
	return 0, false
}

// Realistic adds market-microstructure effects on top of Simulated:
// a half-spread paid in the adverse direction and a fill quantity cap
// at maxFillPct of bar volume. The capped remainder is not retried on
// later bars; the broker marks such orders PARTIAL and retires them.
type Realistic struct {
	slippage   SlippageModel
	fees       FeeModel
	spreadBps  float64
	maxFillPct float64
}

// NewRealistic builds the realistic model. spreadBps is the full quoted
// spread in basis points; maxFillPct caps fill size as a fraction of
// bar volume.
func NewRealistic(slippage SlippageModel, fees FeeModel, spreadBps, maxFillPct float64) *Realistic {
	return &Realistic{
		slippage:   slippage,
		fees:       fees,
		spreadBps:  spreadBps,
		maxFillPct: maxFillPct,
	}
}

func (m *Realistic) Execute(bar domain.Bar, order *domain.Order) (domain.Fill, bool) {
	if order.Symbol != bar.Symbol {
		return domain.Fill{}, false
	}

	maxQty := bar.Volume * m.maxFillPct
	fillQty := order.Qty
	if maxQty < fillQty {
		fillQty = maxQty
	}
	if fillQty <= 0 {
		return domain.Fill{}, false
	}

	base, ok := basePrice(bar, order)
	if !ok {
		return domain.Fill{}, false
	}

	// Taker pays the spread before slippage.
	spreadAdj := base * m.spreadBps / 10_000
	if order.Side == domain.SideBuy {
		base += spreadAdj
	} else {
		base -= spreadAdj
	}

	price := m.slippage.Apply(bar, order, base)
	fee := m.fees.Compute(order.Symbol, fillQty, price, order.Side)

	fill, err := domain.NewFill(order.ID, bar.TS, order.Symbol, order.Side, fillQty, price, fee)
	if err != nil {
		return domain.Fill{}, false
	}
	return fill, true
}
