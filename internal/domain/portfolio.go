package domain

// Position is the signed holding in a single symbol. Positive qty is
// long, negative is short.
type Position struct {
	Symbol   string
	Qty      float64
	AvgPrice float64
}

// Update applies a fill to the position. Crossing through or landing on
// zero resets the average price to the fill price (0 when flat);
// same-direction fills update the quantity-weighted average.
func (p *Position) Update(fill Fill) {
	fillQty := fill.Qty
	if fill.Side == SideSell {
		fillQty = -fill.Qty
	}
	newQty := p.Qty + fillQty

	if p.Qty*newQty <= 0 {
		p.Qty = newQty
		if newQty != 0 {
			p.AvgPrice = fill.Price
		} else {
			p.AvgPrice = 0
		}
		return
	}

	totalCost := p.Qty*p.AvgPrice + fillQty*fill.Price
	p.Qty = newQty
	p.AvgPrice = abs(totalCost / newQty)
}

// MarketValue at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Qty * price
}

// UnrealizedPnL at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Qty == 0 {
		return 0
	}
	return (price - p.AvgPrice) * p.Qty
}

// Portfolio tracks cash and open positions. Equity is refreshed by
// MarkToMarket; between marks it reflects the last mark.
type Portfolio struct {
	Cash      float64
	Equity    float64
	Positions map[string]*Position
}

// NewPortfolio starts with all equity in cash.
func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Equity:    cash,
		Positions: make(map[string]*Position),
	}
}

// Position returns the position for symbol, creating an empty one if
// none exists yet.
func (pf *Portfolio) Position(symbol string) *Position {
	pos, ok := pf.Positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		pf.Positions[symbol] = pos
	}
	return pos
}

// ApplyFill updates cash and the position. Positions that go flat are
// removed from the map.
func (pf *Portfolio) ApplyFill(fill Fill) {
	pf.Cash += fill.NetCashFlow()

	pos := pf.Position(fill.Symbol)
	pos.Update(fill)

	if pos.Qty == 0 {
		delete(pf.Positions, fill.Symbol)
	}
}

// MarkToMarket recomputes equity from cash plus position values at the
// given prices. Positions without a price fall back to their avg price.
func (pf *Portfolio) MarkToMarket(prices map[string]float64) {
	total := 0.0
	for _, pos := range pf.Positions {
		price, ok := prices[pos.Symbol]
		if !ok {
			price = pos.AvgPrice
		}
		total += pos.MarketValue(price)
	}
	pf.Equity = pf.Cash + total
}

// Exposure is gross position cost over equity, 0 when equity is 0.
func (pf *Portfolio) Exposure() float64 {
	if pf.Equity == 0 {
		return 0
	}
	total := 0.0
	for _, pos := range pf.Positions {
		total += abs(pos.Qty * pos.AvgPrice)
	}
	return total / pf.Equity
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
