// Package portfolio applies fills to portfolio state and tracks the
// trade lifecycle and equity curve of a run.
package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// Manager owns the portfolio of a single run. It applies fills, keeps
// at most one open trade per symbol, and appends equity points on every
// fill and explicit mark-to-market.
type Manager struct {
	portfolio   *domain.Portfolio
	equityCurve []domain.EquityPoint
	trades      []*domain.Trade          // closed, in closing order
	openTrades  map[string]*domain.Trade // symbol → open trade
}

// NewManager requires positive initial cash.
func NewManager(initialCash float64) (*Manager, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("portfolio.NewManager: initial cash must be positive: %.8g", initialCash)
	}
	return &Manager{
		portfolio:  domain.NewPortfolio(initialCash),
		openTrades: make(map[string]*domain.Trade),
	}, nil
}

// ApplyFill updates cash/positions, advances the trade lifecycle,
// marks to market at currentPrices and appends an equity point at the
// fill's timestamp.
func (m *Manager) ApplyFill(fill domain.Fill, currentPrices map[string]float64) {
	m.portfolio.ApplyFill(fill)
	m.trackTrade(fill)
	m.portfolio.MarkToMarket(currentPrices)
	m.appendEquityPoint(fill.TS)
}

// MarkToMarket refreshes equity at the given prices and appends an
// equity point at ts.
func (m *Manager) MarkToMarket(ts time.Time, prices map[string]float64) {
	m.portfolio.MarkToMarket(prices)
	m.appendEquityPoint(ts)
}

func (m *Manager) appendEquityPoint(ts time.Time) {
	m.equityCurve = append(m.equityCurve, domain.EquityPoint{
		TS:             ts.UTC(),
		Equity:         m.portfolio.Equity,
		Cash:           m.portfolio.Cash,
		PositionsValue: m.portfolio.Equity - m.portfolio.Cash,
	})
}

// trackTrade advances the open-trade lifecycle for the fill's symbol:
// open on first fill, average in on same-direction fills, close (and
// possibly reverse) on opposing fills.
func (m *Manager) trackTrade(fill domain.Fill) {
	open, ok := m.openTrades[fill.Symbol]
	if !ok {
		m.openTrades[fill.Symbol] = &domain.Trade{
			Symbol:     fill.Symbol,
			Side:       fill.Side,
			EntryTS:    fill.TS,
			EntryPrice: fill.Price,
			EntryQty:   fill.Qty,
			Fees:       fill.Fee,
		}
		return
	}

	if open.Side == fill.Side {
		totalQty := open.EntryQty + fill.Qty
		open.EntryPrice = (open.EntryPrice*open.EntryQty + fill.Price*fill.Qty) / totalQty
		open.EntryQty = totalQty
		open.Fees += fill.Fee
		return
	}

	if fill.Qty >= open.EntryQty {
		closedQty := open.EntryQty
		open.Close(fill.TS, fill.Price, closedQty, fill.Fee)
		m.trades = append(m.trades, open)
		delete(m.openTrades, fill.Symbol)

		// Residual quantity opens a reverse trade. The fee is already
		// carried by the closing leg.
		if remainder := fill.Qty - closedQty; remainder > 0 {
			m.openTrades[fill.Symbol] = &domain.Trade{
				Symbol:     fill.Symbol,
				Side:       fill.Side,
				EntryTS:    fill.TS,
				EntryPrice: fill.Price,
				EntryQty:   remainder,
			}
		}
		return
	}

	open.EntryQty -= fill.Qty
}

// CloseAll force-closes every open trade at the supplied prices with
// zero exit fee and returns them in deterministic symbol order. Symbols
// without a price stay open.
func (m *Manager) CloseAll(ts time.Time, prices map[string]float64) []*domain.Trade {
	symbols := make([]string, 0, len(m.openTrades))
	for symbol := range m.openTrades {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var closed []*domain.Trade
	for _, symbol := range symbols {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		trade := m.openTrades[symbol]
		trade.Close(ts, price, trade.EntryQty, 0)
		m.trades = append(m.trades, trade)
		closed = append(closed, trade)
		delete(m.openTrades, symbol)
	}
	return closed
}

// Portfolio exposes the underlying portfolio. Strategies receive this
// through the run state and must treat it as read-only.
func (m *Manager) Portfolio() *domain.Portfolio {
	return m.portfolio
}

// EquityCurve returns a copy of the equity points recorded so far.
func (m *Manager) EquityCurve() []domain.EquityPoint {
	out := make([]domain.EquityPoint, len(m.equityCurve))
	copy(out, m.equityCurve)
	return out
}

// LastEquityPoint returns the most recent equity point, ok=false when
// none has been recorded yet.
func (m *Manager) LastEquityPoint() (domain.EquityPoint, bool) {
	if len(m.equityCurve) == 0 {
		return domain.EquityPoint{}, false
	}
	return m.equityCurve[len(m.equityCurve)-1], true
}

// Trades returns the closed trades in closing order.
func (m *Manager) Trades() []*domain.Trade {
	out := make([]*domain.Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// OpenTrades returns a copy of the open-trade map.
func (m *Manager) OpenTrades() map[string]*domain.Trade {
	out := make(map[string]*domain.Trade, len(m.openTrades))
	for symbol, trade := range m.openTrades {
		out[symbol] = trade
	}
	return out
}

// Cash currently available.
func (m *Manager) Cash() float64 { return m.portfolio.Cash }

// Equity at the last mark-to-market.
func (m *Manager) Equity() float64 { return m.portfolio.Equity }

// TotalPnL is the sum of realized P&L across closed trades.
func (m *Manager) TotalPnL() float64 {
	total := 0.0
	for _, trade := range m.trades {
		total += trade.PnL
	}
	return total
}
