package domain

import "time"

// Trade is a round-trip position in one symbol, from opening fill to
// closing fill. Open trades have a zero ExitTS; Close freezes them.
type Trade struct {
	Symbol     string
	Side       Side // entry side
	EntryTS    time.Time
	EntryPrice float64
	EntryQty   float64
	ExitTS     time.Time // zero while open
	ExitPrice  float64
	ExitQty    float64
	Fees       float64
	PnL        float64
	ReturnPct  float64
}

// Close finalizes the trade with direction-aware P&L:
// BUY entries earn (exit-entry)·qty, SELL entries (entry-exit)·qty,
// fees subtracted either way.
func (t *Trade) Close(exitTS time.Time, exitPrice, exitQty, exitFee float64) {
	t.ExitTS = exitTS.UTC()
	t.ExitPrice = exitPrice
	t.ExitQty = exitQty
	t.Fees += exitFee

	if t.Side == SideBuy {
		t.PnL = (exitPrice-t.EntryPrice)*t.EntryQty - t.Fees
	} else {
		t.PnL = (t.EntryPrice-exitPrice)*t.EntryQty - t.Fees
	}

	entryValue := t.EntryPrice * t.EntryQty
	if entryValue != 0 {
		t.ReturnPct = t.PnL / entryValue * 100
	} else {
		t.ReturnPct = 0
	}
}

// IsOpen reports whether the trade has not been closed yet.
func (t *Trade) IsOpen() bool {
	return t.ExitTS.IsZero()
}

// Duration of the round trip. Zero while open.
func (t *Trade) Duration() time.Duration {
	if t.IsOpen() {
		return 0
	}
	return t.ExitTS.Sub(t.EntryTS)
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	TS             time.Time
	Equity         float64
	Cash           float64
	PositionsValue float64
}
