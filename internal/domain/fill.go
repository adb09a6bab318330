package domain

import (
	"fmt"
	"time"
)

// Fill is an execution event converting (part of) an order into a cash
// and position change. Immutable after construction.
type Fill struct {
	OrderID string
	TS      time.Time
	Symbol  string
	Side    Side
	Qty     float64
	Price   float64
	Fee     float64
}

// NewFill builds a validated fill.
func NewFill(orderID string, ts time.Time, symbol string, side Side, qty, price, fee float64) (Fill, error) {
	f := Fill{
		OrderID: orderID,
		TS:      ts.UTC(),
		Symbol:  symbol,
		Side:    side,
		Qty:     qty,
		Price:   price,
		Fee:     fee,
	}
	if f.Qty <= 0 {
		return Fill{}, fmt.Errorf("domain.NewFill: qty must be positive: %.8g", f.Qty)
	}
	if f.Price <= 0 {
		return Fill{}, fmt.Errorf("domain.NewFill: price must be positive: %.8g", f.Price)
	}
	if f.Fee < 0 {
		return Fill{}, fmt.Errorf("domain.NewFill: negative fee %.8g", f.Fee)
	}
	return f, nil
}

// Notional is the gross value of the fill, fees excluded.
func (f Fill) Notional() float64 {
	return f.Qty * f.Price
}

// NetCashFlow is the signed cash impact: negative for buys, positive
// for sells, fees always subtracted.
func (f Fill) NetCashFlow() float64 {
	if f.Side == SideBuy {
		return -(f.Notional() + f.Fee)
	}
	return f.Notional() - f.Fee
}
