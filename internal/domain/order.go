package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Side of an order or fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType supported by the execution models.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusFilled    OrderStatus = "FILLED"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order is a request to trade. The broker owns it once submitted and
// mutates only Status.
type Order struct {
	ID         string
	TS         time.Time
	Symbol     string
	Side       Side
	Qty        float64
	Type       OrderType
	LimitPrice float64 // required > 0 for LIMIT, ignored for MARKET
	Status     OrderStatus
}

// NewOrder builds a validated order with status PENDING.
// LIMIT orders require limitPrice > 0; pass 0 for MARKET.
func NewOrder(id string, ts time.Time, symbol string, side Side, qty float64, typ OrderType, limitPrice float64) (*Order, error) {
	o := &Order{
		ID:         id,
		TS:         ts.UTC(),
		Symbol:     symbol,
		Side:       side,
		Qty:        qty,
		Type:       typ,
		LimitPrice: limitPrice,
		Status:     StatusPending,
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) validate() error {
	if o.ID == "" {
		return fmt.Errorf("domain.NewOrder: empty id")
	}
	if o.Qty <= 0 {
		return fmt.Errorf("domain.NewOrder: qty must be positive: %.8g", o.Qty)
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("domain.NewOrder: invalid side %q", o.Side)
	}
	switch o.Type {
	case OrderMarket:
	case OrderLimit:
		if o.LimitPrice <= 0 {
			return fmt.Errorf("domain.NewOrder: limit order needs limit price > 0, got %.8g", o.LimitPrice)
		}
	default:
		return fmt.Errorf("domain.NewOrder: invalid type %q", o.Type)
	}
	return nil
}

// NewOrderID generates a unique id for free-standing orders. Orders
// emitted inside a simulator run use the run's monotonic generator
// instead, so two identical runs produce identical ids.
func NewOrderID() string {
	return "ord-" + uuid.New().String()[:12]
}
