// Package recorder captures the audit trail of a run: orders, fills,
// equity snapshots and a generic event log.
package recorder

import (
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// Recorder receives run lifecycle callbacks from the simulator.
type Recorder interface {
	OnStart(metadata map[string]any)
	OnBar(bar domain.Bar)
	OnOrder(order *domain.Order)
	OnFill(fill domain.Fill)
	OnEquityUpdate(point domain.EquityPoint)
	OnEnd(finalState map[string]any)
	Summary() map[string]any
}

// Event is a generic audit entry.
type Event struct {
	Type string         `json:"type"`
	TS   time.Time      `json:"ts"`
	Data map[string]any `json:"data"`
}

// EventRecorder keeps the full audit trail in memory. Bar recording is
// opt-in since it dominates memory on long runs.
type EventRecorder struct {
	recordBars bool
	bars       []domain.Bar
	orders     []*domain.Order
	fills      []domain.Fill
	equity     []domain.EquityPoint
	events     []Event
	startTime  time.Time
	endTime    time.Time
	metadata   map[string]any

	now func() time.Time
}

// NewEventRecorder creates a full recorder. recordBars enables keeping
// every processed bar.
func NewEventRecorder(recordBars bool) *EventRecorder {
	return &EventRecorder{
		recordBars: recordBars,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *EventRecorder) OnStart(metadata map[string]any) {
	r.startTime = r.now()
	r.metadata = make(map[string]any, len(metadata))
	for k, v := range metadata {
		r.metadata[k] = v
	}
	r.recordEvent("backtest_start", metadata)
}

func (r *EventRecorder) OnBar(bar domain.Bar) {
	if r.recordBars {
		r.bars = append(r.bars, bar)
	}
}

func (r *EventRecorder) OnOrder(order *domain.Order) {
	r.orders = append(r.orders, order)
	r.recordEvent("order_submitted", map[string]any{
		"order_id": order.ID,
		"symbol":   order.Symbol,
		"side":     string(order.Side),
		"qty":      order.Qty,
		"type":     string(order.Type),
		"ts":       order.TS.Format(time.RFC3339Nano),
	})
}

func (r *EventRecorder) OnFill(fill domain.Fill) {
	r.fills = append(r.fills, fill)
	r.recordEvent("order_filled", map[string]any{
		"order_id": fill.OrderID,
		"symbol":   fill.Symbol,
		"side":     string(fill.Side),
		"qty":      fill.Qty,
		"price":    fill.Price,
		"fee":      fill.Fee,
		"ts":       fill.TS.Format(time.RFC3339Nano),
	})
}

func (r *EventRecorder) OnEquityUpdate(point domain.EquityPoint) {
	r.equity = append(r.equity, point)
}

func (r *EventRecorder) OnEnd(finalState map[string]any) {
	r.endTime = r.now()
	r.recordEvent("backtest_end", finalState)
}

func (r *EventRecorder) recordEvent(eventType string, data map[string]any) {
	r.events = append(r.events, Event{
		Type: eventType,
		TS:   r.now(),
		Data: data,
	})
}

// Summary returns run counters and metadata. Bar count reports
// "not_recorded" when bar recording is off.
func (r *EventRecorder) Summary() map[string]any {
	var barsProcessed any = "not_recorded"
	if r.recordBars {
		barsProcessed = len(r.bars)
	}

	var duration any
	if !r.startTime.IsZero() && !r.endTime.IsZero() {
		duration = r.endTime.Sub(r.startTime).Seconds()
	}

	return map[string]any{
		"start_time":       formatTime(r.startTime),
		"end_time":         formatTime(r.endTime),
		"duration_seconds": duration,
		"bars_processed":   barsProcessed,
		"orders_submitted": len(r.orders),
		"fills_executed":   len(r.fills),
		"equity_snapshots": len(r.equity),
		"events_logged":    len(r.events),
		"metadata":         r.metadata,
	}
}

// Bars returns the recorded bars, empty unless bar recording was on.
func (r *EventRecorder) Bars() []domain.Bar {
	out := make([]domain.Bar, len(r.bars))
	copy(out, r.bars)
	return out
}

// Orders returns every submitted order in submission order.
func (r *EventRecorder) Orders() []*domain.Order {
	out := make([]*domain.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

// Fills returns every executed fill in execution order.
func (r *EventRecorder) Fills() []domain.Fill {
	out := make([]domain.Fill, len(r.fills))
	copy(out, r.fills)
	return out
}

// EquityCurve returns the recorded equity snapshots.
func (r *EventRecorder) EquityCurve() []domain.EquityPoint {
	out := make([]domain.EquityPoint, len(r.equity))
	copy(out, r.equity)
	return out
}

// Events returns the generic event log.
func (r *EventRecorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ExportMap serializes the complete recording for persistence or
// transport.
func (r *EventRecorder) ExportMap() map[string]any {
	orders := make([]map[string]any, len(r.orders))
	for i, order := range r.orders {
		orders[i] = orderRecord(order)
	}
	fills := make([]map[string]any, len(r.fills))
	for i, fill := range r.fills {
		fills[i] = fillRecord(fill)
	}
	equity := make([]map[string]any, len(r.equity))
	for i, point := range r.equity {
		equity[i] = equityRecord(point)
	}

	return map[string]any{
		"summary":      r.Summary(),
		"orders":       orders,
		"fills":        fills,
		"equity_curve": equity,
		"events":       r.Events(),
	}
}

func orderRecord(order *domain.Order) map[string]any {
	return map[string]any{
		"id":          order.ID,
		"ts":          order.TS.Format(time.RFC3339Nano),
		"symbol":      order.Symbol,
		"side":        string(order.Side),
		"qty":         order.Qty,
		"type":        string(order.Type),
		"limit_price": order.LimitPrice,
		"status":      string(order.Status),
	}
}

func fillRecord(fill domain.Fill) map[string]any {
	return map[string]any{
		"order_id":      fill.OrderID,
		"ts":            fill.TS.Format(time.RFC3339Nano),
		"symbol":        fill.Symbol,
		"side":          string(fill.Side),
		"qty":           fill.Qty,
		"price":         fill.Price,
		"fee":           fill.Fee,
		"notional":      fill.Notional(),
		"net_cash_flow": fill.NetCashFlow(),
	}
}

func equityRecord(point domain.EquityPoint) map[string]any {
	return map[string]any{
		"ts":              point.TS.Format(time.RFC3339Nano),
		"equity":          point.Equity,
		"cash":            point.Cash,
		"positions_value": point.PositionsValue,
	}
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
