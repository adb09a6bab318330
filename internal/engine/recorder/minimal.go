package recorder

import (
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// MinimalRecorder only tracks counters and run timing. Use it when
// memory matters more than the audit trail.
type MinimalRecorder struct {
	ordersCount int
	fillsCount  int
	startTime   time.Time
	endTime     time.Time

	now func() time.Time
}

func NewMinimalRecorder() *MinimalRecorder {
	return &MinimalRecorder{
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *MinimalRecorder) OnStart(metadata map[string]any) {
	r.startTime = r.now()
}

func (r *MinimalRecorder) OnBar(bar domain.Bar) {}

func (r *MinimalRecorder) OnOrder(order *domain.Order) {
	r.ordersCount++
}

func (r *MinimalRecorder) OnFill(fill domain.Fill) {
	r.fillsCount++
}

func (r *MinimalRecorder) OnEquityUpdate(point domain.EquityPoint) {}

func (r *MinimalRecorder) OnEnd(finalState map[string]any) {
	r.endTime = r.now()
}

func (r *MinimalRecorder) Summary() map[string]any {
	var duration any
	if !r.startTime.IsZero() && !r.endTime.IsZero() {
		duration = r.endTime.Sub(r.startTime).Seconds()
	}
	return map[string]any{
		"start_time":       formatTime(r.startTime),
		"end_time":         formatTime(r.endTime),
		"duration_seconds": duration,
		"orders_submitted": r.ordersCount,
		"fills_executed":   r.fillsCount,
	}
}
