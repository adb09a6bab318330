package recorder

import (
	"log/slog"

	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/ports"
)

// StreamingRecorder keeps the in-memory trail and additionally streams
// each record to a sink. Sink failures are logged and do not interrupt
// the run.
type StreamingRecorder struct {
	*EventRecorder
	sink   ports.RecordSink
	logger *slog.Logger
}

// NewStreamingRecorder wraps an EventRecorder over the given sink.
func NewStreamingRecorder(sink ports.RecordSink, recordBars bool, logger *slog.Logger) *StreamingRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamingRecorder{
		EventRecorder: NewEventRecorder(recordBars),
		sink:          sink,
		logger:        logger,
	}
}

func (r *StreamingRecorder) OnOrder(order *domain.Order) {
	r.EventRecorder.OnOrder(order)
	r.stream("orders", orderRecord(order))
}

func (r *StreamingRecorder) OnFill(fill domain.Fill) {
	r.EventRecorder.OnFill(fill)
	r.stream("fills", fillRecord(fill))
}

func (r *StreamingRecorder) OnEquityUpdate(point domain.EquityPoint) {
	r.EventRecorder.OnEquityUpdate(point)
	r.stream("equity", equityRecord(point))
}

func (r *StreamingRecorder) stream(kind string, record map[string]any) {
	if err := r.sink.Write(kind, record); err != nil {
		r.logger.Warn("record sink write failed", "kind", kind, "error", err)
	}
}
