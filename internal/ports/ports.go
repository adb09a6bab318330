// Package ports declares the boundaries between the engine and the
// outside world. Adapters live under internal/adapters.
package ports

import (
	"context"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// RecordSink receives streamed run records keyed by kind ("orders",
// "fills", "equity", "events"). Implementations decide persistence.
type RecordSink interface {
	Write(kind string, record map[string]any) error
	Close() error
}

// BarSource loads the historical bars that feed a run.
type BarSource interface {
	Bars(ctx context.Context) ([]domain.Bar, error)
}
