package domain

import (
	"fmt"
	"time"
)

// Bar is one OHLCV sample for a symbol at a point in time.
// Bars are immutable after construction; NewBar validates the price shape.
type Bar struct {
	TS     time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewBar builds a validated bar. Timestamps are normalized to UTC.
func NewBar(ts time.Time, symbol string, open, high, low, clos, volume float64) (Bar, error) {
	b := Bar{
		TS:     ts.UTC(),
		Symbol: symbol,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  clos,
		Volume: volume,
	}
	if err := b.validate(); err != nil {
		return Bar{}, err
	}
	return b, nil
}

func (b Bar) validate() error {
	if b.High < b.Low {
		return fmt.Errorf("domain.NewBar: high %.8g below low %.8g", b.High, b.Low)
	}
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("domain.NewBar: high %.8g below open/close", b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("domain.NewBar: low %.8g above open/close", b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("domain.NewBar: negative volume %.8g", b.Volume)
	}
	return nil
}
