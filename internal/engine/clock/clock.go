// Package clock produces bars in strict chronological order from one
// or many sources.
package clock

import (
	"fmt"
	"sort"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// Clock drives the simulation loop. Tick returns the next bar, with
// ok=false once the source is exhausted. Reset rewinds to the start.
type Clock interface {
	Tick() (bar domain.Bar, ok bool)
	Reset()
}

// Historical yields a prebuilt chronological bar sequence. It is
// deterministic and repeatable.
type Historical struct {
	bars []domain.Bar
	next int
}

// NewHistorical wraps bars already in chronological order.
func NewHistorical(bars []domain.Bar) *Historical {
	return &Historical{bars: bars}
}

func (c *Historical) Tick() (domain.Bar, bool) {
	if c.next >= len(c.bars) {
		return domain.Bar{}, false
	}
	bar := c.bars[c.next]
	c.next++
	return bar, true
}

func (c *Historical) Reset() {
	c.next = 0
}

// BarGenerator builds the bar for a scheduled timestamp.
type BarGenerator func(ts time.Time) domain.Bar

// Scheduled generates bars on a fixed interval over [start, end).
type Scheduled struct {
	start    time.Time
	end      time.Time
	interval time.Duration
	generate BarGenerator
	current  time.Time
}

// NewScheduled requires start < end and a positive interval.
func NewScheduled(start, end time.Time, interval time.Duration, generate BarGenerator) (*Scheduled, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("clock.NewScheduled: start must be before end")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("clock.NewScheduled: interval must be positive")
	}
	return &Scheduled{
		start:    start,
		end:      end,
		interval: interval,
		generate: generate,
		current:  start,
	}, nil
}

func (c *Scheduled) Tick() (domain.Bar, bool) {
	if !c.current.Before(c.end) {
		return domain.Bar{}, false
	}
	bar := c.generate(c.current)
	c.current = c.current.Add(c.interval)
	return bar, true
}

func (c *Scheduled) Reset() {
	c.current = c.start
}

// MultiSymbol interleaves per-symbol bar sequences in strict timestamp
// order. Ties break on symbol identity so identical inputs produce
// identical event sequences.
type MultiSymbol struct {
	symbols []string // sorted, fixes the tiebreak order
	bars    map[string][]domain.Bar
	cursor  map[string]int
}

// NewMultiSymbol takes per-symbol chronological bar slices.
func NewMultiSymbol(symbolBars map[string][]domain.Bar) *MultiSymbol {
	symbols := make([]string, 0, len(symbolBars))
	for symbol := range symbolBars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return &MultiSymbol{
		symbols: symbols,
		bars:    symbolBars,
		cursor:  make(map[string]int, len(symbolBars)),
	}
}

func (c *MultiSymbol) Tick() (domain.Bar, bool) {
	best := ""
	var bestBar domain.Bar

	for _, symbol := range c.symbols {
		i := c.cursor[symbol]
		if i >= len(c.bars[symbol]) {
			continue
		}
		bar := c.bars[symbol][i]
		if best == "" || bar.TS.Before(bestBar.TS) {
			best = symbol
			bestBar = bar
		}
	}

	if best == "" {
		return domain.Bar{}, false
	}
	c.cursor[best]++
	return bestBar, true
}

func (c *MultiSymbol) Reset() {
	c.cursor = make(map[string]int, len(c.bars))
}
