// Package simulator orchestrates a backtest run: it drives the clock,
// routes bars through broker, portfolio, recorder and strategy, and
// assembles the result.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/broker"
	"github.com/alejandrodnm/barsim/internal/engine/clock"
	"github.com/alejandrodnm/barsim/internal/engine/portfolio"
	"github.com/alejandrodnm/barsim/internal/engine/recorder"
	"github.com/alejandrodnm/barsim/internal/strategy"
)

// markEvery is the periodic mark-to-market cadence in bars.
const markEvery = 100

// Runner executes one backtest. Each run owns its broker, portfolio
// manager, recorder and strategy instance; nothing is shared between
// runs.
type Runner struct {
	strategy strategy.Strategy
	broker   broker.Broker
	feed     clock.Clock
	manager  *portfolio.Manager
	recorder recorder.Recorder
	logger   *slog.Logger

	universe []string
	runID    string
	running  atomic.Bool
	stopped  atomic.Bool
}

// Result is the outcome of a completed run.
type Result struct {
	RunID           string
	Status          string
	Strategy        string
	Universe        []string
	BarsProcessed   int
	Portfolio       PortfolioSummary
	Trading         TradingSummary
	EquityCurve     []domain.EquityPoint
	Trades          []*domain.Trade
	RecorderSummary map[string]any
}

// PortfolioSummary captures the final portfolio state.
type PortfolioSummary struct {
	InitialCash    float64
	FinalEquity    float64
	FinalCash      float64
	TotalPnL       float64
	TotalReturnPct float64
}

// TradingSummary captures activity counters.
type TradingSummary struct {
	OrdersSubmitted int
	FillsExecuted   int
	TradesCompleted int
}

// NewRunner wires a run. manager and rec may be nil: the defaults are
// a 10,000 cash portfolio and an EventRecorder without bar recording.
func NewRunner(strat strategy.Strategy, brk broker.Broker, feed clock.Clock, manager *portfolio.Manager, rec recorder.Recorder, logger *slog.Logger) (*Runner, error) {
	if strat == nil || brk == nil || feed == nil {
		return nil, fmt.Errorf("simulator.NewRunner: strategy, broker and feed are required")
	}
	if manager == nil {
		var err error
		manager, err = portfolio.NewManager(10_000)
		if err != nil {
			return nil, fmt.Errorf("simulator.NewRunner: %w", err)
		}
	}
	if rec == nil {
		rec = recorder.NewEventRecorder(false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		strategy: strat,
		broker:   brk,
		feed:     feed,
		manager:  manager,
		recorder: rec,
		logger:   logger,
	}, nil
}

// Run executes the backtest over the full feed. The context and the
// Stop flag are consulted between bars; in-flight per-bar work always
// completes. A strategy OnBar error aborts the run.
func (r *Runner) Run(ctx context.Context, universe []string, params map[string]any, runID string) (*Result, error) {
	r.universe = append([]string(nil), universe...)
	if runID == "" {
		runID = "bt_" + time.Now().UTC().Format("20060102_150405")
	}
	r.runID = runID

	r.logger.Info("starting backtest", "run_id", r.runID, "strategy", r.strategy.Name(), "universe", r.universe)

	initialCash := r.manager.Cash()
	r.recorder.OnStart(map[string]any{
		"run_id":       r.runID,
		"strategy":     r.strategy.Name(),
		"params":       params,
		"universe":     r.universe,
		"initial_cash": initialCash,
	})

	if err := r.strategy.OnStart(r.universe, params); err != nil {
		return nil, fmt.Errorf("simulator.Run: strategy init: %w", err)
	}

	r.running.Store(true)
	defer r.running.Store(false)

	state := &strategy.State{
		Portfolio:     r.manager.Portfolio(),
		CurrentPrices: make(map[string]float64),
		NewOrderID:    orderIDGenerator(),
	}

	barCount := 0
	var lastTS time.Time
	var orders, fills int

	for {
		if r.stopped.Load() {
			r.logger.Info("stop requested, ending run", "bars_processed", barCount)
			break
		}
		if err := ctx.Err(); err != nil {
			r.logger.Info("context done, ending run", "bars_processed", barCount)
			break
		}

		bar, ok := r.feed.Tick()
		if !ok {
			break
		}

		barCount++
		lastTS = bar.TS
		state.CurrentPrices[bar.Symbol] = bar.Close

		r.recorder.OnBar(bar)

		for _, fill := range r.broker.ProcessBar(bar) {
			fills++
			r.recorder.OnFill(fill)
			r.manager.ApplyFill(fill, state.CurrentPrices)
			if point, ok := r.manager.LastEquityPoint(); ok {
				r.recorder.OnEquityUpdate(point)
			}
			r.logger.Debug("fill", "side", fill.Side, "qty", fill.Qty, "symbol", fill.Symbol, "price", fill.Price)
		}

		newOrders, err := r.strategy.OnBar(bar, state)
		if err != nil {
			return nil, fmt.Errorf("simulator.Run: strategy on_bar at %s: %w", bar.TS.Format(time.RFC3339), err)
		}

		for _, order := range newOrders {
			if r.broker.Submit(order) {
				orders++
				r.recorder.OnOrder(order)
				r.logger.Debug("order", "id", order.ID, "side", order.Side, "qty", order.Qty, "symbol", order.Symbol)
			} else {
				r.logger.Warn("order rejected", "id", order.ID, "symbol", order.Symbol)
			}
		}

		if barCount%markEvery == 0 {
			r.manager.MarkToMarket(bar.TS, state.CurrentPrices)
			if point, ok := r.manager.LastEquityPoint(); ok {
				r.recorder.OnEquityUpdate(point)
			}
		}
	}

	r.logger.Info("feed processed", "bars", barCount)
	return r.finalize(state, barCount, lastTS, initialCash, orders, fills), nil
}

func (r *Runner) finalize(state *strategy.State, barCount int, lastTS time.Time, initialCash float64, orders, fills int) *Result {
	// No bars means no valid lastTS to stamp a final mark with.
	if barCount > 0 {
		if len(r.manager.OpenTrades()) > 0 {
			r.logger.Info("closing remaining positions")
			r.manager.CloseAll(lastTS, state.CurrentPrices)
		}
		r.manager.MarkToMarket(lastTS, state.CurrentPrices)
		if point, ok := r.manager.LastEquityPoint(); ok {
			r.recorder.OnEquityUpdate(point)
		}
	}

	if err := r.strategy.OnEnd(state); err != nil {
		r.logger.Warn("strategy on_end failed", "error", err)
	}

	r.recorder.OnEnd(map[string]any{
		"equity":    r.manager.Equity(),
		"cash":      r.manager.Cash(),
		"total_pnl": r.manager.TotalPnL(),
		"trades":    len(r.manager.Trades()),
	})

	finalEquity := r.manager.Equity()
	returnPct := 0.0
	if initialCash != 0 {
		returnPct = (finalEquity - initialCash) / initialCash * 100
	}

	result := &Result{
		RunID:         r.runID,
		Status:        "completed",
		Strategy:      r.strategy.Name(),
		Universe:      r.universe,
		BarsProcessed: barCount,
		Portfolio: PortfolioSummary{
			InitialCash:    initialCash,
			FinalEquity:    finalEquity,
			FinalCash:      r.manager.Cash(),
			TotalPnL:       r.manager.TotalPnL(),
			TotalReturnPct: returnPct,
		},
		Trading: TradingSummary{
			OrdersSubmitted: orders,
			FillsExecuted:   fills,
			TradesCompleted: len(r.manager.Trades()),
		},
		EquityCurve:     r.manager.EquityCurve(),
		Trades:          r.manager.Trades(),
		RecorderSummary: r.recorder.Summary(),
	}

	r.logger.Info("backtest complete",
		"run_id", r.runID,
		"final_equity", fmt.Sprintf("%.2f", finalEquity),
		"return_pct", fmt.Sprintf("%.2f", returnPct),
	)
	return result
}

// IsRunning reports whether the loop is active.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Stop requests a graceful end; the current bar finishes first.
func (r *Runner) Stop() {
	r.logger.Info("stop requested")
	r.stopped.Store(true)
}

// orderIDGenerator yields deterministic monotonic ids scoped to one
// run.
func orderIDGenerator() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ord-%06d", n)
	}
}
