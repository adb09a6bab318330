package simulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/broker"
	"github.com/alejandrodnm/barsim/internal/engine/clock"
	"github.com/alejandrodnm/barsim/internal/engine/execution"
	"github.com/alejandrodnm/barsim/internal/engine/portfolio"
	"github.com/alejandrodnm/barsim/internal/engine/recorder"
	"github.com/alejandrodnm/barsim/internal/strategy"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// scripted lets a test drive the strategy contract directly.
type scripted struct {
	onBar func(bar domain.Bar, state *strategy.State) ([]*domain.Order, error)
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) OnStart(universe []string, params map[string]any) error { return nil }

func (s *scripted) OnBar(bar domain.Bar, state *strategy.State) ([]*domain.Order, error) {
	if s.onBar == nil {
		return nil, nil
	}
	return s.onBar(bar, state)
}

func (s *scripted) OnEnd(state *strategy.State) error { return nil }

func mustBar(t *testing.T, i int, symbol string, o, h, l, c, v float64) domain.Bar {
	t.Helper()
	b, err := domain.NewBar(t0.Add(time.Duration(i)*time.Hour), symbol, o, h, l, c, v)
	require.NoError(t, err)
	return b
}

func closeFeed(t *testing.T, symbol string, closes ...float64) *clock.Historical {
	t.Helper()
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = mustBar(t, i, symbol, c, c, c, c, 100)
	}
	return clock.NewHistorical(bars)
}

func frictionlessBroker() *broker.Simulated {
	return broker.NewSimulated(execution.NewSimulated(execution.NoSlippage{}, execution.NoFees{}))
}

func manager(t *testing.T, cash float64) *portfolio.Manager {
	t.Helper()
	m, err := portfolio.NewManager(cash)
	require.NoError(t, err)
	return m
}

func TestRun_LimitBuyFill(t *testing.T) {
	feed := clock.NewHistorical([]domain.Bar{
		mustBar(t, 0, "BTCUSDT", 102, 103, 101, 102, 10),
		mustBar(t, 1, "BTCUSDT", 100, 101, 99, 100, 10),
	})
	strat := &scripted{onBar: func(bar domain.Bar, state *strategy.State) ([]*domain.Order, error) {
		if bar.TS.Equal(t0) {
			o, err := domain.NewOrder(state.NewOrderID(), bar.TS, "BTCUSDT", domain.SideBuy, 1, domain.OrderLimit, 100)
			return []*domain.Order{o}, err
		}
		return nil, nil
	}}

	r, err := NewRunner(strat, frictionlessBroker(), feed, manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-limit")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Trading.FillsExecuted)
	assert.Equal(t, 1, result.Trading.OrdersSubmitted)
	// the fill leaves cash 9900 and a 1 @ 100 position worth 100
	require.NotEmpty(t, result.EquityCurve)
	first := result.EquityCurve[0]
	assert.InDelta(t, 9_900.0, first.Cash, 1e-9)
	assert.InDelta(t, 10_000.0, first.Equity, 1e-9)
	// the run force-closes at the last close of 100
	assert.InDelta(t, 10_000.0, result.Portfolio.FinalEquity, 1e-9)
}

func TestRun_SmaCrossRoundTrip(t *testing.T) {
	sma, err := strategy.NewSmaCross(2, 3, 1)
	require.NoError(t, err)
	feed := closeFeed(t, "BTCUSDT", 10, 10.5, 11, 10, 9)

	r, err := NewRunner(sma, frictionlessBroker(), feed, manager(t, 1_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-sma")
	require.NoError(t, err)

	// the bullish signal on the third close fills on the next bar, the
	// bearish signal a bar later fills on the final bar
	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.InDelta(t, 10.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 9.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, -1.0, trade.PnL, 1e-9)
	assert.InDelta(t, 999.0, result.Portfolio.FinalEquity, 1e-9)
}

func TestRun_ForceCloseOnExhaustion(t *testing.T) {
	hold, err := strategy.NewBuyAndHold(1)
	require.NoError(t, err)
	feed := closeFeed(t, "BTCUSDT", 100, 100, 110)

	r, err := NewRunner(hold, frictionlessBroker(), feed, manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-close")
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.InDelta(t, 110.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 10.0, trade.PnL, 1e-9)
	assert.InDelta(t, 10_010.0, result.Portfolio.FinalEquity, 1e-9)
}

func TestRun_BuyAndHoldLaw(t *testing.T) {
	// final equity = initial - qty*entry*(1+slip) - fee + qty*last_close
	slip, err := execution.NewFixedBpsSlippage(100)
	require.NoError(t, err)
	fees, err := execution.NewPercentageFee(1)
	require.NoError(t, err)
	brk := broker.NewSimulated(execution.NewSimulated(slip, fees))

	hold, err := strategy.NewBuyAndHold(1)
	require.NoError(t, err)
	feed := closeFeed(t, "BTCUSDT", 100, 100, 110)

	r, err := NewRunner(hold, brk, feed, manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-law")
	require.NoError(t, err)

	entry := 100 * 1.01
	fee := entry * 0.01
	want := 10_000 - entry - fee + 110
	assert.InDelta(t, want, result.Portfolio.FinalEquity, 1e-9)
}

func TestRun_EmptyFeed(t *testing.T) {
	r, err := NewRunner(&scripted{}, frictionlessBroker(), clock.NewHistorical(nil), manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-empty")
	require.NoError(t, err)

	assert.Equal(t, "completed", result.Status)
	assert.Zero(t, result.BarsProcessed)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.EquityCurve, "no mark should be stamped without bars")
	assert.InDelta(t, 10_000.0, result.Portfolio.FinalEquity, 1e-9)
}

func TestRun_NoOpStrategyKeepsCash(t *testing.T) {
	feed := closeFeed(t, "BTCUSDT", 100, 105, 95, 101)
	r, err := NewRunner(&scripted{}, frictionlessBroker(), feed, manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-noop")
	require.NoError(t, err)

	assert.InDelta(t, 10_000.0, result.Portfolio.FinalCash, 1e-9)
	assert.InDelta(t, 10_000.0, result.Portfolio.FinalEquity, 1e-9)
	assert.Zero(t, result.Trading.FillsExecuted)
}

func TestRun_StrategyErrorIsFatal(t *testing.T) {
	strat := &scripted{onBar: func(bar domain.Bar, state *strategy.State) ([]*domain.Order, error) {
		return nil, errors.New("boom")
	}}
	r, err := NewRunner(strat, frictionlessBroker(), closeFeed(t, "BTCUSDT", 100), manager(t, 10_000), nil, nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-fatal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_StopBeforeFirstBar(t *testing.T) {
	r, err := NewRunner(&scripted{}, frictionlessBroker(), closeFeed(t, "BTCUSDT", 100, 101), manager(t, 10_000), nil, nil)
	require.NoError(t, err)

	r.Stop()
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-stop")
	require.NoError(t, err)
	assert.Zero(t, result.BarsProcessed)
	assert.Equal(t, "completed", result.Status)
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(&scripted{}, frictionlessBroker(), closeFeed(t, "BTCUSDT", 100, 101), manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(ctx, []string{"BTCUSDT"}, nil, "t-ctx")
	require.NoError(t, err)
	assert.Zero(t, result.BarsProcessed)
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *Result {
		sma, err := strategy.NewSmaCross(2, 3, 1)
		require.NoError(t, err)
		r, err := NewRunner(sma, frictionlessBroker(), closeFeed(t, "BTCUSDT", 10, 10.5, 11, 10, 9, 9.5, 12, 11), manager(t, 1_000), nil, nil)
		require.NoError(t, err)
		result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-det")
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	assert.Equal(t, a.EquityCurve, b.EquityCurve)
	require.Equal(t, len(a.Trades), len(b.Trades))
	for i := range a.Trades {
		assert.Equal(t, *a.Trades[i], *b.Trades[i])
	}
	assert.Equal(t, a.Trading, b.Trading)
}

func TestRun_RecorderObservesLifecycle(t *testing.T) {
	rec := recorder.NewEventRecorder(true)
	hold, err := strategy.NewBuyAndHold(1)
	require.NoError(t, err)

	r, err := NewRunner(hold, frictionlessBroker(), closeFeed(t, "BTCUSDT", 100, 100), manager(t, 10_000), rec, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), []string{"BTCUSDT"}, nil, "t-rec")
	require.NoError(t, err)

	assert.Len(t, rec.Bars(), 2)
	assert.Len(t, rec.Orders(), 1)
	assert.Len(t, rec.Fills(), 1)
	assert.NotEmpty(t, rec.EquityCurve())
	assert.Equal(t, result.RecorderSummary["orders_submitted"], 1)

	events := rec.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "backtest_start", events[0].Type)
	assert.Equal(t, "backtest_end", events[len(events)-1].Type)
}

func TestRun_GeneratedRunID(t *testing.T) {
	r, err := NewRunner(&scripted{}, frictionlessBroker(), clock.NewHistorical(nil), manager(t, 10_000), nil, nil)
	require.NoError(t, err)
	result, err := r.Run(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.Contains(t, result.RunID, "bt_")
}
