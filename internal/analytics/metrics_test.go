package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/barsim/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func dailyCurve(equities ...float64) []domain.EquityPoint {
	curve := make([]domain.EquityPoint, len(equities))
	for i, e := range equities {
		curve[i] = domain.EquityPoint{TS: t0.AddDate(0, 0, i), Equity: e, Cash: e}
	}
	return curve
}

func closedTrade(pnl float64, duration time.Duration) *domain.Trade {
	return &domain.Trade{
		Symbol:   "BTCUSDT",
		Side:     domain.SideBuy,
		EntryTS:  t0,
		ExitTS:   t0.Add(duration),
		EntryQty: 1,
		PnL:      pnl,
	}
}

func TestEquityMetrics_TooShort(t *testing.T) {
	assert.Equal(t, EquityMetrics{}, CalculateEquityMetrics(nil, 10_000, 0.02))
	assert.Equal(t, EquityMetrics{}, CalculateEquityMetrics(dailyCurve(100), 10_000, 0.02))
}

func TestEquityMetrics_TotalAndAnnualizedReturn(t *testing.T) {
	curve := []domain.EquityPoint{
		{TS: t0, Equity: 100},
		{TS: t0.AddDate(1, 0, 0), Equity: 110},
	}
	m := CalculateEquityMetrics(curve, 100, 0)

	assert.InDelta(t, 0.10, m.TotalReturn, 1e-9)
	assert.InDelta(t, 10.0, m.TotalReturnPct, 1e-9)
	assert.Equal(t, 365, m.Days)
	// slightly under a year, so annualized lands just above 10%
	assert.InDelta(t, math.Pow(1.1, 365.25/365)-1, m.AnnualizedReturn, 1e-9)
}

func TestEquityMetrics_ZeroYears(t *testing.T) {
	curve := []domain.EquityPoint{
		{TS: t0, Equity: 100},
		{TS: t0.Add(time.Hour), Equity: 110},
	}
	m := CalculateEquityMetrics(curve, 100, 0)
	assert.Zero(t, m.AnnualizedReturn, "sub-day span does not annualize")
}

func TestEquityMetrics_Volatility(t *testing.T) {
	// returns: +10%, -10%, +10%; population stddev 0.09428
	m := CalculateEquityMetrics(dailyCurve(100, 110, 99, 108.9), 100, 0)

	wantStd := math.Sqrt((2*math.Pow(0.1-1.0/30, 2) + math.Pow(-0.1-1.0/30, 2)) / 3)
	assert.InDelta(t, wantStd*math.Sqrt(252), m.AnnualizedVolatility, 1e-9)
	assert.InDelta(t, (m.AnnualizedReturn-0)/m.AnnualizedVolatility, m.SharpeRatio, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
}

func TestEquityMetrics_FlatCurveHasNoVol(t *testing.T) {
	m := CalculateEquityMetrics(dailyCurve(100, 100, 100), 100, 0.02)

	assert.Zero(t, m.AnnualizedVolatility)
	assert.Zero(t, m.SharpeRatio, "zero vol forces Sharpe to zero")
	assert.Zero(t, m.SortinoRatio, "no downside, Sharpe substituted")
	assert.Zero(t, m.WinRate)
}

func TestEquityMetrics_Sortino(t *testing.T) {
	m := CalculateEquityMetrics(dailyCurve(100, 110, 99, 108.9), 100, 0)

	downsideVol := 0.1 * math.Sqrt(252)
	assert.InDelta(t, m.AnnualizedReturn/downsideVol, m.SortinoRatio, 1e-9)
}

func TestEquityMetrics_Drawdown(t *testing.T) {
	m := CalculateEquityMetrics(dailyCurve(100, 120, 90, 150, 100), 100, 0)

	assert.InDelta(t, -0.25, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, -25.0, m.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, m.AnnualizedReturn/0.25, m.CalmarRatio, 1e-9)
}

func TestEquityMetrics_DrawdownDuration(t *testing.T) {
	m := CalculateEquityMetrics(dailyCurve(100, 90, 80, 85, 110), 100, 0)
	assert.Equal(t, 3, m.MaxDrawdownDurationDays, "days one through four stay under the peak")
}

func TestEquityMetrics_SkipsZeroPriorEquity(t *testing.T) {
	m := CalculateEquityMetrics(dailyCurve(100, 0, 50, 55), 100, 0)
	// the 0 -> 50 step is skipped, leaving returns of -100% and +10%
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
}

func TestTradeMetrics_Empty(t *testing.T) {
	assert.Equal(t, TradeMetrics{}, CalculateTradeMetrics(nil))
}

func TestTradeMetrics(t *testing.T) {
	trades := []*domain.Trade{
		closedTrade(10, 2*time.Hour),
		closedTrade(30, 4*time.Hour),
		closedTrade(-20, 2*time.Hour),
		closedTrade(0, 4*time.Hour),
	}
	m := CalculateTradeMetrics(trades)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, 1, m.BreakevenTrades)
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
	assert.InDelta(t, 20.0, m.AvgWin, 1e-9)
	assert.InDelta(t, -20.0, m.AvgLoss, 1e-9)
	assert.InDelta(t, 30.0, m.LargestWin, 1e-9)
	assert.InDelta(t, -20.0, m.LargestLoss, 1e-9)
	assert.InDelta(t, 40.0, m.GrossProfit, 1e-9)
	assert.InDelta(t, 20.0, m.GrossLoss, 1e-9)
	assert.InDelta(t, 2.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 20.0, m.TotalPnL, 1e-9)
	assert.InDelta(t, 5.0, m.AvgTradePnL, 1e-9)
	assert.InDelta(t, 3.0, m.AvgTradeDurationHours, 1e-9)
}

func TestTradeMetrics_NoLossesMeansZeroProfitFactor(t *testing.T) {
	m := CalculateTradeMetrics([]*domain.Trade{closedTrade(10, time.Hour)})
	assert.Zero(t, m.ProfitFactor)
}

func TestDrawdownCurve(t *testing.T) {
	curve := CalculateDrawdownCurve(dailyCurve(100, 120, 90, 150))
	require.Len(t, curve, 4)

	assert.Zero(t, curve[0].Drawdown)
	assert.Zero(t, curve[1].Drawdown)
	assert.InDelta(t, -0.25, curve[2].Drawdown, 1e-9)
	assert.InDelta(t, -25.0, curve[2].DrawdownPct, 1e-9)
	assert.Zero(t, curve[3].Drawdown)
}

func TestDrawdownCurve_Empty(t *testing.T) {
	assert.Nil(t, CalculateDrawdownCurve(nil))
}
