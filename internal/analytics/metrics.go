// Package analytics computes performance metrics and assembles reports
// from finalized equity curves and trades.
package analytics

import (
	"math"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

const tradingDaysPerYear = 252

// EquityMetrics are the risk/return figures derived from an equity
// curve.
type EquityMetrics struct {
	TotalReturn             float64   `json:"total_return"`
	TotalReturnPct          float64   `json:"total_return_pct"`
	AnnualizedReturn        float64   `json:"annualized_return"`
	AnnualizedReturnPct     float64   `json:"annualized_return_pct"`
	AnnualizedVolatility    float64   `json:"annualized_volatility"`
	SharpeRatio             float64   `json:"sharpe_ratio"`
	SortinoRatio            float64   `json:"sortino_ratio"`
	CalmarRatio             float64   `json:"calmar_ratio"`
	MaxDrawdown             float64   `json:"max_drawdown"`
	MaxDrawdownPct          float64   `json:"max_drawdown_pct"`
	MaxDrawdownDurationDays int       `json:"max_drawdown_duration_days"`
	WinRate                 float64   `json:"win_rate"`
	WinRatePct              float64   `json:"win_rate_pct"`
	StartDate               time.Time `json:"start_date"`
	EndDate                 time.Time `json:"end_date"`
	Days                    int       `json:"days"`
	Years                   float64   `json:"years"`
}

// TradeMetrics are the statistics over closed trades.
type TradeMetrics struct {
	TotalTrades           int     `json:"total_trades"`
	WinningTrades         int     `json:"winning_trades"`
	LosingTrades          int     `json:"losing_trades"`
	BreakevenTrades       int     `json:"breakeven_trades"`
	WinRate               float64 `json:"win_rate"`
	WinRatePct            float64 `json:"win_rate_pct"`
	AvgWin                float64 `json:"avg_win"`
	AvgLoss               float64 `json:"avg_loss"`
	LargestWin            float64 `json:"largest_win"`
	LargestLoss           float64 `json:"largest_loss"`
	ProfitFactor          float64 `json:"profit_factor"`
	AvgTradePnL           float64 `json:"avg_trade_pnl"`
	AvgTradeDurationHours float64 `json:"avg_trade_duration_hours"`
	TotalPnL              float64 `json:"total_pnl"`
	GrossProfit           float64 `json:"gross_profit"`
	GrossLoss             float64 `json:"gross_loss"`
}

// DrawdownPoint is one sample of the drawdown curve.
type DrawdownPoint struct {
	TS          time.Time `json:"ts"`
	Drawdown    float64   `json:"drawdown"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// CalculateEquityMetrics derives risk/return metrics from the equity
// curve. Fewer than two points yields zero metrics. Volatility
// annualizes per-step returns by √252 regardless of actual spacing.
func CalculateEquityMetrics(curve []domain.EquityPoint, initialCapital, riskFreeRate float64) EquityMetrics {
	if len(curve) < 2 {
		return EquityMetrics{}
	}

	equities := make([]float64, len(curve))
	stamps := make([]time.Time, len(curve))
	for i, point := range curve {
		equities[i] = point.Equity
		stamps[i] = point.TS
	}

	returns := stepReturns(equities)

	startDate := stamps[0]
	endDate := stamps[len(stamps)-1]
	days := int(endDate.Sub(startDate).Hours() / 24)
	years := float64(days) / 365.25

	totalReturn := (equities[len(equities)-1] - initialCapital) / initialCapital

	annualizedReturn := 0.0
	if years > 0 {
		annualizedReturn = math.Pow(1+totalReturn, 1/years) - 1
	}

	annualizedVol := 0.0
	if len(returns) > 1 {
		annualizedVol = populationStdDev(returns) * math.Sqrt(tradingDaysPerYear)
	}

	sharpe := 0.0
	if annualizedVol > 0 {
		sharpe = (annualizedReturn - riskFreeRate) / annualizedVol
	}

	sortino := sharpe
	if downside := downsideReturns(returns); len(downside) > 0 {
		sumSq := 0.0
		for _, r := range downside {
			sumSq += r * r
		}
		downsideVol := math.Sqrt(sumSq/float64(len(downside))) * math.Sqrt(tradingDaysPerYear)
		if downsideVol > 0 {
			sortino = (annualizedReturn - riskFreeRate) / downsideVol
		} else {
			sortino = 0
		}
	}

	maxDD, maxDDDuration := drawdown(equities, stamps)

	calmar := 0.0
	if maxDD < 0 {
		calmar = annualizedReturn / math.Abs(maxDD)
	}

	winRate := 0.0
	if len(returns) > 0 {
		wins := 0
		for _, r := range returns {
			if r > 0 {
				wins++
			}
		}
		winRate = float64(wins) / float64(len(returns))
	}

	return EquityMetrics{
		TotalReturn:             totalReturn,
		TotalReturnPct:          totalReturn * 100,
		AnnualizedReturn:        annualizedReturn,
		AnnualizedReturnPct:     annualizedReturn * 100,
		AnnualizedVolatility:    annualizedVol,
		SharpeRatio:             sharpe,
		SortinoRatio:            sortino,
		CalmarRatio:             calmar,
		MaxDrawdown:             maxDD,
		MaxDrawdownPct:          maxDD * 100,
		MaxDrawdownDurationDays: maxDDDuration,
		WinRate:                 winRate,
		WinRatePct:              winRate * 100,
		StartDate:               startDate,
		EndDate:                 endDate,
		Days:                    days,
		Years:                   years,
	}
}

// CalculateTradeMetrics derives statistics from closed trades.
func CalculateTradeMetrics(trades []*domain.Trade) TradeMetrics {
	if len(trades) == 0 {
		return TradeMetrics{}
	}

	var m TradeMetrics
	m.TotalTrades = len(trades)

	var grossProfit, grossLoss, totalPnL, totalDuration float64
	for _, trade := range trades {
		totalPnL += trade.PnL
		totalDuration += trade.Duration().Seconds()

		switch {
		case trade.PnL > 0:
			m.WinningTrades++
			grossProfit += trade.PnL
			if trade.PnL > m.LargestWin {
				m.LargestWin = trade.PnL
			}
		case trade.PnL < 0:
			m.LosingTrades++
			grossLoss += trade.PnL
			if trade.PnL < m.LargestLoss {
				m.LargestLoss = trade.PnL
			}
		default:
			m.BreakevenTrades++
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	m.WinRatePct = m.WinRate * 100
	m.TotalPnL = totalPnL
	m.AvgTradePnL = totalPnL / float64(m.TotalTrades)
	m.GrossProfit = grossProfit
	m.GrossLoss = math.Abs(grossLoss)

	if m.WinningTrades > 0 {
		m.AvgWin = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	if m.GrossLoss > 0 {
		m.ProfitFactor = grossProfit / m.GrossLoss
	}
	m.AvgTradeDurationHours = totalDuration / float64(m.TotalTrades) / 3600

	return m
}

// CalculateDrawdownCurve samples the drawdown at every equity point.
func CalculateDrawdownCurve(curve []domain.EquityPoint) []DrawdownPoint {
	if len(curve) == 0 {
		return nil
	}

	maxEquity := curve[0].Equity
	out := make([]DrawdownPoint, 0, len(curve))
	for _, point := range curve {
		if point.Equity > maxEquity {
			maxEquity = point.Equity
		}
		dd := 0.0
		if maxEquity > 0 {
			dd = (point.Equity - maxEquity) / maxEquity
		}
		out = append(out, DrawdownPoint{TS: point.TS, Drawdown: dd, DrawdownPct: dd * 100})
	}
	return out
}

// stepReturns computes per-step returns, skipping steps whose prior
// equity is zero.
func stepReturns(equities []float64) []float64 {
	if len(equities) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equities)-1)
	for i := 1; i < len(equities); i++ {
		if equities[i-1] != 0 {
			returns = append(returns, (equities[i]-equities[i-1])/equities[i-1])
		}
	}
	return returns
}

func populationStdDev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func downsideReturns(returns []float64) []float64 {
	var out []float64
	for _, r := range returns {
		if r < 0 {
			out = append(out, r)
		}
	}
	return out
}

// drawdown scans equity values against a running maximum and returns
// the deepest drawdown (≤ 0) and the longest in-drawdown stretch in
// days.
func drawdown(equities []float64, stamps []time.Time) (float64, int) {
	if len(equities) == 0 {
		return 0, 0
	}

	maxEquity := equities[0]
	maxDD := 0.0
	maxDuration := 0
	var ddStart time.Time

	for i, equity := range equities {
		if equity > maxEquity {
			maxEquity = equity
			ddStart = time.Time{}
			continue
		}

		dd := (equity - maxEquity) / maxEquity
		if dd < maxDD {
			maxDD = dd
		}

		if ddStart.IsZero() {
			ddStart = stamps[i]
		} else if days := int(stamps[i].Sub(ddStart).Hours() / 24); days > maxDuration {
			maxDuration = days
		}
	}

	return maxDD, maxDuration
}
