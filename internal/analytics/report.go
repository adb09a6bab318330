package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// Report is the full outcome document of one run.
type Report struct {
	RunID         string          `json:"run_id"`
	Strategy      string          `json:"strategy"`
	Params        map[string]any  `json:"params"`
	Dataset       map[string]any  `json:"dataset"`
	Summary       Summary         `json:"summary"`
	EquityCurve   []EquityRecord  `json:"equity_curve"`
	DrawdownCurve []DrawdownPoint `json:"drawdown_curve"`
	Trades        []TradeRecord   `json:"trades"`
}

// EquityRecord is one equity curve sample in report form.
type EquityRecord struct {
	TS             time.Time `json:"ts"`
	Equity         float64   `json:"equity"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
}

// TradeRecord is one closed trade in report form.
type TradeRecord struct {
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"`
	EntryTS         time.Time `json:"entry_ts"`
	EntryPrice      float64   `json:"entry_price"`
	EntryQty        float64   `json:"entry_qty"`
	ExitTS          time.Time `json:"exit_ts"`
	ExitPrice       float64   `json:"exit_price"`
	ExitQty         float64   `json:"exit_qty"`
	Fees            float64   `json:"fees"`
	PnL             float64   `json:"pnl"`
	ReturnPct       float64   `json:"return_pct"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Summary joins capital, equity metrics and trade metrics.
type Summary struct {
	InitialCapital float64       `json:"initial_capital"`
	FinalEquity    float64       `json:"final_equity"`
	Equity         EquityMetrics `json:"equity_metrics"`
	Trading        TradeMetrics  `json:"trade_metrics"`
}

// BuildReport assembles the report from finalized run artifacts.
func BuildReport(runID, strategyName string, params map[string]any, curve []domain.EquityPoint, trades []*domain.Trade, initialCapital float64, dataset map[string]any, riskFreeRate float64) *Report {
	finalEquity := initialCapital
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}

	return &Report{
		RunID:    runID,
		Strategy: strategyName,
		Params:   params,
		Dataset:  dataset,
		Summary: Summary{
			InitialCapital: initialCapital,
			FinalEquity:    finalEquity,
			Equity:         CalculateEquityMetrics(curve, initialCapital, riskFreeRate),
			Trading:        CalculateTradeMetrics(trades),
		},
		EquityCurve:   formatEquityCurve(curve),
		DrawdownCurve: CalculateDrawdownCurve(curve),
		Trades:        formatTrades(trades),
	}
}

func formatEquityCurve(curve []domain.EquityPoint) []EquityRecord {
	records := make([]EquityRecord, len(curve))
	for i, point := range curve {
		records[i] = EquityRecord{
			TS:             point.TS,
			Equity:         point.Equity,
			Cash:           point.Cash,
			PositionsValue: point.PositionsValue,
		}
	}
	return records
}

func formatTrades(trades []*domain.Trade) []TradeRecord {
	records := make([]TradeRecord, len(trades))
	for i, trade := range trades {
		records[i] = TradeRecord{
			Symbol:          trade.Symbol,
			Side:            string(trade.Side),
			EntryTS:         trade.EntryTS,
			EntryPrice:      trade.EntryPrice,
			EntryQty:        trade.EntryQty,
			ExitTS:          trade.ExitTS,
			ExitPrice:       trade.ExitPrice,
			ExitQty:         trade.ExitQty,
			Fees:            trade.Fees,
			PnL:             trade.PnL,
			ReturnPct:       trade.ReturnPct,
			DurationSeconds: trade.Duration().Seconds(),
		}
	}
	return records
}

// SummaryText renders the human-readable summary block.
func (r *Report) SummaryText() string {
	s := r.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "\nBacktest Report: %s\n%s\n\n", r.RunID, strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Strategy: %s\n", r.Strategy)
	fmt.Fprintf(&b, "Parameters: %v\n\n", r.Params)

	b.WriteString("Performance Summary\n-------------------\n")
	fmt.Fprintf(&b, "Initial Capital:        $%.2f\n", s.InitialCapital)
	fmt.Fprintf(&b, "Final Equity:           $%.2f\n", s.FinalEquity)
	fmt.Fprintf(&b, "Total Return:           %.2f%%\n", s.Equity.TotalReturnPct)
	fmt.Fprintf(&b, "Annualized Return:      %.2f%%\n\n", s.Equity.AnnualizedReturnPct)

	b.WriteString("Risk Metrics\n------------\n")
	fmt.Fprintf(&b, "Annualized Volatility:  %.2f%%\n", s.Equity.AnnualizedVolatility*100)
	fmt.Fprintf(&b, "Sharpe Ratio:           %.2f\n", s.Equity.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio:          %.2f\n", s.Equity.SortinoRatio)
	fmt.Fprintf(&b, "Calmar Ratio:           %.2f\n", s.Equity.CalmarRatio)
	fmt.Fprintf(&b, "Max Drawdown:           %.2f%%\n", s.Equity.MaxDrawdownPct)
	fmt.Fprintf(&b, "Max DD Duration:        %d days\n\n", s.Equity.MaxDrawdownDurationDays)

	b.WriteString("Trading Statistics\n------------------\n")
	fmt.Fprintf(&b, "Total Trades:           %d\n", s.Trading.TotalTrades)
	fmt.Fprintf(&b, "Winning Trades:         %d\n", s.Trading.WinningTrades)
	fmt.Fprintf(&b, "Losing Trades:          %d\n", s.Trading.LosingTrades)
	fmt.Fprintf(&b, "Win Rate:               %.2f%%\n", s.Trading.WinRatePct)
	fmt.Fprintf(&b, "Avg Win:                $%.2f\n", s.Trading.AvgWin)
	fmt.Fprintf(&b, "Avg Loss:               $%.2f\n", s.Trading.AvgLoss)
	fmt.Fprintf(&b, "Profit Factor:          %.2f\n", s.Trading.ProfitFactor)
	fmt.Fprintf(&b, "Avg Trade P&L:          $%.2f\n\n", s.Trading.AvgTradePnL)

	if !s.Equity.StartDate.IsZero() {
		fmt.Fprintf(&b, "Period: %s to %s\n", s.Equity.StartDate.Format("2006-01-02"), s.Equity.EndDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "Duration: %d days (%.2f years)\n", s.Equity.Days, s.Equity.Years)
	}
	return b.String()
}

// Standing is one strategy's row in a comparison.
type Standing struct {
	Strategy       string         `json:"strategy"`
	Params         map[string]any `json:"params"`
	TotalReturnPct float64        `json:"total_return_pct"`
	SharpeRatio    float64        `json:"sharpe_ratio"`
	MaxDrawdownPct float64        `json:"max_drawdown_pct"`
	WinRatePct     float64        `json:"win_rate_pct"`
	TotalTrades    int            `json:"total_trades"`
}

// Comparison ranks strategies across reports.
type Comparison struct {
	Strategies     []Standing `json:"strategies"`
	BestReturn     string     `json:"best_return"`
	BestSharpe     string     `json:"best_sharpe"`
	LowestDrawdown string     `json:"lowest_drawdown"`
}

// CompareStrategies picks the best strategy by total return, Sharpe
// and least negative drawdown. Nil for an empty input.
func CompareStrategies(reports []*Report) *Comparison {
	if len(reports) == 0 {
		return nil
	}

	c := &Comparison{Strategies: make([]Standing, 0, len(reports))}
	for _, report := range reports {
		c.Strategies = append(c.Strategies, Standing{
			Strategy:       report.Strategy,
			Params:         report.Params,
			TotalReturnPct: report.Summary.Equity.TotalReturnPct,
			SharpeRatio:    report.Summary.Equity.SharpeRatio,
			MaxDrawdownPct: report.Summary.Equity.MaxDrawdownPct,
			WinRatePct:     report.Summary.Trading.WinRatePct,
			TotalTrades:    report.Summary.Trading.TotalTrades,
		})
	}

	best := func(better func(a, b Standing) bool) string {
		winner := c.Strategies[0]
		for _, s := range c.Strategies[1:] {
			if better(s, winner) {
				winner = s
			}
		}
		return winner.Strategy
	}

	c.BestReturn = best(func(a, b Standing) bool { return a.TotalReturnPct > b.TotalReturnPct })
	c.BestSharpe = best(func(a, b Standing) bool { return a.SharpeRatio > b.SharpeRatio })
	c.LowestDrawdown = best(func(a, b Standing) bool { return a.MaxDrawdownPct > b.MaxDrawdownPct })
	return c
}
