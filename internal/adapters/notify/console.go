// Package notify renders run results for humans.
package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/barsim/internal/analytics"
)

// Console prints reports and comparisons to a writer.
type Console struct {
	out io.Writer
}

// NewConsole crea un printer que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un printer para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintReport prints the summary block followed by the closed trades
// table.
func (c *Console) PrintReport(report *analytics.Report) {
	fmt.Fprintln(c.out, report.SummaryText())

	if len(report.Trades) == 0 {
		fmt.Fprintln(c.out, "  No closed trades.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Side", "Entry", "Exit", "Qty", "PnL", "Ret%", "Duration")

	for i, trade := range report.Trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			trade.Symbol,
			trade.Side,
			fmt.Sprintf("%.4f", trade.EntryPrice),
			fmt.Sprintf("%.4f", trade.ExitPrice),
			fmt.Sprintf("%.4f", trade.ExitQty),
			fmt.Sprintf("%.4f", trade.PnL),
			fmt.Sprintf("%.2f", trade.ReturnPct),
			(time.Duration(trade.DurationSeconds) * time.Second).String(),
		)
	}
	table.Render()
}

// PrintComparison prints the strategy standings and the winners.
func (c *Console) PrintComparison(cmp *analytics.Comparison) {
	if cmp == nil || len(cmp.Strategies) == 0 {
		fmt.Fprintln(c.out, "  No strategies to compare.")
		return
	}

	fmt.Fprintf(c.out, "\n=== STRATEGY COMPARISON (%d strategies) ===\n", len(cmp.Strategies))

	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Return%", "Sharpe", "MaxDD%", "Win%", "Trades")

	for _, s := range cmp.Strategies {
		table.Append(
			s.Strategy,
			fmt.Sprintf("%.2f", s.TotalReturnPct),
			fmt.Sprintf("%.2f", s.SharpeRatio),
			fmt.Sprintf("%.2f", s.MaxDrawdownPct),
			fmt.Sprintf("%.2f", s.WinRatePct),
			fmt.Sprintf("%d", s.TotalTrades),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  Best return:     %s\n", cmp.BestReturn)
	fmt.Fprintf(c.out, "  Best Sharpe:     %s\n", cmp.BestSharpe)
	fmt.Fprintf(c.out, "  Lowest drawdown: %s\n\n", cmp.LowestDrawdown)
}
