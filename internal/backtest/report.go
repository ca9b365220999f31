package backtest

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport prints a human-readable summary of r.
func WriteReport(w io.Writer, r *Result) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  BACKTEST: %s\n", r.Symbol)
	fmt.Fprintf(w, "  Strategy: %s\n", r.Strategy)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  Period:           %s to %s (%d bars)\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.Bars)
	fmt.Fprintf(w, "  Initial Capital:  $%.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "  Final Capital:    $%.2f\n", r.FinalCapital)
	fmt.Fprintf(w, "  Total Return:     $%.2f (%+.2f%%)\n", r.Stats.TotalReturn, r.Stats.TotalReturnPct)
	fmt.Fprintf(w, "  Max Drawdown:     $%.2f (%.2f%%)\n", r.Stats.MaxDrawdown, r.Stats.MaxDrawdownPct)
	fmt.Fprintf(w, "  Sharpe Ratio:     %.2f\n", r.Stats.SharpeRatio)
	fmt.Fprintf(w, "  Trades:           %d (%d closed)\n", r.Stats.TotalTrades, r.Stats.ClosingTrades)
	fmt.Fprintf(w, "  Win Rate:         %.1f%%\n", r.Stats.WinRate)
	fmt.Fprintln(w)

	if len(r.Trades) > 0 {
		fmt.Fprintln(w, "  TRADES")
		for _, t := range r.Trades {
			pnl := ""
			if t.Action.IsClosing() {
				pnl = fmt.Sprintf("  P&L: %+.2f", t.PnL)
			}
			fmt.Fprintf(w, "  %s  %-10s %4d @ $%.2f%s\n",
				t.Date.Format("2006-01-02"), t.Action, t.Quantity, t.Price, pnl)
		}
		fmt.Fprintln(w)
	}

	WriteEquityCurve(w, r.EquityCurve, 50, 10)
}

// WriteEquityCurve draws the equity curve as an ASCII column chart.
func WriteEquityCurve(w io.Writer, curve []EquityPoint, width, height int) {
	if len(curve) == 0 || width <= 0 || height <= 0 {
		return
	}

	minV, maxV := curve[0].Equity, curve[0].Equity
	for _, p := range curve {
		minV = min(minV, p.Equity)
		maxV = max(maxV, p.Equity)
	}
	span := maxV - minV
	if span == 0 {
		span = 1
	}

	step := max(1, len(curve)/width)
	var sampled []float64
	for i := 0; i < len(curve) && len(sampled) < width; i += step {
		sampled = append(sampled, curve[i].Equity)
	}

	fmt.Fprintln(w, "  EQUITY CURVE")
	for row := height; row >= 0; row-- {
		threshold := float64(row) / float64(height)
		label := ""
		switch row {
		case height:
			label = fmt.Sprintf("$%.0f", maxV)
		case 0:
			label = fmt.Sprintf("$%.0f", minV)
		}

		var b strings.Builder
		for _, v := range sampled {
			if (v-minV)/span >= threshold {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		fmt.Fprintf(w, "  %10s |%s\n", label, b.String())
	}
	fmt.Fprintf(w, "  %10s +%s\n\n", "", strings.Repeat("-", len(sampled)))
}
