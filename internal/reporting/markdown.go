// Package reporting renders simulation results for humans: a Markdown
// summary and a CSV trade ledger.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"kol-sniper-dashboard/internal/domain"
)

// RenderMarkdown renders a simulation result as a Markdown string.
func RenderMarkdown(r *domain.SimulationResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Copytrade Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Simulation: `%s`\n\n", r.SimulationID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339)))

	// Config
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallets | %s |\n", strings.Join(r.Config.Wallets, ", ")))
	sb.WriteString(fmt.Sprintf("| Window | %s to %s |\n",
		formatDay(r.Config.StartTime), formatDay(r.Config.EndTime)))
	sb.WriteString(fmt.Sprintf("| Initial Capital (SOL) | %.4f |\n", r.Config.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Max Position Size | %.2f%% |\n", r.Config.MaxPositionSizePct))
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", r.Config.Strategy))
	if r.Config.StopLossPct != nil {
		sb.WriteString(fmt.Sprintf("| Stop Loss | %.2f%% |\n", *r.Config.StopLossPct))
	}
	if r.Config.TakeProfitPct != nil {
		sb.WriteString(fmt.Sprintf("| Take Profit | %.2f%% |\n", *r.Config.TakeProfitPct))
	}
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winning / Losing | %d / %d |\n", r.WinningTrades, r.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.WinRate))
	sb.WriteString(fmt.Sprintf("| Total P&L | %.2f%% (%.4f SOL) |\n", r.TotalPnlPercent, r.TotalPnlSOL))
	sb.WriteString(fmt.Sprintf("| Final Capital (SOL) | %.4f |\n", r.FinalCapital))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", r.SharpeRatio))
	sb.WriteString("\n")

	// Best and worst trades
	if r.BestTrade != nil {
		sb.WriteString("## Extremes\n\n")
		sb.WriteString(fmt.Sprintf("Best trade: %s on %s, %.2f%% (%.4f SOL)\n\n",
			r.BestTrade.KOLName, r.BestTrade.TokenSymbol, r.BestTrade.PnlPercent, r.BestTrade.PnlSOL))
		sb.WriteString(fmt.Sprintf("Worst trade: %s on %s, %.2f%% (%.4f SOL)\n\n",
			r.WorstTrade.KOLName, r.WorstTrade.TokenSymbol, r.WorstTrade.PnlPercent, r.WorstTrade.PnlSOL))
	}

	// Per-KOL breakdown
	sb.WriteString("## KOL Performance\n\n")
	if len(r.KOLPerformance) > 0 {
		sb.WriteString("| KOL | Trades | WinRate | AvgPnl% | TotalPnl SOL |\n")
		sb.WriteString("|-----|--------|---------|---------|-------------|\n")
		for _, perf := range r.KOLPerformance {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.4f |\n",
				perf.KOLName, perf.Trades, perf.WinRate, perf.AvgPnlPercent, perf.TotalPnlSOL))
		}
	} else {
		sb.WriteString("No KOL performance data available.\n")
	}
	sb.WriteString("\n")

	// Equity curve
	sb.WriteString("## Daily Equity\n\n")
	if len(r.DailyEquity) > 0 {
		sb.WriteString("| Date | Capital | P&L |\n")
		sb.WriteString("|------|---------|-----|\n")
		for _, point := range r.DailyEquity {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f |\n", point.Date, point.Capital, point.Pnl))
		}
	} else {
		sb.WriteString("No equity data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatDay(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}
