package simulator

import (
	"time"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/scoring"
)

const dayMs = 24 * 60 * 60 * 1000

// buildResult derives the full result from the trade ledger and the
// capital series. Everything here is a pure function of its inputs.
func buildResult(cfg *domain.SimulationConfig, trades []*domain.SimulatedTrade, finalCapital float64, capitalHistory []float64) *domain.SimulationResult {
	result := &domain.SimulationResult{
		Config:       *cfg,
		TotalTrades:  len(trades),
		FinalCapital: finalCapital,
		Trades:       trades,
	}

	var totalPnlSOL float64
	for _, trade := range trades {
		totalPnlSOL += trade.PnlSOL
		switch {
		case trade.PnlPercent > 0:
			result.WinningTrades++
		case trade.PnlPercent < 0:
			result.LosingTrades++
		}
	}
	result.TotalPnlSOL = totalPnlSOL
	result.TotalPnlPercent = (finalCapital - cfg.InitialCapital) / cfg.InitialCapital * 100
	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades) * 100
	}

	result.MaxDrawdown = maxDrawdown(cfg.InitialCapital, capitalHistory)
	result.DailyEquity = dailyEquity(cfg, trades)
	result.SharpeRatio = sharpeRatio(cfg.InitialCapital, result.DailyEquity)
	result.BestTrade, result.WorstTrade = extremes(trades)
	result.KOLPerformance = kolBreakdown(cfg.Wallets, trades)

	return result
}

// maxDrawdown is the largest peak-to-trough fractional decline over the
// capital series, starting the peak at initial capital. Always in [0, 1).
func maxDrawdown(initialCapital float64, capitalHistory []float64) float64 {
	peak := initialCapital
	var worst float64
	for _, capital := range capitalHistory {
		if capital > peak {
			peak = capital
		}
		if dd := (peak - capital) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// dailyEquity samples the equity curve once per day over the simulated
// window. A trade contributes to a day when the day falls inside its
// open interval, so equity reflects positions as they resolve rather
// than a single end-of-run jump.
func dailyEquity(cfg *domain.SimulationConfig, trades []*domain.SimulatedTrade) []domain.EquityPoint {
	days := int((cfg.EndTime - cfg.StartTime + dayMs - 1) / dayMs)

	points := make([]domain.EquityPoint, 0, days+1)
	for i := 0; i <= days; i++ {
		dayTs := cfg.StartTime + int64(i)*dayMs

		var pnl float64
		for _, trade := range trades {
			if trade.BuyTime <= dayTs && trade.SellTime >= dayTs {
				pnl += trade.PnlSOL
			}
		}

		points = append(points, domain.EquityPoint{
			Date:    time.UnixMilli(dayTs).UTC().Format("2006-01-02"),
			Capital: cfg.InitialCapital + pnl,
			Pnl:     pnl,
		})
	}
	return points
}

// sharpeRatio is the simplified daily-return Sharpe: mean over population
// stddev of per-day returns, 0 when the variance is 0.
func sharpeRatio(initialCapital float64, equity []domain.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}
	returns := make([]float64, len(equity))
	for i, point := range equity {
		returns[i] = point.Pnl / initialCapital
	}
	stddev := scoring.Stddev(returns)
	if stddev == 0 {
		return 0
	}
	return scoring.Mean(returns) / stddev
}

// extremes returns the best and worst trades by P&L percent, nil when the
// ledger is empty.
func extremes(trades []*domain.SimulatedTrade) (best, worst *domain.SimulatedTrade) {
	for _, trade := range trades {
		if best == nil || trade.PnlPercent > best.PnlPercent {
			best = trade
		}
		if worst == nil || trade.PnlPercent < worst.PnlPercent {
			worst = trade
		}
	}
	return best, worst
}

// kolBreakdown computes per-wallet metrics in config order. Wallets with
// no trades get an all-zero row.
func kolBreakdown(wallets []string, trades []*domain.SimulatedTrade) []domain.KOLPerformance {
	breakdown := make([]domain.KOLPerformance, 0, len(wallets))
	for _, name := range wallets {
		perf := domain.KOLPerformance{KOLName: name}

		var wins int
		var pnlPercentSum float64
		for _, trade := range trades {
			if trade.KOLName != name {
				continue
			}
			perf.Trades++
			perf.TotalPnlSOL += trade.PnlSOL
			pnlPercentSum += trade.PnlPercent
			if trade.PnlPercent > 0 {
				wins++
			}
		}
		if perf.Trades > 0 {
			perf.WinRate = float64(wins) / float64(perf.Trades) * 100
			perf.AvgPnlPercent = pnlPercentSum / float64(perf.Trades)
		}
		breakdown = append(breakdown, perf)
	}
	return breakdown
}
