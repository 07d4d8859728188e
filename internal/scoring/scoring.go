// Package scoring holds the pure metric formulas shared by the aggregator,
// the simulator and the alert matcher. Every function resolves degenerate
// inputs (empty samples, division by zero) to a defined default instead of
// propagating NaN or Inf.
package scoring

import "math"

// WinRate returns the percentage of strictly positive samples, 0..100.
// Returns 0 for an empty sample set.
func WinRate(pnlSamples []float64) float64 {
	if len(pnlSamples) == 0 {
		return 0
	}
	wins := 0
	for _, p := range pnlSamples {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnlSamples)) * 100
}

// Mean returns the arithmetic mean, 0 for an empty sample set.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Stddev returns the population standard deviation, 0 for fewer than two
// samples or zero variance.
func Stddev(samples []float64) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	mean := Mean(samples)
	sumSq := 0.0
	for _, s := range samples {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}

// AvgHoldTimeHours converts hold-time samples in seconds to a mean in hours.
// Returns 0 for an empty sample set.
func AvgHoldTimeHours(holdSeconds []float64) float64 {
	if len(holdSeconds) == 0 {
		return 0
	}
	return Mean(holdSeconds) / 3600
}

// TokenMomentumScore is the bounded 0..100 composite for a token:
// KOL-count factor (max 30) + P&L factor (max 30) + volume factor (max 20)
// + recency factor (max 20). Recency is measured against the supplied now,
// which makes the score time-dependent; callers that care about freshness
// recompute on read or timestamp the result.
func TokenMomentumScore(kolsCount int, avgPnlPercent, totalVolumeSOL float64, lastBuyAt, now int64) int {
	hoursSinceLastBuy := float64(now-lastBuyAt) / (1000 * 60 * 60)

	kolFactor := math.Min(float64(kolsCount)/10, 1) * 30
	pnlFactor := clamp01(avgPnlPercent/1000) * 30
	volumeFactor := math.Min(totalVolumeSOL/100, 1) * 20
	recencyFactor := clamp01(1-hoursSinceLastBuy/24) * 20

	return int(math.Round(kolFactor + pnlFactor + volumeFactor + recencyFactor))
}

// WalletMomentumScore is the bounded 0..100 composite for a wallet:
// win-rate factor (max 40) + P&L factor (max 30) + hold-time factor (max 30).
// A zero average hold time is treated as one hour to guard the division.
func WalletMomentumScore(winRate, avgPnlPercent, avgHoldHours float64) int {
	holdHours := avgHoldHours
	if holdHours == 0 {
		holdHours = 1
	}

	winRateFactor := winRate / 100 * 40
	pnlFactor := clamp01(avgPnlPercent/1000) * 30
	holdTimeFactor := math.Min(1/holdHours, 1) * 30

	return int(math.Round(winRateFactor + pnlFactor + holdTimeFactor))
}

// Max returns the largest sample, or def when the set is empty.
func Max(samples []float64, def float64) float64 {
	if len(samples) == 0 {
		return def
	}
	m := samples[0]
	for _, s := range samples[1:] {
		if s > m {
			m = s
		}
	}
	return m
}

// Min returns the smallest sample, or def when the set is empty.
func Min(samples []float64, def float64) float64 {
	if len(samples) == 0 {
		return def
	}
	m := samples[0]
	for _, s := range samples[1:] {
		if s < m {
			m = s
		}
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
