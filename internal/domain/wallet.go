package domain

// WalletAggregate holds the lifetime statistics for one KOL wallet.
// It is owned exclusively by the aggregator; each aggregation pass
// recomputes it from the full set of source records, so the value is a
// pure function of its inputs.
type WalletAggregate struct {
	WalletAddress string // natural key
	Name          string
	Twitter       string
	ProfileImage  string

	TotalTokensTraded   int
	TotalVolumeSOL      float64
	TotalRealizedPnlSOL float64
	TotalTrades         int
	CurrentPositions    int // tokens still held

	// Raw samples the derived fields are computed from.
	PnlSamples      []float64 // realized P&L percent per token
	HoldTimeSamples []float64 // hold time seconds per token

	// Derived via scoring formulas.
	WinRate          float64 // 0..100
	AvgPnlPercent    float64
	AvgHoldTimeHours float64
	MomentumScore    int // 0..100
	BestTradePnl     float64
	WorstTradePnl    float64

	LastActiveAt int64 // Unix ms, monotonic max over first_buy_at
}

// Clone returns a deep copy so stores can hand out aggregates without
// sharing sample slices.
func (w *WalletAggregate) Clone() *WalletAggregate {
	cp := *w
	cp.PnlSamples = append([]float64(nil), w.PnlSamples...)
	cp.HoldTimeSamples = append([]float64(nil), w.HoldTimeSamples...)
	return &cp
}
