package domain

import "errors"

// FollowStrategy controls when the simulator copies a KOL buy.
type FollowStrategy string

// FollowStrategy constants.
const (
	FollowImmediate FollowStrategy = "immediate"
	FollowDelayed   FollowStrategy = "delayed"
	FollowFiltered  FollowStrategy = "filtered"
)

// Exit reason codes for simulated trades.
const (
	ExitReasonKOLSell    = "kol_sell"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonEndDate    = "end_date"
)

// Simulation config validation errors. These signal caller misuse and
// fail the run before any record is processed.
var (
	ErrNoWallets           = errors.New("simulation config requires at least one wallet to follow")
	ErrInvalidCapital      = errors.New("simulation config requires positive initial capital")
	ErrInvalidTimeRange    = errors.New("simulation config end time must be after start time")
	ErrInvalidPositionSize = errors.New("simulation config max position size must be in (0, 100]")
	ErrInvalidStopLoss     = errors.New("simulation config stop loss percent must be positive when set")
	ErrInvalidTakeProfit   = errors.New("simulation config take profit percent must be positive when set")
	ErrUnknownStrategy     = errors.New("unknown follow strategy")
)

// SimulationConfig describes one copytrade backtest run.
// Immutable once a simulation starts.
type SimulationConfig struct {
	Wallets        []string // KOL display names to follow
	StartTime      int64    // Unix ms, inclusive
	EndTime        int64    // Unix ms, inclusive
	InitialCapital float64  // SOL

	MaxPositionSizePct float64  // percent of current capital per trade
	StopLossPct        *float64 // optional, percent
	TakeProfitPct      *float64 // optional, percent

	Strategy     FollowStrategy
	DelayMinutes int // for delayed strategy
	MinKolsCount int // for filtered strategy
}

// Validate fails fast on configs that signal caller misuse.
func (c *SimulationConfig) Validate() error {
	if len(c.Wallets) == 0 {
		return ErrNoWallets
	}
	if c.InitialCapital <= 0 {
		return ErrInvalidCapital
	}
	if c.EndTime <= c.StartTime {
		return ErrInvalidTimeRange
	}
	if c.MaxPositionSizePct <= 0 || c.MaxPositionSizePct > 100 {
		return ErrInvalidPositionSize
	}
	// Disabling a threshold means leaving the pointer nil; a zero value
	// would trip the exit check on every flat mark.
	if c.StopLossPct != nil && *c.StopLossPct <= 0 {
		return ErrInvalidStopLoss
	}
	if c.TakeProfitPct != nil && *c.TakeProfitPct <= 0 {
		return ErrInvalidTakeProfit
	}
	switch c.Strategy {
	case FollowImmediate, FollowDelayed, FollowFiltered:
	default:
		return ErrUnknownStrategy
	}
	return nil
}

// SimulatedTrade is one replayed copy of a KOL buy. Immutable once created.
type SimulatedTrade struct {
	TradeID      string // deterministic hash
	TokenAddress string
	TokenName    string
	TokenSymbol  string
	KOLName      string

	BuyPrice  float64
	SellPrice float64
	BuyTime   int64 // Unix ms
	SellTime  int64 // Unix ms

	HoldTimeHours float64
	PnlPercent    float64
	PnlSOL        float64
	PositionSize  float64
	Reason        string // exit reason code
}

// EquityPoint is one day of the simulated equity curve.
type EquityPoint struct {
	Date    string // YYYY-MM-DD (UTC)
	Capital float64
	Pnl     float64
}

// KOLPerformance is the per-wallet breakdown of a simulation. Wallets with
// no matching trades get an all-zero row rather than being omitted.
type KOLPerformance struct {
	KOLName       string
	Trades        int
	WinRate       float64
	AvgPnlPercent float64
	TotalPnlSOL   float64
}

// SimulationResult is derived entirely from the trade ledger and never
// mutated after computation.
type SimulationResult struct {
	SimulationID string
	Config       SimulationConfig

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // 0..100

	TotalPnlPercent float64
	TotalPnlSOL     float64
	FinalCapital    float64

	MaxDrawdown float64 // peak-to-trough fraction, 0..1
	SharpeRatio float64

	BestTrade  *SimulatedTrade // nil when ledger is empty
	WorstTrade *SimulatedTrade // nil when ledger is empty

	Trades         []*SimulatedTrade
	DailyEquity    []EquityPoint
	KOLPerformance []KOLPerformance

	CreatedAt int64 // Unix ms
}
