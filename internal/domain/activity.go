package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// LastAction is the most recent action a KOL took on a token.
type LastAction string

// LastAction constants.
const (
	LastActionBuy  LastAction = "buy"
	LastActionSell LastAction = "sell"
)

// PositionStatus describes whether a KOL still holds a token.
type PositionStatus string

// PositionStatus constants.
const (
	PositionHolding     PositionStatus = "holding"
	PositionFullySold   PositionStatus = "fully_sold"
	PositionPartialSold PositionStatus = "partial_sold"
)

// Validation errors for activity records.
var (
	ErrMissingTokenAddress  = errors.New("token activity missing token_address")
	ErrMissingWalletAddress = errors.New("kol buyer missing wallet_address")
	ErrNegativeTradeCount   = errors.New("kol buyer has negative buy/sell count")
	ErrNonFiniteNumeric     = errors.New("kol buyer has non-finite numeric field")
	ErrInconsistentPosition = errors.New("fully_sold position requires last_action=sell")
)

// TokenActivity is one token with its embedded KOL buyer sub-records.
// It is the external input to the aggregator, simulator and alert matcher;
// the core treats it as read-only.
type TokenActivity struct {
	TokenAddress string
	Name         string
	Symbol       string
	Decimals     int
	Supply       float64
	ImageURL     string

	KolsCount   int
	FirstKOLBuy int64 // Unix ms
	LastKOLBuy  int64 // Unix ms
	KOLBuyers   []*KOLBuyer

	// Derived at ingestion from the embedded buyers.
	TotalVolumeSOL float64
	AvgKOLPnl      float64
	MomentumScore  int

	CreatedAt int64 // Unix ms
	UpdatedAt int64 // Unix ms
	FetchedAt int64 // Unix ms
}

// KOLBuyer is one tracked wallet's position in a single token.
type KOLBuyer struct {
	Name          string
	WalletAddress string
	Twitter       string
	ProfileImage  string

	AvgBuyPrice        float64
	AvgSellPrice       float64
	AvgHoldTimeSeconds float64
	FirstBuyAt         int64 // Unix ms
	LastAction         LastAction
	PositionStatus     PositionStatus

	RealizedPnlPercent float64
	RealizedPnlSOL     float64
	TotalBuys          int
	TotalSells         int
	TotalVolumeSOL     float64
}

// Validate checks the token-level invariants.
// Buyer sub-records are validated individually so one malformed entry
// does not invalidate the whole token.
func (t *TokenActivity) Validate() error {
	if t.TokenAddress == "" {
		return ErrMissingTokenAddress
	}
	if t.KolsCount < 0 {
		return fmt.Errorf("token %s: negative kols_count %d", t.TokenAddress, t.KolsCount)
	}
	return nil
}

// Validate checks the buyer-level invariants from the data contract.
func (b *KOLBuyer) Validate() error {
	if b.WalletAddress == "" {
		return ErrMissingWalletAddress
	}
	if b.TotalBuys < 0 || b.TotalSells < 0 {
		return ErrNegativeTradeCount
	}
	if b.PositionStatus == PositionFullySold && b.LastAction != LastActionSell {
		return ErrInconsistentPosition
	}
	for _, v := range []float64{
		b.AvgBuyPrice, b.AvgSellPrice, b.AvgHoldTimeSeconds,
		b.RealizedPnlPercent, b.RealizedPnlSOL, b.TotalVolumeSOL,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteNumeric
		}
	}
	return nil
}

// Clone returns a deep copy including the embedded buyer sub-records.
func (t *TokenActivity) Clone() *TokenActivity {
	cp := *t
	cp.KOLBuyers = make([]*KOLBuyer, len(t.KOLBuyers))
	for i, b := range t.KOLBuyers {
		bc := *b
		cp.KOLBuyers[i] = &bc
	}
	return &cp
}

// SortActivitiesByLastBuy orders records chronologically by last_kol_buy,
// breaking ties by token address for determinism.
func SortActivitiesByLastBuy(records []*TokenActivity) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastKOLBuy != records[j].LastKOLBuy {
			return records[i].LastKOLBuy < records[j].LastKOLBuy
		}
		return records[i].TokenAddress < records[j].TokenAddress
	})
}

// SortBuyersByFirstBuy orders buyer sub-records by first_buy_at ascending,
// breaking ties by wallet address.
func SortBuyersByFirstBuy(buyers []*KOLBuyer) {
	sort.Slice(buyers, func(i, j int) bool {
		if buyers[i].FirstBuyAt != buyers[j].FirstBuyAt {
			return buyers[i].FirstBuyAt < buyers[j].FirstBuyAt
		}
		return buyers[i].WalletAddress < buyers[j].WalletAddress
	})
}
