// Package simulator replays historical KOL activity as a copytrade
// backtest: every first buy by a followed wallet becomes a simulated
// position, closed by the wallet's own exit, a stop/take threshold, or
// the end of the simulated window.
package simulator

import (
	"context"
	"log"
	"os"
	"time"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/idhash"
	"kol-sniper-dashboard/internal/observability"
	"kol-sniper-dashboard/internal/storage"
)

const (
	// Positions never exceed 10% of current capital regardless of config.
	maxPositionFraction = 0.10

	// Positions below this size in SOL are not worth simulating.
	dustThresholdSOL = 0.001

	// Synthetic hold applied when a stop/take threshold closes a trade.
	syntheticHoldMs = 24 * 60 * 60 * 1000
)

// Simulator runs copytrade backtests over token activity records.
type Simulator struct {
	store  storage.SimulationStore
	logger *log.Logger
	now    func() time.Time
}

// Options configures a Simulator.
type Options struct {
	// Store receives completed results. Optional; nil disables persistence.
	Store storage.SimulationStore

	// Logger for progress output. Defaults to stderr.
	Logger *log.Logger

	// Now overrides the clock used for result timestamps. Defaults to
	// time.Now. Used in tests.
	Now func() time.Time
}

// New creates a Simulator.
func New(opts Options) *Simulator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[simulator] ", log.LstdFlags)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		store:  opts.Store,
		logger: logger,
		now:    now,
	}
}

// Simulate runs one backtest over the given activity records and returns
// the result. The config is validated fail-fast; records are processed
// chronologically by last KOL buy. The result is a pure function of
// (config, records) apart from its creation timestamp.
func (s *Simulator) Simulate(ctx context.Context, cfg *domain.SimulationConfig, records []*domain.TokenActivity) (*domain.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	createdAt := s.now().UnixMilli()
	simID := idhash.ComputeSimulationID(cfg, createdAt)

	followed := make(map[string]bool, len(cfg.Wallets))
	for _, name := range cfg.Wallets {
		followed[name] = true
	}

	tokens := selectTokens(records, cfg, followed)
	s.logger.Printf("simulation %s: %d tokens with followed activity in range", simID[:12], len(tokens))

	var trades []*domain.SimulatedTrade
	capital := cfg.InitialCapital
	capitalHistory := []float64{capital}

	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tokenTrades := s.processToken(token, cfg, followed, capital, simID)
		trades = append(trades, tokenTrades...)

		for _, trade := range tokenTrades {
			capital += trade.PnlSOL
			capitalHistory = append(capitalHistory, capital)
		}
	}

	result := buildResult(cfg, trades, capital, capitalHistory)
	result.SimulationID = simID
	result.CreatedAt = createdAt

	observability.RecordSimulation(len(trades))
	s.logger.Printf("simulation %s complete: %d trades, %.1f%% win rate, %.1f%% pnl",
		simID[:12], result.TotalTrades, result.WinRate, result.TotalPnlPercent)

	if s.store != nil {
		if err := s.store.SaveResult(ctx, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// selectTokens filters records to those whose last KOL buy falls inside
// the simulated window and that have at least one followed buyer, then
// orders them chronologically.
func selectTokens(records []*domain.TokenActivity, cfg *domain.SimulationConfig, followed map[string]bool) []*domain.TokenActivity {
	var tokens []*domain.TokenActivity
	for _, rec := range records {
		if rec.LastKOLBuy < cfg.StartTime || rec.LastKOLBuy > cfg.EndTime {
			continue
		}
		matched := false
		for _, buyer := range rec.KOLBuyers {
			if followed[buyer.Name] {
				matched = true
				break
			}
		}
		if matched {
			tokens = append(tokens, rec)
		}
	}
	domain.SortActivitiesByLastBuy(tokens)
	return tokens
}

// processToken generates the trades for one token. All trades on the same
// token are sized against the capital at token entry; capital is rolled
// forward between tokens by the caller.
func (s *Simulator) processToken(token *domain.TokenActivity, cfg *domain.SimulationConfig, followed map[string]bool, capital float64, simID string) []*domain.SimulatedTrade {
	var buyers []*domain.KOLBuyer
	for _, b := range token.KOLBuyers {
		if followed[b.Name] {
			buyers = append(buyers, b)
		}
	}
	if len(buyers) == 0 {
		return nil
	}

	if cfg.Strategy == domain.FollowFiltered {
		minKols := cfg.MinKolsCount
		if minKols < 1 {
			minKols = 1
		}
		if token.KolsCount < minKols {
			return nil
		}
	}

	domain.SortBuyersByFirstBuy(buyers)

	var trades []*domain.SimulatedTrade
	for _, buyer := range buyers {
		trade := s.simulateEntry(token, buyer, cfg, capital, simID)
		if trade != nil {
			trades = append(trades, trade)
		}
	}
	return trades
}

// simulateEntry turns one followed buy into a simulated trade, or nil when
// the entry is gated out (outside the window, dust position, unusable price).
func (s *Simulator) simulateEntry(token *domain.TokenActivity, buyer *domain.KOLBuyer, cfg *domain.SimulationConfig, capital float64, simID string) *domain.SimulatedTrade {
	buyTime := buyer.FirstBuyAt
	if cfg.Strategy == domain.FollowDelayed && cfg.DelayMinutes > 0 {
		buyTime += int64(cfg.DelayMinutes) * 60 * 1000
	}
	if buyTime < cfg.StartTime || buyTime > cfg.EndTime {
		return nil
	}

	buyPrice := buyer.AvgBuyPrice
	if buyPrice <= 0 {
		s.logger.Printf("skipping %s buy of %s: no usable buy price", buyer.Name, token.TokenAddress)
		return nil
	}

	positionSize := capital * cfg.MaxPositionSizePct / 100
	if limit := capital * maxPositionFraction; limit < positionSize {
		positionSize = limit
	}
	if positionSize < dustThresholdSOL {
		return nil
	}

	sellPrice, sellTime, reason := resolveExit(buyer, cfg, buyTime, buyPrice)

	holdTimeHours := float64(sellTime-buyTime) / (1000 * 60 * 60)
	pnlPercent := (sellPrice - buyPrice) / buyPrice * 100
	pnlSOL := positionSize * pnlPercent / 100

	return &domain.SimulatedTrade{
		TradeID:      idhash.ComputeTradeID(simID, token.TokenAddress, buyer.Name, buyTime),
		TokenAddress: token.TokenAddress,
		TokenName:    token.Name,
		TokenSymbol:  token.Symbol,
		KOLName:      buyer.Name,

		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		BuyTime:   buyTime,
		SellTime:  sellTime,

		HoldTimeHours: holdTimeHours,
		PnlPercent:    pnlPercent,
		PnlSOL:        pnlSOL,
		PositionSize:  positionSize,
		Reason:        reason,
	}
}

// resolveExit picks the exit for a simulated position, in precedence order:
// the KOL's own recorded exit, then stop-loss, then take-profit, then flat
// at the end of the window. With no external price feed the mark-to-market
// price is the buy price itself, so stop/take thresholds only trigger on
// non-positive percentages; the branches stay for configs that use them.
func resolveExit(buyer *domain.KOLBuyer, cfg *domain.SimulationConfig, buyTime int64, buyPrice float64) (sellPrice float64, sellTime int64, reason string) {
	if buyer.PositionStatus == domain.PositionFullySold && buyer.LastAction == domain.LastActionSell {
		sellTime = buyer.FirstBuyAt + int64(buyer.AvgHoldTimeSeconds*1000)
		return buyer.AvgSellPrice, sellTime, domain.ExitReasonKOLSell
	}

	// Flat mark against the buy price, see the doc comment.
	markPnlPercent := 0.0

	if cfg.StopLossPct != nil && markPnlPercent <= -*cfg.StopLossPct {
		sellTime = buyTime + syntheticHoldMs
		return buyPrice * (1 - *cfg.StopLossPct/100), sellTime, domain.ExitReasonStopLoss
	}
	if cfg.TakeProfitPct != nil && markPnlPercent >= *cfg.TakeProfitPct {
		sellTime = buyTime + syntheticHoldMs
		return buyPrice * (1 + *cfg.TakeProfitPct/100), sellTime, domain.ExitReasonTakeProfit
	}

	return buyPrice, cfg.EndTime, domain.ExitReasonEndDate
}
