package storage

import (
	"context"

	"kol-sniper-dashboard/internal/domain"
)

// Leaderboard sort fields accepted by GetTop.
const (
	SortByMomentumScore = "momentum_score"
	SortByTotalPnl      = "total_realized_pnl_sol"
	SortByWinRate       = "win_rate"
	SortByTotalVolume   = "total_volume_sol"
)

// ActivityStore provides access to token activity snapshots. Records are
// upserted by token address so repeated polls converge to the latest state.
type ActivityStore interface {
	// Upsert inserts or replaces the activity record for its token address.
	Upsert(ctx context.Context, t *domain.TokenActivity) error

	// UpsertBulk applies Upsert for each record.
	UpsertBulk(ctx context.Context, records []*domain.TokenActivity) error

	// GetByAddress retrieves one token. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, tokenAddress string) (*domain.TokenActivity, error)

	// GetByTimeRange retrieves tokens whose last_kol_buy falls within
	// [start, end] (inclusive), ordered by last_kol_buy ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenActivity, error)

	// GetRecent retrieves up to limit tokens with last_kol_buy >= since,
	// ordered by last_kol_buy DESC.
	GetRecent(ctx context.Context, since int64, limit int) ([]*domain.TokenActivity, error)

	// GetAll retrieves every stored token, ordered by last_kol_buy ASC.
	GetAll(ctx context.Context) ([]*domain.TokenActivity, error)
}

// LeaderboardStore is the key-value wallet leaderboard keyed by wallet
// address. The aggregator upserts into it; the simulator and alert matcher
// read historical scores from it.
type LeaderboardStore interface {
	// Upsert inserts or replaces the aggregate for its wallet address.
	Upsert(ctx context.Context, agg *domain.WalletAggregate) error

	// UpsertBulk applies Upsert for each aggregate.
	UpsertBulk(ctx context.Context, aggs []*domain.WalletAggregate) error

	// Get retrieves one wallet. Returns ErrNotFound if not exists.
	Get(ctx context.Context, walletAddress string) (*domain.WalletAggregate, error)

	// GetTop retrieves the top n wallets ordered by sortField DESC.
	// Unknown sort fields fall back to momentum score.
	GetTop(ctx context.Context, n int, sortField string) ([]*domain.WalletAggregate, error)
}

// SimulationStore persists backtest results and their trade ledgers.
type SimulationStore interface {
	// SaveResult stores the result summary and its full trade ledger.
	SaveResult(ctx context.Context, result *domain.SimulationResult) error

	// GetResult retrieves a result summary (without the ledger) by
	// simulation ID. Returns ErrNotFound if not exists.
	GetResult(ctx context.Context, simulationID string) (*domain.SimulationResult, error)

	// GetTrades retrieves the trade ledger for a simulation, ordered by
	// buy_time ASC.
	GetTrades(ctx context.Context, simulationID string) ([]*domain.SimulatedTrade, error)
}
