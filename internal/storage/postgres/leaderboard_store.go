package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// LeaderboardStore implements storage.LeaderboardStore using PostgreSQL.
type LeaderboardStore struct {
	pool *Pool
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(pool *Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// sortColumns whitelists the sortable leaderboard columns. Anything
// else falls back to momentum score.
var sortColumns = map[string]string{
	storage.SortByMomentumScore: "momentum_score",
	storage.SortByTotalPnl:      "total_realized_pnl_sol",
	storage.SortByWinRate:       "win_rate",
	storage.SortByTotalVolume:   "total_volume_sol",
}

const leaderboardColumns = `
	wallet_address, name, twitter, profile_image,
	total_tokens_traded, total_volume_sol, total_realized_pnl_sol,
	total_trades, current_positions,
	pnl_samples, hold_time_samples,
	win_rate, avg_pnl_percent, avg_hold_time_hours,
	momentum_score, best_trade_pnl, worst_trade_pnl,
	last_active_at
`

const upsertLeaderboardQuery = `
	INSERT INTO wallet_leaderboard (
		wallet_address, name, twitter, profile_image,
		total_tokens_traded, total_volume_sol, total_realized_pnl_sol,
		total_trades, current_positions,
		pnl_samples, hold_time_samples,
		win_rate, avg_pnl_percent, avg_hold_time_hours,
		momentum_score, best_trade_pnl, worst_trade_pnl,
		last_active_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9,
		$10, $11,
		$12, $13, $14,
		$15, $16, $17,
		$18
	)
	ON CONFLICT (wallet_address) DO UPDATE SET
		name = EXCLUDED.name,
		twitter = EXCLUDED.twitter,
		profile_image = EXCLUDED.profile_image,
		total_tokens_traded = EXCLUDED.total_tokens_traded,
		total_volume_sol = EXCLUDED.total_volume_sol,
		total_realized_pnl_sol = EXCLUDED.total_realized_pnl_sol,
		total_trades = EXCLUDED.total_trades,
		current_positions = EXCLUDED.current_positions,
		pnl_samples = EXCLUDED.pnl_samples,
		hold_time_samples = EXCLUDED.hold_time_samples,
		win_rate = EXCLUDED.win_rate,
		avg_pnl_percent = EXCLUDED.avg_pnl_percent,
		avg_hold_time_hours = EXCLUDED.avg_hold_time_hours,
		momentum_score = EXCLUDED.momentum_score,
		best_trade_pnl = EXCLUDED.best_trade_pnl,
		worst_trade_pnl = EXCLUDED.worst_trade_pnl,
		last_active_at = EXCLUDED.last_active_at
`

// Upsert inserts or replaces the aggregate for its wallet address.
func (s *LeaderboardStore) Upsert(ctx context.Context, agg *domain.WalletAggregate) error {
	if agg == nil || agg.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertLeaderboardQuery, upsertArgs(agg)...)
	if err != nil {
		return fmt.Errorf("upsert wallet aggregate: %w", err)
	}
	return nil
}

// UpsertBulk applies Upsert for each aggregate within a single transaction.
func (s *LeaderboardStore) UpsertBulk(ctx context.Context, aggs []*domain.WalletAggregate) error {
	if len(aggs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, agg := range aggs {
		if agg == nil || agg.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, upsertLeaderboardQuery, upsertArgs(agg)...); err != nil {
			return fmt.Errorf("upsert wallet aggregate in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves one wallet. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Get(ctx context.Context, walletAddress string) (*domain.WalletAggregate, error) {
	if walletAddress == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + leaderboardColumns + ` FROM wallet_leaderboard WHERE wallet_address = $1`

	row := s.pool.QueryRow(ctx, query, walletAddress)
	agg, err := scanWalletAggregate(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet aggregate: %w", err)
	}
	return agg, nil
}

// GetTop retrieves the top n wallets ordered by sortField DESC. Unknown
// sort fields fall back to momentum score.
func (s *LeaderboardStore) GetTop(ctx context.Context, n int, sortField string) ([]*domain.WalletAggregate, error) {
	if n <= 0 {
		return nil, nil
	}

	column, ok := sortColumns[sortField]
	if !ok {
		column = "momentum_score"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM wallet_leaderboard
		ORDER BY %s DESC, wallet_address ASC
		LIMIT $1
	`, leaderboardColumns, column)

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("get top wallets: %w", err)
	}
	defer rows.Close()

	return scanWalletAggregates(rows)
}

func upsertArgs(agg *domain.WalletAggregate) []any {
	pnl := agg.PnlSamples
	if pnl == nil {
		pnl = []float64{}
	}
	hold := agg.HoldTimeSamples
	if hold == nil {
		hold = []float64{}
	}
	return []any{
		agg.WalletAddress, agg.Name, agg.Twitter, agg.ProfileImage,
		agg.TotalTokensTraded, agg.TotalVolumeSOL, agg.TotalRealizedPnlSOL,
		agg.TotalTrades, agg.CurrentPositions,
		pnl, hold,
		agg.WinRate, agg.AvgPnlPercent, agg.AvgHoldTimeHours,
		agg.MomentumScore, agg.BestTradePnl, agg.WorstTradePnl,
		agg.LastActiveAt,
	}
}

// scanWalletAggregate scans a single row into a WalletAggregate.
func scanWalletAggregate(row pgx.Row) (*domain.WalletAggregate, error) {
	var agg domain.WalletAggregate

	err := row.Scan(
		&agg.WalletAddress, &agg.Name, &agg.Twitter, &agg.ProfileImage,
		&agg.TotalTokensTraded, &agg.TotalVolumeSOL, &agg.TotalRealizedPnlSOL,
		&agg.TotalTrades, &agg.CurrentPositions,
		&agg.PnlSamples, &agg.HoldTimeSamples,
		&agg.WinRate, &agg.AvgPnlPercent, &agg.AvgHoldTimeHours,
		&agg.MomentumScore, &agg.BestTradePnl, &agg.WorstTradePnl,
		&agg.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// scanWalletAggregates scans multiple rows into a slice of WalletAggregate.
func scanWalletAggregates(rows pgx.Rows) ([]*domain.WalletAggregate, error) {
	var aggs []*domain.WalletAggregate

	for rows.Next() {
		agg, err := scanWalletAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet aggregate row: %w", err)
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet aggregate rows: %w", err)
	}
	return aggs, nil
}
