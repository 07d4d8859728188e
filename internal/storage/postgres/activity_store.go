package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// ActivityStore implements storage.ActivityStore using PostgreSQL.
// Buyer sub-records are embedded in a JSONB column so a token row is
// always read and replaced as a unit.
type ActivityStore struct {
	pool *Pool
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(pool *Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActivityStore = (*ActivityStore)(nil)

const activityColumns = `
	token_address, name, symbol, decimals, supply, image_url,
	kols_count, first_kol_buy, last_kol_buy, kol_buyers,
	total_volume_sol, avg_kol_pnl, momentum_score,
	created_at, updated_at, fetched_at
`

const upsertActivityQuery = `
	INSERT INTO token_activity (
		token_address, name, symbol, decimals, supply, image_url,
		kols_count, first_kol_buy, last_kol_buy, kol_buyers,
		total_volume_sol, avg_kol_pnl, momentum_score,
		created_at, updated_at, fetched_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13,
		$14, $15, $16
	)
	ON CONFLICT (token_address) DO UPDATE SET
		name = EXCLUDED.name,
		symbol = EXCLUDED.symbol,
		decimals = EXCLUDED.decimals,
		supply = EXCLUDED.supply,
		image_url = EXCLUDED.image_url,
		kols_count = EXCLUDED.kols_count,
		first_kol_buy = EXCLUDED.first_kol_buy,
		last_kol_buy = EXCLUDED.last_kol_buy,
		kol_buyers = EXCLUDED.kol_buyers,
		total_volume_sol = EXCLUDED.total_volume_sol,
		avg_kol_pnl = EXCLUDED.avg_kol_pnl,
		momentum_score = EXCLUDED.momentum_score,
		created_at = EXCLUDED.created_at,
		updated_at = EXCLUDED.updated_at,
		fetched_at = EXCLUDED.fetched_at
`

// Upsert inserts or replaces the activity record for its token address.
func (s *ActivityStore) Upsert(ctx context.Context, t *domain.TokenActivity) error {
	if t == nil || t.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	buyers, err := json.Marshal(t.KOLBuyers)
	if err != nil {
		return fmt.Errorf("marshal kol buyers: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertActivityQuery,
		t.TokenAddress, t.Name, t.Symbol, t.Decimals, t.Supply, t.ImageURL,
		t.KolsCount, t.FirstKOLBuy, t.LastKOLBuy, buyers,
		t.TotalVolumeSOL, t.AvgKOLPnl, t.MomentumScore,
		t.CreatedAt, t.UpdatedAt, t.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token activity: %w", err)
	}
	return nil
}

// UpsertBulk applies Upsert for each record within a single transaction.
func (s *ActivityStore) UpsertBulk(ctx context.Context, records []*domain.TokenActivity) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range records {
		if t == nil || t.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
		buyers, err := json.Marshal(t.KOLBuyers)
		if err != nil {
			return fmt.Errorf("marshal kol buyers: %w", err)
		}
		_, err = tx.Exec(ctx, upsertActivityQuery,
			t.TokenAddress, t.Name, t.Symbol, t.Decimals, t.Supply, t.ImageURL,
			t.KolsCount, t.FirstKOLBuy, t.LastKOLBuy, buyers,
			t.TotalVolumeSOL, t.AvgKOLPnl, t.MomentumScore,
			t.CreatedAt, t.UpdatedAt, t.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert token activity in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByAddress retrieves one token. Returns ErrNotFound if not exists.
func (s *ActivityStore) GetByAddress(ctx context.Context, tokenAddress string) (*domain.TokenActivity, error) {
	if tokenAddress == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + activityColumns + ` FROM token_activity WHERE token_address = $1`

	row := s.pool.QueryRow(ctx, query, tokenAddress)
	t, err := scanTokenActivity(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token activity by address: %w", err)
	}
	return t, nil
}

// GetByTimeRange retrieves tokens whose last_kol_buy falls within
// [start, end] inclusive, ordered by last_kol_buy ASC.
func (s *ActivityStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TokenActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM token_activity
		WHERE last_kol_buy >= $1 AND last_kol_buy <= $2
		ORDER BY last_kol_buy ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get token activity by time range: %w", err)
	}
	defer rows.Close()

	return scanTokenActivities(rows)
}

// GetRecent retrieves up to limit tokens with last_kol_buy >= since,
// ordered by last_kol_buy DESC.
func (s *ActivityStore) GetRecent(ctx context.Context, since int64, limit int) ([]*domain.TokenActivity, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT ` + activityColumns + `
		FROM token_activity
		WHERE last_kol_buy >= $1
		ORDER BY last_kol_buy DESC, token_address ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent token activity: %w", err)
	}
	defer rows.Close()

	return scanTokenActivities(rows)
}

// GetAll retrieves every stored token, ordered by last_kol_buy ASC.
func (s *ActivityStore) GetAll(ctx context.Context) ([]*domain.TokenActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM token_activity
		ORDER BY last_kol_buy ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all token activity: %w", err)
	}
	defer rows.Close()

	return scanTokenActivities(rows)
}

// scanTokenActivity scans a single row into a TokenActivity.
func scanTokenActivity(row pgx.Row) (*domain.TokenActivity, error) {
	var t domain.TokenActivity
	var buyers []byte

	err := row.Scan(
		&t.TokenAddress, &t.Name, &t.Symbol, &t.Decimals, &t.Supply, &t.ImageURL,
		&t.KolsCount, &t.FirstKOLBuy, &t.LastKOLBuy, &buyers,
		&t.TotalVolumeSOL, &t.AvgKOLPnl, &t.MomentumScore,
		&t.CreatedAt, &t.UpdatedAt, &t.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(buyers, &t.KOLBuyers); err != nil {
		return nil, fmt.Errorf("unmarshal kol buyers: %w", err)
	}
	return &t, nil
}

// scanTokenActivities scans multiple rows into a slice of TokenActivity.
func scanTokenActivities(rows pgx.Rows) ([]*domain.TokenActivity, error) {
	var records []*domain.TokenActivity

	for rows.Next() {
		t, err := scanTokenActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token activity row: %w", err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token activity rows: %w", err)
	}
	return records, nil
}
