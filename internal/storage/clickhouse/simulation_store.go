package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// SimulationStore implements storage.SimulationStore using ClickHouse.
//
// Summaries live in simulation_results (ReplacingMergeTree keyed by
// simulation_id, so re-saving a result replaces the previous row) and the
// trade ledger lives in simulated_trades. Nested summary fields (config,
// best/worst trade, equity curve, per-KOL rows) are stored as JSON strings.
type SimulationStore struct {
	conn *Conn
}

// NewSimulationStore creates a new SimulationStore.
func NewSimulationStore(conn *Conn) *SimulationStore {
	return &SimulationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationStore = (*SimulationStore)(nil)

// SaveResult stores the result summary and its full trade ledger.
func (s *SimulationStore) SaveResult(ctx context.Context, result *domain.SimulationResult) error {
	if result == nil || result.SimulationID == "" {
		return storage.ErrInvalidInput
	}

	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	bestJSON, err := json.Marshal(result.BestTrade)
	if err != nil {
		return fmt.Errorf("marshal best trade: %w", err)
	}
	worstJSON, err := json.Marshal(result.WorstTrade)
	if err != nil {
		return fmt.Errorf("marshal worst trade: %w", err)
	}
	equityJSON, err := json.Marshal(result.DailyEquity)
	if err != nil {
		return fmt.Errorf("marshal daily equity: %w", err)
	}
	kolPerfJSON, err := json.Marshal(result.KOLPerformance)
	if err != nil {
		return fmt.Errorf("marshal kol performance: %w", err)
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO simulation_results (
			simulation_id, config_json,
			total_trades, winning_trades, losing_trades, win_rate,
			total_pnl_percent, total_pnl_sol, final_capital,
			max_drawdown, sharpe_ratio,
			best_trade_json, worst_trade_json, daily_equity_json, kol_perf_json,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.SimulationID, string(configJSON),
		int32(result.TotalTrades), int32(result.WinningTrades), int32(result.LosingTrades), result.WinRate,
		result.TotalPnlPercent, result.TotalPnlSOL, result.FinalCapital,
		result.MaxDrawdown, result.SharpeRatio,
		string(bestJSON), string(worstJSON), string(equityJSON), string(kolPerfJSON),
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert simulation result: %w", err)
	}

	if len(result.Trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulated_trades (
			simulation_id, trade_id, token_address, token_name, token_symbol, kol_name,
			buy_price, sell_price, buy_time, sell_time,
			hold_time_hours, pnl_percent, pnl_sol, position_size, reason
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare trades batch: %w", err)
	}

	for _, t := range result.Trades {
		err = batch.Append(
			result.SimulationID, t.TradeID, t.TokenAddress, t.TokenName, t.TokenSymbol, t.KOLName,
			t.BuyPrice, t.SellPrice, t.BuyTime, t.SellTime,
			t.HoldTimeHours, t.PnlPercent, t.PnlSOL, t.PositionSize, t.Reason,
		)
		if err != nil {
			return fmt.Errorf("append trade to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send trades batch: %w", err)
	}
	return nil
}

// GetResult retrieves a result summary (without the ledger) by simulation ID.
func (s *SimulationStore) GetResult(ctx context.Context, simulationID string) (*domain.SimulationResult, error) {
	if simulationID == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.conn.QueryRow(ctx, `
		SELECT
			simulation_id, config_json,
			total_trades, winning_trades, losing_trades, win_rate,
			total_pnl_percent, total_pnl_sol, final_capital,
			max_drawdown, sharpe_ratio,
			best_trade_json, worst_trade_json, daily_equity_json, kol_perf_json,
			created_at
		FROM simulation_results FINAL
		WHERE simulation_id = ?
		LIMIT 1
	`, simulationID)

	var r domain.SimulationResult
	var totalTrades, winningTrades, losingTrades int32
	var configJSON, bestJSON, worstJSON, equityJSON, kolPerfJSON string
	err := row.Scan(
		&r.SimulationID, &configJSON,
		&totalTrades, &winningTrades, &losingTrades, &r.WinRate,
		&r.TotalPnlPercent, &r.TotalPnlSOL, &r.FinalCapital,
		&r.MaxDrawdown, &r.SharpeRatio,
		&bestJSON, &worstJSON, &equityJSON, &kolPerfJSON,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	r.TotalTrades = int(totalTrades)
	r.WinningTrades = int(winningTrades)
	r.LosingTrades = int(losingTrades)

	if err := json.Unmarshal([]byte(configJSON), &r.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal([]byte(bestJSON), &r.BestTrade); err != nil {
		return nil, fmt.Errorf("unmarshal best trade: %w", err)
	}
	if err := json.Unmarshal([]byte(worstJSON), &r.WorstTrade); err != nil {
		return nil, fmt.Errorf("unmarshal worst trade: %w", err)
	}
	if err := json.Unmarshal([]byte(equityJSON), &r.DailyEquity); err != nil {
		return nil, fmt.Errorf("unmarshal daily equity: %w", err)
	}
	if err := json.Unmarshal([]byte(kolPerfJSON), &r.KOLPerformance); err != nil {
		return nil, fmt.Errorf("unmarshal kol performance: %w", err)
	}

	return &r, nil
}

// GetTrades retrieves the trade ledger for a simulation, ordered by buy_time ASC.
func (s *SimulationStore) GetTrades(ctx context.Context, simulationID string) ([]*domain.SimulatedTrade, error) {
	if simulationID == "" {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.conn.Query(ctx, `
		SELECT
			trade_id, token_address, token_name, token_symbol, kol_name,
			buy_price, sell_price, buy_time, sell_time,
			hold_time_hours, pnl_percent, pnl_sol, position_size, reason
		FROM simulated_trades
		WHERE simulation_id = ?
		ORDER BY buy_time ASC, trade_id ASC
	`, simulationID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.SimulatedTrade
	for rows.Next() {
		var t domain.SimulatedTrade
		err := rows.Scan(
			&t.TradeID, &t.TokenAddress, &t.TokenName, &t.TokenSymbol, &t.KOLName,
			&t.BuyPrice, &t.SellPrice, &t.BuyTime, &t.SellTime,
			&t.HoldTimeHours, &t.PnlPercent, &t.PnlSOL, &t.PositionSize, &t.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
