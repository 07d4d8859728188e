package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"kol-sniper-dashboard/internal/domain"
)

// ComputeSimulationID computes a deterministic simulation_id using SHA256.
// The ID is a fingerprint of the config plus the run's created-at timestamp,
// so re-running the same config at a different time yields a distinct ID.
// Returns hex-encoded hash (64 characters).
func ComputeSimulationID(cfg *domain.SimulationConfig, createdAt int64) string {
	stopLoss := ""
	if cfg.StopLossPct != nil {
		stopLoss = fmt.Sprintf("%g", *cfg.StopLossPct)
	}
	takeProfit := ""
	if cfg.TakeProfitPct != nil {
		takeProfit = fmt.Sprintf("%g", *cfg.TakeProfitPct)
	}

	data := fmt.Sprintf("%s|%d|%d|%g|%g|%s|%s|%s|%d|%d|%d",
		strings.Join(cfg.Wallets, ","),
		cfg.StartTime,
		cfg.EndTime,
		cfg.InitialCapital,
		cfg.MaxPositionSizePct,
		stopLoss,
		takeProfit,
		string(cfg.Strategy),
		cfg.DelayMinutes,
		cfg.MinKolsCount,
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
