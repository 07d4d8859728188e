package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(simulation_id|token_address|kol_name|buy_time)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	simulationID string,
	tokenAddress string,
	kolName string,
	buyTime int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		simulationID,
		tokenAddress,
		kolName,
		buyTime,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
