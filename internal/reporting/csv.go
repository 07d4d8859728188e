package reporting

import (
	"fmt"
	"strings"

	"kol-sniper-dashboard/internal/domain"
)

// RenderCSV renders a trade ledger as CSV string.
func RenderCSV(trades []*domain.SimulatedTrade) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,token_address,token_name,token_symbol,kol_name,")
	sb.WriteString("buy_price,sell_price,buy_time,sell_time,")
	sb.WriteString("hold_time_hours,pnl_percent,pnl_sol,position_size,reason\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%.8f,%.8f,%d,%d,%.4f,%.6f,%.6f,%.6f,%s\n",
			t.TradeID,
			t.TokenAddress,
			csvField(t.TokenName),
			csvField(t.TokenSymbol),
			csvField(t.KOLName),
			t.BuyPrice,
			t.SellPrice,
			t.BuyTime,
			t.SellTime,
			t.HoldTimeHours,
			t.PnlPercent,
			t.PnlSOL,
			t.PositionSize,
			t.Reason,
		))
	}

	return sb.String()
}

// csvField quotes values that contain commas or quotes.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
