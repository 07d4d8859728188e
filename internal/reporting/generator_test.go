package reporting

import (
	"context"
	"strings"
	"testing"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage/memory"
)

func sampleResult() *domain.SimulationResult {
	trade := &domain.SimulatedTrade{
		TradeID:      "abc123",
		TokenAddress: "tok1",
		TokenName:    "Token One",
		TokenSymbol:  "ONE",
		KOLName:      "alpha",
		BuyPrice:     1,
		SellPrice:    1.5,
		BuyTime:      1_700_000_000_000,
		SellTime:     1_700_003_600_000,

		HoldTimeHours: 1,
		PnlPercent:    50,
		PnlSOL:        5,
		PositionSize:  10,
		Reason:        domain.ExitReasonKOLSell,
	}
	return &domain.SimulationResult{
		SimulationID: "sim-1",
		Config: domain.SimulationConfig{
			Wallets:            []string{"alpha"},
			StartTime:          1_700_000_000_000,
			EndTime:            1_700_000_000_000 + 86_400_000,
			InitialCapital:     100,
			MaxPositionSizePct: 10,
			Strategy:           domain.FollowImmediate,
		},
		TotalTrades:     1,
		WinningTrades:   1,
		WinRate:         100,
		TotalPnlPercent: 5,
		TotalPnlSOL:     5,
		FinalCapital:    105,
		MaxDrawdown:     0,
		SharpeRatio:     1.2,
		BestTrade:       trade,
		WorstTrade:      trade,
		Trades:          []*domain.SimulatedTrade{trade},
		DailyEquity: []domain.EquityPoint{
			{Date: "2023-11-14", Capital: 100, Pnl: 0},
			{Date: "2023-11-15", Capital: 105, Pnl: 5},
		},
		KOLPerformance: []domain.KOLPerformance{
			{KOLName: "alpha", Trades: 1, WinRate: 100, AvgPnlPercent: 50, TotalPnlSOL: 5},
		},
		CreatedAt: 1_700_100_000_000,
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleResult())

	for _, want := range []string{
		"# Copytrade Simulation Report",
		"`sim-1`",
		"| Wallets | alpha |",
		"| Total Trades | 1 |",
		"| Win Rate | 100.00% |",
		"| Max Drawdown | 0.00% |",
		"Best trade: alpha on ONE, 50.00%",
		"| alpha | 1 | 100.00 | 50.00 | 5.0000 |",
		"| 2023-11-15 | 105.0000 | 5.0000 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyLedger(t *testing.T) {
	result := sampleResult()
	result.Trades = nil
	result.BestTrade = nil
	result.WorstTrade = nil
	result.KOLPerformance = nil

	md := RenderMarkdown(result)
	if strings.Contains(md, "Best trade") {
		t.Error("empty ledger must not render an extremes section")
	}
	if !strings.Contains(md, "No KOL performance data available.") {
		t.Error("expected the empty-breakdown placeholder")
	}
}

func TestRenderCSV(t *testing.T) {
	result := sampleResult()
	csv := RenderCSV(result.Trades)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,token_address") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "abc123,tok1,Token One,ONE,alpha") {
		t.Errorf("unexpected row: %s", lines[1])
	}
	if !strings.HasSuffix(lines[1], "kol_sell") {
		t.Errorf("row should end with the exit reason: %s", lines[1])
	}
}

func TestRenderCSV_QuotesCommas(t *testing.T) {
	trade := sampleResult().Trades[0]
	trade.TokenName = `Token, "One"`

	csv := RenderCSV([]*domain.SimulatedTrade{trade})
	if !strings.Contains(csv, `"Token, ""One"""`) {
		t.Errorf("expected quoted field, got:\n%s", csv)
	}
}

func TestGenerator_LoadsStoredResult(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSimulationStore()
	result := sampleResult()
	if err := store.SaveResult(ctx, result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	gen := NewGenerator(store)
	loaded, err := gen.Load(ctx, "sim-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Trades) != 1 {
		t.Errorf("expected the ledger reattached, got %d trades", len(loaded.Trades))
	}

	md, err := gen.Markdown(ctx, "sim-1")
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if !strings.Contains(md, "sim-1") {
		t.Error("rendered markdown missing simulation id")
	}

	csv, err := gen.CSV(ctx, "sim-1")
	if err != nil {
		t.Fatalf("CSV failed: %v", err)
	}
	if !strings.Contains(csv, "abc123") {
		t.Error("rendered csv missing trade id")
	}
}
