package aggregator

import (
	"context"
	"io"
	"log"
	"reflect"
	"testing"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
	"kol-sniper-dashboard/internal/storage/memory"
)

// Helper to create an activity record with a single buyer.
func makeActivity(token, wallet string, pnlPercent, holdSeconds, volume float64, firstBuyAt int64) *domain.TokenActivity {
	return &domain.TokenActivity{
		TokenAddress: token,
		Name:         "Token " + token,
		KolsCount:    1,
		LastKOLBuy:   firstBuyAt,
		KOLBuyers: []*domain.KOLBuyer{
			{
				Name:               "kol-" + wallet,
				WalletAddress:      wallet,
				RealizedPnlPercent: pnlPercent,
				RealizedPnlSOL:     pnlPercent / 10,
				AvgHoldTimeSeconds: holdSeconds,
				TotalVolumeSOL:     volume,
				TotalBuys:          1,
				TotalSells:         1,
				FirstBuyAt:         firstBuyAt,
				LastAction:         domain.LastActionSell,
				PositionStatus:     domain.PositionFullySold,
			},
		},
	}
}

func quietAggregator(store storage.LeaderboardStore) *Aggregator {
	return New(Options{
		Leaderboard: store,
		Logger:      log.New(io.Discard, "", 0),
	})
}

func TestAggregate_TwoRecordsSameWallet(t *testing.T) {
	ctx := context.Background()
	agg := quietAggregator(nil)

	records := []*domain.TokenActivity{
		makeActivity("tok1", "w1", 50, 3600, 10, 1000),
		makeActivity("tok2", "w1", -10, 7200, 5, 2000),
	}

	wallets, err := agg.Aggregate(ctx, records)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	w, exists := wallets["w1"]
	if !exists {
		t.Fatal("expected aggregate for w1")
	}

	if w.WinRate != 50.0 {
		t.Errorf("expected win rate 50.0, got %v", w.WinRate)
	}
	if w.BestTradePnl != 50 {
		t.Errorf("expected best trade 50, got %v", w.BestTradePnl)
	}
	if w.WorstTradePnl != -10 {
		t.Errorf("expected worst trade -10, got %v", w.WorstTradePnl)
	}
	if w.TotalTokensTraded != 2 {
		t.Errorf("expected 2 tokens traded, got %d", w.TotalTokensTraded)
	}
	if w.TotalTrades != 4 {
		t.Errorf("expected 4 trades, got %d", w.TotalTrades)
	}
	if w.TotalVolumeSOL != 15 {
		t.Errorf("expected volume 15, got %v", w.TotalVolumeSOL)
	}
	if w.LastActiveAt != 2000 {
		t.Errorf("expected last active 2000, got %d", w.LastActiveAt)
	}
	// Mean of 3600s and 7200s is 1.5 hours.
	if w.AvgHoldTimeHours != 1.5 {
		t.Errorf("expected avg hold 1.5h, got %v", w.AvgHoldTimeHours)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	ctx := context.Background()

	records := []*domain.TokenActivity{
		makeActivity("tok1", "w1", 50, 3600, 10, 1000),
		makeActivity("tok2", "w1", -10, 7200, 5, 2000),
		makeActivity("tok1", "w2", 200, 600, 40, 1500),
	}

	agg := quietAggregator(nil)

	first, err := agg.Aggregate(ctx, records)
	if err != nil {
		t.Fatalf("first Aggregate failed: %v", err)
	}
	second, err := agg.Aggregate(ctx, records)
	if err != nil {
		t.Fatalf("second Aggregate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated aggregation over the same input produced different aggregates")
	}
}

func TestAggregate_UpsertsLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeaderboardStore()
	agg := quietAggregator(store)

	records := []*domain.TokenActivity{
		makeActivity("tok1", "w1", 50, 3600, 10, 1000),
	}
	if _, err := agg.Aggregate(ctx, records); err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	got, err := store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("leaderboard Get failed: %v", err)
	}
	if got.WinRate != 100 {
		t.Errorf("expected persisted win rate 100, got %v", got.WinRate)
	}

	// A second pass with the same input leaves the stored value unchanged.
	if _, err := agg.Aggregate(ctx, records); err != nil {
		t.Fatalf("second Aggregate failed: %v", err)
	}
	again, err := store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("second leaderboard Get failed: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Error("re-aggregation changed the persisted aggregate")
	}

	// Wallets from earlier passes persist even when absent from a new pass.
	if _, err := agg.Aggregate(ctx, []*domain.TokenActivity{
		makeActivity("tok2", "w2", 10, 60, 1, 3000),
	}); err != nil {
		t.Fatalf("third Aggregate failed: %v", err)
	}
	if _, err := store.Get(ctx, "w1"); err != nil {
		t.Errorf("expected stale wallet w1 to persist, got %v", err)
	}
}

func TestAggregate_SkipsMalformedBuyer(t *testing.T) {
	ctx := context.Background()
	agg := quietAggregator(nil)

	bad := makeActivity("tok1", "w1", 50, 3600, 10, 1000)
	bad.KOLBuyers = append(bad.KOLBuyers, &domain.KOLBuyer{
		// Missing wallet address: must be skipped, not abort the batch.
		Name:       "broken",
		TotalBuys:  -1,
		FirstBuyAt: 1000,
	})

	wallets, err := agg.Aggregate(ctx, []*domain.TokenActivity{bad})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(wallets))
	}
	if _, exists := wallets["w1"]; !exists {
		t.Error("expected valid buyer w1 to survive a malformed sibling")
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	agg := quietAggregator(nil)

	wallets, err := agg.Aggregate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(wallets) != 0 {
		t.Errorf("expected empty result, got %d wallets", len(wallets))
	}
}

func TestAggregate_MomentumScoreBounds(t *testing.T) {
	ctx := context.Background()
	agg := quietAggregator(nil)

	records := []*domain.TokenActivity{
		makeActivity("tok1", "w1", 1e6, 1, 1e6, 1000),
		makeActivity("tok2", "w2", -1e6, 0, 0, 1000),
	}
	wallets, err := agg.Aggregate(ctx, records)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for addr, w := range wallets {
		if w.MomentumScore < 0 || w.MomentumScore > 100 {
			t.Errorf("wallet %s momentum %d out of [0,100]", addr, w.MomentumScore)
		}
	}
}

func TestAggregate_CurrentPositions(t *testing.T) {
	ctx := context.Background()
	agg := quietAggregator(nil)

	holding := makeActivity("tok1", "w1", 0, 0, 1, 1000)
	holding.KOLBuyers[0].PositionStatus = domain.PositionHolding
	holding.KOLBuyers[0].LastAction = domain.LastActionBuy
	sold := makeActivity("tok2", "w1", 20, 60, 1, 2000)

	wallets, err := agg.Aggregate(ctx, []*domain.TokenActivity{holding, sold})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := wallets["w1"].CurrentPositions; got != 1 {
		t.Errorf("expected 1 current position, got %d", got)
	}
}
