package memory

import (
	"context"
	"errors"
	"testing"

	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/storage"
)

// Helper to create a wallet aggregate.
func makeAggregate(address string, momentum int, pnl float64) *domain.WalletAggregate {
	return &domain.WalletAggregate{
		WalletAddress:       address,
		Name:                "kol-" + address,
		MomentumScore:       momentum,
		TotalRealizedPnlSOL: pnl,
		WinRate:             50,
		PnlSamples:          []float64{pnl},
	}
}

func TestLeaderboardStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()

	if err := store.Upsert(ctx, makeAggregate("w1", 80, 10)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.MomentumScore != 80 {
		t.Errorf("expected momentum 80, got %d", got.MomentumScore)
	}

	// Upsert is idempotent by wallet address.
	if err := store.Upsert(ctx, makeAggregate("w1", 90, 20)); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	got, err = store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get after replace failed: %v", err)
	}
	if got.MomentumScore != 90 {
		t.Errorf("expected replaced momentum 90, got %d", got.MomentumScore)
	}
}

func TestLeaderboardStore_Get_NotFound(t *testing.T) {
	store := NewLeaderboardStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboardStore_GetTop(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()

	aggs := []*domain.WalletAggregate{
		makeAggregate("w1", 50, 300),
		makeAggregate("w2", 90, 100),
		makeAggregate("w3", 70, 200),
	}
	if err := store.UpsertBulk(ctx, aggs); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	top, err := store.GetTop(ctx, 2, storage.SortByMomentumScore)
	if err != nil {
		t.Fatalf("GetTop failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(top))
	}
	if top[0].WalletAddress != "w2" || top[1].WalletAddress != "w3" {
		t.Errorf("unexpected momentum order: %s, %s", top[0].WalletAddress, top[1].WalletAddress)
	}

	// Different sort field changes the order.
	top, err = store.GetTop(ctx, 3, storage.SortByTotalPnl)
	if err != nil {
		t.Fatalf("GetTop by pnl failed: %v", err)
	}
	if top[0].WalletAddress != "w1" {
		t.Errorf("expected w1 first by pnl, got %s", top[0].WalletAddress)
	}

	// Unknown sort field falls back to momentum score.
	top, err = store.GetTop(ctx, 1, "bogus")
	if err != nil {
		t.Fatalf("GetTop with unknown field failed: %v", err)
	}
	if top[0].WalletAddress != "w2" {
		t.Errorf("expected fallback to momentum, got %s", top[0].WalletAddress)
	}
}

func TestLeaderboardStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewLeaderboardStore()

	if err := store.Upsert(ctx, makeAggregate("w1", 80, 10)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.PnlSamples[0] = -999

	again, err := store.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if again.PnlSamples[0] == -999 {
		t.Error("store returned a shared sample slice; expected a deep copy")
	}
}
