package ingestion

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kol-sniper-dashboard/internal/aggregator"
	"kol-sniper-dashboard/internal/storage/memory"
)

func newTestPoller(t *testing.T, pages [][]feedToken) (*Poller, *memory.ActivityStore, *memory.LeaderboardStore) {
	t.Helper()
	server := httptest.NewServer(feedHandler(t, pages))
	t.Cleanup(server.Close)

	store := memory.NewActivityStore()
	leaderboard := memory.NewLeaderboardStore()
	logger := log.New(io.Discard, "", 0)

	poller := NewPoller(PollerOptions{
		Client: NewClient(ClientOptions{BaseURL: server.URL, PageDelay: time.Millisecond}),
		Store:  store,
		Aggregator: aggregator.New(aggregator.Options{
			Leaderboard: leaderboard,
			Logger:      logger,
		}),
		Logger: logger,
	})
	return poller, store, leaderboard
}

func TestPollOnce_UpsertsAndAggregates(t *testing.T) {
	ctx := context.Background()
	poller, store, leaderboard := newTestPoller(t, [][]feedToken{
		{fixtureToken("tok1"), fixtureToken("tok2")},
	})

	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}

	stored, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored tokens, got %d", len(stored))
	}
	for _, token := range stored {
		if token.TotalVolumeSOL != 2 {
			t.Errorf("expected derived volume 2, got %v", token.TotalVolumeSOL)
		}
		if token.AvgKOLPnl != 100 {
			t.Errorf("expected derived avg pnl 100, got %v", token.AvgKOLPnl)
		}
		if token.MomentumScore < 0 || token.MomentumScore > 100 {
			t.Errorf("momentum %d out of bounds", token.MomentumScore)
		}
	}

	agg, err := leaderboard.Get(ctx, testWallet)
	if err != nil {
		t.Fatalf("expected leaderboard refresh for %s: %v", testWallet, err)
	}
	if agg.TotalTokensTraded != 2 {
		t.Errorf("expected 2 tokens traded on the leaderboard, got %d", agg.TotalTokensTraded)
	}
}

func TestPollOnce_RepeatConverges(t *testing.T) {
	ctx := context.Background()
	poller, store, _ := newTestPoller(t, [][]feedToken{{fixtureToken("tok1")}})

	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("first PollOnce failed: %v", err)
	}
	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("second PollOnce failed: %v", err)
	}

	stored, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected upsert to converge to 1 record, got %d", len(stored))
	}
}

func TestPollOnce_DropsMalformedBuyers(t *testing.T) {
	ctx := context.Background()

	bad := fixtureToken("tok1")
	bad.KOLBuyers = append(bad.KOLBuyers, feedBuyer{
		Name:          "broken",
		WalletAddress: "not-a-solana-address!",
		FirstBuyAt:    "2024-01-15 10:00:00.000Z",
		LastAction:    "buy",
	})
	poller, store, _ := newTestPoller(t, [][]feedToken{{bad}})

	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}

	stored, err := store.GetByAddress(ctx, "tok1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(stored.KOLBuyers) != 1 {
		t.Fatalf("expected the malformed buyer to be dropped, got %d buyers", len(stored.KOLBuyers))
	}
	if stored.KOLBuyers[0].Name != "alpha" {
		t.Errorf("expected the valid buyer to survive, got %s", stored.KOLBuyers[0].Name)
	}
}

func TestPollOnce_DropsOffCurveWallets(t *testing.T) {
	ctx := context.Background()

	// Well-formed base58, 32 bytes, but not a point on the ed25519 curve:
	// a program-derived address, never a KOL wallet.
	bad := fixtureToken("tok1")
	bad.KOLBuyers = append(bad.KOLBuyers, feedBuyer{
		Name:          "pda",
		WalletAddress: "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
		FirstBuyAt:    "2024-01-15 10:00:00.000Z",
		LastAction:    "buy",
	})
	poller, store, _ := newTestPoller(t, [][]feedToken{{bad}})

	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}

	stored, err := store.GetByAddress(ctx, "tok1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(stored.KOLBuyers) != 1 {
		t.Fatalf("expected the off-curve buyer to be dropped, got %d buyers", len(stored.KOLBuyers))
	}
	if stored.KOLBuyers[0].WalletAddress != testWallet {
		t.Errorf("expected the on-curve buyer to survive, got %s", stored.KOLBuyers[0].WalletAddress)
	}
}

func TestPollOnce_DropsTokenWithoutAddress(t *testing.T) {
	ctx := context.Background()

	bad := fixtureToken("")
	poller, store, _ := newTestPoller(t, [][]feedToken{{bad, fixtureToken("tok2")}})

	if err := poller.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}

	stored, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(stored) != 1 || stored[0].TokenAddress != "tok2" {
		t.Errorf("expected only tok2 to survive, got %d records", len(stored))
	}
}

func TestPollOnce_FeedErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	poller := NewPoller(PollerOptions{
		Client: NewClient(ClientOptions{BaseURL: server.URL, PageDelay: time.Millisecond}),
		Store:  memory.NewActivityStore(),
		Logger: log.New(io.Discard, "", 0),
	})

	if err := poller.PollOnce(context.Background()); err == nil {
		t.Fatal("expected an error when the feed is down")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	poller, _, _ := newTestPoller(t, [][]feedToken{{fixtureToken("tok1")}})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- poller.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestDeriveTokenFields(t *testing.T) {
	fixture := fixtureToken("tok1")
	token := fixture.toDomain()
	deriveTokenFields(token, token.LastKOLBuy)

	if token.TotalVolumeSOL != 2 {
		t.Errorf("expected volume 2, got %v", token.TotalVolumeSOL)
	}
	if token.AvgKOLPnl != 100 {
		t.Errorf("expected avg pnl 100, got %v", token.AvgKOLPnl)
	}
	// kols=1 -> 3, pnl 100 -> 3, volume 2 -> 0.4, fresh buy -> 20; rounded 26.
	if token.MomentumScore != 26 {
		t.Errorf("expected momentum 26, got %d", token.MomentumScore)
	}
}
