// Package main recomputes the wallet leaderboard from the stored token
// activity snapshot and prints the top wallets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kol-sniper-dashboard/internal/aggregator"
	"kol-sniper-dashboard/internal/storage"
	"kol-sniper-dashboard/internal/storage/migrations"
	pgstore "kol-sniper-dashboard/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (required)")
	top := flag.Int("top", 20, "Number of leaderboard rows to print")
	sortBy := flag.String("sort-by", storage.SortByMomentumScore,
		"Leaderboard sort field: momentum_score, total_realized_pnl_sol, win_rate, total_volume_sol")
	flag.Parse()

	logger := log.New(os.Stderr, "[aggregate] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	activityStore := pgstore.NewActivityStore(pool)
	leaderboardStore := pgstore.NewLeaderboardStore(pool)

	records, err := activityStore.GetAll(ctx)
	if err != nil {
		logger.Fatalf("load token activity: %v", err)
	}
	logger.Printf("loaded %d token records", len(records))

	agg := aggregator.New(aggregator.Options{
		Leaderboard: leaderboardStore,
		Logger:      logger,
	})

	wallets, err := agg.Aggregate(ctx, records)
	if err != nil {
		logger.Fatalf("aggregate: %v", err)
	}
	logger.Printf("aggregated %d wallets", len(wallets))

	ranked, err := leaderboardStore.GetTop(ctx, *top, *sortBy)
	if err != nil {
		logger.Fatalf("load leaderboard: %v", err)
	}

	fmt.Printf("%-4s %-20s %-8s %-10s %-10s %-12s %-10s\n",
		"#", "WALLET", "SCORE", "WIN%", "AVG PNL%", "PNL SOL", "TOKENS")
	for i, w := range ranked {
		name := w.Name
		if name == "" {
			name = w.WalletAddress
		}
		if len(name) > 20 {
			name = name[:20]
		}
		fmt.Printf("%-4d %-20s %-8d %-10.1f %-10.1f %-12.4f %-10d\n",
			i+1, name, w.MomentumScore, w.WinRate, w.AvgPnlPercent,
			w.TotalRealizedPnlSOL, w.TotalTokensTraded)
	}
}
