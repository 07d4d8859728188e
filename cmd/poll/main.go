// Package main polls the KOL token activity feed, validates and upserts
// records into storage, and refreshes the wallet leaderboard after each pass.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kol-sniper-dashboard/internal/aggregator"
	"kol-sniper-dashboard/internal/ingestion"
	"kol-sniper-dashboard/internal/observability"
	"kol-sniper-dashboard/internal/storage"
	"kol-sniper-dashboard/internal/storage/memory"
	"kol-sniper-dashboard/internal/storage/migrations"
	pgstore "kol-sniper-dashboard/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	feedURL := flag.String("feed-url", os.Getenv("FEED_URL"), "Token activity feed base URL (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	interval := flag.Duration("interval", ingestion.DefaultPollInterval, "Poll interval")
	perPage := flag.Int("per-page", ingestion.DefaultPerPage, "Feed page size")
	once := flag.Bool("once", false, "Run a single poll pass and exit")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stderr, "[poll] ", log.LstdFlags)

	if *feedURL == "" {
		logger.Fatal("--feed-url is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
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

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
	}

	var activityStore storage.ActivityStore = memory.NewActivityStore()
	var leaderboardStore storage.LeaderboardStore = memory.NewLeaderboardStore()

	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}

		activityStore = pgstore.NewActivityStore(pool)
		leaderboardStore = pgstore.NewLeaderboardStore(pool)
	}

	client := ingestion.NewClient(ingestion.ClientOptions{
		BaseURL: *feedURL,
		PerPage: *perPage,
	})

	agg := aggregator.New(aggregator.Options{
		Leaderboard: leaderboardStore,
		Logger:      logger,
	})

	poller := ingestion.NewPoller(ingestion.PollerOptions{
		Client:     client,
		Store:      activityStore,
		Aggregator: agg,
		Interval:   *interval,
		Logger:     logger,
	})

	if *once {
		if err := poller.PollOnce(ctx); err != nil {
			logger.Fatalf("poll: %v", err)
		}
		return
	}

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("poller: %v", err)
	}
	logger.Println("shutdown complete")
}

func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("metrics server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("metrics server error: %v", err)
	}
}
