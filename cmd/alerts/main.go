// Package main watches the stored token activity snapshot and fires alerts
// when watched KOL wallets buy, delivering them to the log and optionally
// to Telegram.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"kol-sniper-dashboard/internal/alerts"
	"kol-sniper-dashboard/internal/domain"
	"kol-sniper-dashboard/internal/observability"
	"kol-sniper-dashboard/internal/storage"
	"kol-sniper-dashboard/internal/storage/memory"
	"kol-sniper-dashboard/internal/storage/migrations"
	pgstore "kol-sniper-dashboard/internal/storage/postgres"
	"kol-sniper-dashboard/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	userID := flag.String("user-id", "cli", "User ID attached to fired alerts")
	wallets := flag.String("wallets", "", "Comma-separated KOL names to watch (required)")
	minKols := flag.Int("min-kols", 0, "Minimum KOL count on the token (0 disables)")
	minPnl := flag.Float64("min-pnl", 0, "Minimum realized P&L percent for the buyer (0 disables)")
	positionStatus := flag.String("position-status", "", "Required position status: holding, fully_sold, partial_sold (empty disables)")
	window := flag.Duration("recency-window", alerts.DefaultRecencyWindow, "How fresh a buy must be to alert")
	interval := flag.Duration("interval", alerts.DefaultCheckInterval, "Check interval")

	telegramToken := flag.String("telegram-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token (empty disables Telegram delivery)")
	telegramChatID := flag.String("telegram-chat-id", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stderr, "[alerts] ", log.LstdFlags)

	if *wallets == "" {
		logger.Fatal("--wallets is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	config := &domain.WatchConfig{
		UserID:        *userID,
		Wallets:       splitList(*wallets),
		MinKolsCount:  *minKols,
		RecencyWindow: *window,
		Active:        true,
	}
	if *minPnl > 0 {
		config.MinPnlPercent = minPnl
	}
	if *positionStatus != "" {
		status := domain.PositionStatus(*positionStatus)
		switch status {
		case domain.PositionHolding, domain.PositionFullySold, domain.PositionPartialSold:
			config.PositionStatus = &status
		default:
			logger.Fatalf("invalid --position-status %q", *positionStatus)
		}
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
	}

	notifiers := []alerts.Notifier{alerts.NewLogNotifier(logger)}
	if *telegramToken != "" {
		chatID, err := strconv.ParseInt(*telegramChatID, 10, 64)
		if err != nil {
			logger.Fatalf("invalid --telegram-chat-id %q: %v", *telegramChatID, err)
		}
		tg, err := telegram.NewNotifier(*telegramToken, chatID)
		if err != nil {
			logger.Fatalf("create telegram notifier: %v", err)
		}
		notifiers = append(notifiers, tg)
		logger.Println("telegram delivery enabled")
	}

	scheduler := alerts.NewScheduler(alerts.SchedulerOptions{
		Store:     activityStore,
		Configs:   alerts.StaticConfigs{config},
		Notifiers: notifiers,
		Interval:  *interval,
		Logger:    logger,
	})

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("scheduler: %v", err)
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
